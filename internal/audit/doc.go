// Package audit carries security-relevant outcomes out of the engine without
// putting a sink on the request path.
//
// # Components
//
//   - [Event]: one outcome (login_failure, refresh_success, otp_sent, ...).
//   - [Sink]: consumer contract, with channel, JSON-lines, slog and no-op
//     implementations.
//   - [Dispatcher]: bounded buffer drained by one goroutine. With DropIfFull
//     a full buffer drops and counts the event instead of blocking.
//
// The flows decide which events to emit; this package only delivers them.
package audit
