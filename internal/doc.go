// Package internal holds helpers private to credauth: secure random tokens,
// codes and token hashing.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - flows: one orchestrator function per Engine operation
//   - policy: pure decisions over entities (lockout, questions, identifiers)
//   - rate: login gate and OTP send limiter
package internal
