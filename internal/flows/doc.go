// Package flows holds the use cases behind each Engine operation.
//
// Each use case is a RunX(ctx, req, deps) function over an explicit deps
// struct, so the root package wires collaborators once and tests can swap
// any of them. Flows return the host sentinels carried in [Errors]; the
// root package never re-classifies a flow error.
//
// # Ordering rules
//
//   - Refresh revokes the redeemed token before issuing a new pair.
//   - OTP verify deletes the code before touching the user.
//   - Reset confirm consumes the reset token before changing the password.
//   - Security-question setup replaces the whole set in one store call.
package flows
