// Package credauth is a credential-and-session authority: password login
// with lockout and rate gating, access tokens with rotating opaque refresh
// tokens, one-time codes, password reset and security questions.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build]. Durable state lives behind [credential.Store]; sessions,
// one-time codes, send counters and the access-token blacklist live in a
// Redis-backed [session.Store].
//
// # Architecture boundaries
//
// credauth is the public surface. It exposes [Engine], [Builder], [Config],
// request and response types, and the error taxonomy in errors.go. Use-case
// orchestration lives in internal/flows and never sees the root package;
// the Engine wires it once at Build time.
//
// Callers branch on errors with errors.Is. Every store, cache or bus
// failure matches [ErrInternal]; its chain keeps the cause for logs.
package credauth
