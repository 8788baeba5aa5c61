// Package session is the Session Cache: short-lived, disposable state that
// backs authentication decisions.
//
// # Key families
//
//	session:<user_id>           current access token of the user   TTL access lifetime
//	token:<access_token>        owning user id                     TTL access lifetime
//	otp:<identifier>            pending one-time code              TTL OTP expiry
//	otp_rate_limit:<identifier> sends in the current window        TTL rate window
//	otp_attempts:<identifier>   verify mismatches for current code TTL OTP expiry
//	blacklist:<jti>             revoked access token id            TTL remaining token life
//
// The two session directions are always written and deleted together.
//
// # Architecture boundaries
//
// This package owns the [Cache] contract, the Redis implementation and the
// typed [Store]. It does NOT parse tokens or decide policy; losing the cache
// only forces users to authenticate again.
package session
