// Package rate implements the two abuse gates in front of the flows.
//
// # Login gate
//
// Failures are counted from the durable LoginAttempt history, not from a
// cache counter, so losing the cache never reopens the gate. The gate is
// closed when identifier failures reach MaxIdentifierFailures or IP
// failures reach MaxIPFailures within LoginWindow.
//
// # OTP send limiter
//
// Fixed-window counter in the session cache (otp_rate_limit:<identifier>):
// read, reject at the cap, then INCR with EXPIRE on the first hit. The INCR
// result is checked again so concurrent sends cannot pass the cap.
package rate
