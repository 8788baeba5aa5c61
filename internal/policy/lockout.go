package policy

import "time"

// LockoutMode selects how long a lockout lasts once the failure threshold
// is reached.
type LockoutMode int

const (
	// LockoutFixed locks for the configured duration every time.
	LockoutFixed LockoutMode = iota
	// LockoutExponential locks for 2^(failed-3) minutes, capped at MaxExponential.
	LockoutExponential
)

// MaxExponential caps [LockoutExponential].
const MaxExponential = 60 * time.Minute

// Lockout decides when repeated failures lock an account and for how long.
type Lockout struct {
	Mode        LockoutMode
	MaxAttempts int
	Duration    time.Duration
}

// DurationFor returns the lockout length applied when the failure counter
// reaches failed.
func (l Lockout) DurationFor(failed int) time.Duration {
	if l.Mode != LockoutExponential {
		return l.Duration
	}
	shift := failed - 3
	if shift < 0 {
		shift = 0
	}
	if shift > 6 {
		return MaxExponential
	}
	d := time.Duration(1<<uint(shift)) * time.Minute
	if d > MaxExponential {
		return MaxExponential
	}
	return d
}
