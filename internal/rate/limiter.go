package rate

import (
	"context"
	"time"
)

// Config holds the gate thresholds.
type Config struct {
	LoginWindow           time.Duration
	MaxIdentifierFailures int
	MaxIPFailures         int

	OTPWindow   time.Duration
	MaxOTPSends int
}

// AttemptCounter counts failed logins since a cutoff.
type AttemptCounter interface {
	CountFailedByIdentifier(ctx context.Context, identifier string, since time.Time) (int64, error)
	CountFailedByIP(ctx context.Context, ip string, since time.Time) (int64, error)
}

// SendCounter is the OTP send counter.
type SendCounter interface {
	OTPSendCount(ctx context.Context, identifier string) (int64, error)
	IncrementOTPSend(ctx context.Context, identifier string, window time.Duration) (int64, error)
}

// Limiter enforces the login gate and the OTP send cap.
type Limiter struct {
	attempts AttemptCounter
	sends    SendCounter
	config   Config
	now      func() time.Time
}

// New creates a [Limiter]. now may be nil.
func New(attempts AttemptCounter, sends SendCounter, cfg Config, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		attempts: attempts,
		sends:    sends,
		config:   cfg,
		now:      now,
	}
}

// CheckLogin returns ErrRateLimited when the identifier or the IP has too
// many recent failures. An empty ip skips the IP check.
func (l *Limiter) CheckLogin(ctx context.Context, identifier, ip string) error {
	since := l.now().Add(-l.config.LoginWindow)

	n, err := l.attempts.CountFailedByIdentifier(ctx, identifier, since)
	if err != nil {
		return err
	}
	if l.config.MaxIdentifierFailures > 0 && n >= int64(l.config.MaxIdentifierFailures) {
		return ErrRateLimited
	}

	if ip == "" {
		return nil
	}
	n, err = l.attempts.CountFailedByIP(ctx, ip, since)
	if err != nil {
		return err
	}
	if l.config.MaxIPFailures > 0 && n >= int64(l.config.MaxIPFailures) {
		return ErrRateLimited
	}
	return nil
}

// AllowOTPSend consumes one send from the identifier's window or returns
// ErrRateLimited. A rejected send is counted only when it raced past the
// initial read.
func (l *Limiter) AllowOTPSend(ctx context.Context, identifier string) error {
	limit := int64(l.config.MaxOTPSends)

	count, err := l.sends.OTPSendCount(ctx, identifier)
	if err != nil {
		return err
	}
	if count >= limit {
		return ErrRateLimited
	}

	count, err = l.sends.IncrementOTPSend(ctx, identifier, l.config.OTPWindow)
	if err != nil {
		return err
	}
	if count > limit {
		return ErrRateLimited
	}
	return nil
}
