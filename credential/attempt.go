package credential

import (
	"time"

	"github.com/google/uuid"
)

// Failure reasons recorded on LoginAttempt. They are internal and never
// surface to callers.
const (
	FailureUserNotFound       = "user_not_found"
	FailureAccountInactive    = "account_inactive"
	FailureAccountLocked      = "account_locked"
	FailureAccountNotVerified = "account_not_verified"
	FailureInvalidPassword    = "invalid_password"
)

// LoginAttempt is an immutable record of one login try.
type LoginAttempt struct {
	ID            uuid.UUID
	Identifier    string
	IPAddress     string
	UserAgent     string
	IsSuccessful  bool
	FailureReason string
	Country       string
	City          string
	CreatedAt     time.Time
}

// NewLoginAttempt records an outcome. failureReason is ignored on success.
func NewLoginAttempt(identifier, ip, userAgent string, success bool, failureReason string, now time.Time) *LoginAttempt {
	a := &LoginAttempt{
		ID:           uuid.New(),
		Identifier:   identifier,
		IPAddress:    ip,
		UserAgent:    userAgent,
		IsSuccessful: success,
		CreatedAt:    now,
	}
	if !success {
		a.FailureReason = failureReason
	}
	return a
}
