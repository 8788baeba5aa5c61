package credauth

import (
	"errors"
	"strings"

	"github.com/MrEthical07/credauth/credential"
)

var (
	// ErrEngineNotReady is returned when an Engine method runs on an engine
	// that was not produced by Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInternal wraps every store, cache and bus failure. The wrapped chain
	// keeps the cause for logs; transports render only this sentinel.
	ErrInternal = errors.New("internal error")
	// ErrValidation covers malformed input that is not a credential failure.
	ErrValidation = errors.New("validation failed")

	ErrRateLimitExceeded    = errors.New("too many login attempts")
	ErrOtpRateLimitExceeded = errors.New("too many otp requests")

	// ErrInvalidCredentials is returned for unknown identifiers and wrong
	// passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrOtpNotFound         = errors.New("otp not found")
	// ErrOtpExpired is kept for transports that map it. Expired codes are
	// evicted by the cache TTL, so the engine reports ErrOtpNotFound for them.
	ErrOtpExpired             = errors.New("otp expired")
	ErrInvalidOtp             = errors.New("invalid otp")
	ErrInvalidEmail           = errors.New("invalid email")
	ErrInvalidPhone           = errors.New("invalid phone")
	ErrInvalidResetToken      = errors.New("invalid or expired reset token")
	ErrSecurityQuestionFailed = errors.New("security question verification failed")

	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenBlacklisted = errors.New("token revoked")

	// ErrWeakPassword is matched by every *PasswordPolicyError.
	ErrWeakPassword = errors.New("weak password")
)

// Account-state errors are owned by the credential package.
var (
	ErrAccountInactive    = credential.ErrAccountInactive
	ErrAccountLocked      = credential.ErrAccountLocked
	ErrAccountNotVerified = credential.ErrAccountNotVerified
)

// PasswordPolicyError lists every rule a rejected password breaks.
type PasswordPolicyError struct {
	Violations []string
}

func (e *PasswordPolicyError) Error() string {
	if len(e.Violations) == 0 {
		return ErrWeakPassword.Error()
	}
	return ErrWeakPassword.Error() + ": " + strings.Join(e.Violations, "; ")
}

// Is reports a match against ErrWeakPassword.
func (e *PasswordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

func weakPassword(violations []string) error {
	return &PasswordPolicyError{Violations: append([]string(nil), violations...)}
}
