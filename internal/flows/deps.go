package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/jwt"
	"github.com/MrEthical07/credauth/session"
)

// Deps groups flow dependency sets. The root engine builds this once and
// delegates each operation to the matching flow.
type Deps struct {
	Login             LoginDeps
	Refresh           RefreshDeps
	OTP               OTPDeps
	PasswordReset     PasswordResetDeps
	SecurityQuestions SecurityQuestionDeps
	Logout            LogoutDeps
	Validate          ValidateDeps
}

// Errors carries the host sentinels returned by the flows. Account-state
// errors come from the credential package and are returned as is.
type Errors struct {
	EngineNotReady         error
	Internal               error
	Validation             error
	RateLimited            error
	OTPRateLimited         error
	InvalidCredentials     error
	UserNotFound           error
	InvalidRefreshToken    error
	OTPNotFound            error
	InvalidOTP             error
	InvalidEmail           error
	InvalidPhone           error
	InvalidResetToken      error
	SecurityQuestionFailed error
	TokenExpired           error
	InvalidToken           error
	TokenBlacklisted       error
	WeakPassword           func(violations []string) error
}

// internal wraps an infrastructure failure so callers match Errors.Internal
// while operators keep the cause.
func (e Errors) internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", e.Internal, op, err)
}

// Observer carries the side channels every flow reports to. Nil fields
// are no-ops.
type Observer struct {
	Now       func() time.Time
	MetricInc func(id int)
	Emit      func(ctx context.Context, event audit.Event)
	Warn      func(msg string, args ...any)
}

func (o Observer) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

func (o Observer) inc(id int) {
	if o.MetricInc != nil {
		o.MetricInc(id)
	}
}

func (o Observer) emit(ctx context.Context, event audit.Event) {
	if o.Emit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = o.now()
	}
	o.Emit(ctx, event)
}

func (o Observer) warn(msg string, args ...any) {
	if o.Warn != nil {
		o.Warn(msg, args...)
	}
}

// Hasher runs password and answer hashing off the request path.
type Hasher interface {
	Hash(ctx context.Context, secret string) (string, error)
	Verify(ctx context.Context, secret, encodedHash string) (bool, error)
}

// AccessIssuer signs access tokens.
type AccessIssuer interface {
	CreateAccess(sub jwt.Subject) (string, *jwt.AccessClaims, error)
	AccessTTL() time.Duration
}

// AccessParser verifies access tokens.
type AccessParser interface {
	ParseAccess(token string) (*jwt.AccessClaims, error)
}

// SessionCache is the part of the session store used for sessions and the
// blacklist.
type SessionCache interface {
	PutSession(ctx context.Context, userID uuid.UUID, accessToken string, ttl time.Duration) error
	IsActiveSession(ctx context.Context, userID uuid.UUID, accessToken string) (bool, error)
	InvalidateSession(ctx context.Context, userID uuid.UUID) (string, error)
	InvalidateSessionIf(ctx context.Context, userID uuid.UUID, accessToken string) (bool, error)
	Blacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// OTPCache is the part of the session store used by the OTP flow.
type OTPCache interface {
	PutOTP(ctx context.Context, identifier, code string, ttl time.Duration) error
	ConsumeOTP(ctx context.Context, identifier string, match func(stored string) bool) (session.OTPResult, error)
	DeleteOTP(ctx context.Context, identifier string) error
	RecordOTPFailure(ctx context.Context, identifier string, ttl time.Duration) (int64, error)
}

// TokenPair is what login and refresh hand back.
type TokenPair struct {
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}
