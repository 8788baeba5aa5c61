package credauth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/internal/flows"
	"github.com/MrEthical07/credauth/internal/policy"
	"github.com/MrEthical07/credauth/jwt"
	"github.com/MrEthical07/credauth/session"
)

// Engine runs the authentication use cases. It is immutable after Build
// and safe for concurrent use.
type Engine struct {
	config   Config
	store    credential.Store
	sessions *session.Store
	access   *jwt.Manager
	flows    flows.Service
	audit    *audit.Dispatcher
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

// Login authenticates an email or phone identifier with a password and
// returns a fresh token pair. Client IP and user agent are read from ctx.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	pair, err := e.flows.Login(ctx, flows.LoginRequest{
		Identifier: req.Identifier,
		Password:   req.Password,
		DeviceInfo: req.DeviceInfo,
		IP:         clientIPFromContext(ctx),
		UserAgent:  userAgentFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	return toLoginResponse(pair), nil
}

// Refresh redeems a refresh token for a new pair. A token can be redeemed
// once; every later or concurrent redemption gets ErrInvalidRefreshToken.
func (e *Engine) Refresh(ctx context.Context, req RefreshTokenRequest) (*LoginResponse, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	pair, err := e.flows.Refresh(ctx, flows.RefreshRequest{
		RefreshToken: req.RefreshToken,
		IP:           clientIPFromContext(ctx),
		UserAgent:    userAgentFromContext(ctx),
	})
	if err != nil {
		return nil, err
	}
	return toLoginResponse(pair), nil
}

// ValidateAccessToken verifies token under the configured ValidationMode.
// Errors are ErrTokenExpired, ErrInvalidToken, ErrTokenBlacklisted or a
// wrapped ErrInternal.
func (e *Engine) ValidateAccessToken(ctx context.Context, token string) (*AccessClaims, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}
	claims, err := e.flows.Validate(ctx, token, validateMode(e.config.ValidationMode))
	if !start.IsZero() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &AccessClaims{
		UserID: userID,
		Email:  claims.Email,
		Role:   claims.Role,
		JTI:    claims.ID,
	}, nil
}

func validateMode(m ValidationMode) flows.ValidateMode {
	switch m {
	case ModeJWTOnly:
		return flows.ValidateJWTOnly
	case ModeStrict:
		return flows.ValidateStrict
	default:
		return flows.ValidateHybrid
	}
}

// Logout ends the session behind accessToken. refreshToken is optional;
// when given and owned by the same user it is revoked too.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flows.Logout(ctx, flows.LogoutRequest{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		IP:           clientIPFromContext(ctx),
	})
}

// RevokeAllSessions revokes every refresh token of userID and drops its
// cached session.
func (e *Engine) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flows.LogoutAll(ctx, userID)
}

// RefreshSessionTTL extends both directions of the user's cached session.
// A user without a session is left alone.
func (e *Engine) RefreshSessionTTL(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be > 0", ErrValidation)
	}
	if err := e.sessions.RefreshSessionTTL(ctx, userID, ttl); err != nil {
		return fmt.Errorf("%w: refresh session ttl: %w", ErrInternal, err)
	}
	return nil
}

// SendOtp creates a one-time code for an email or phone identifier and
// publishes it. The per-identifier send cap is checked first.
func (e *Engine) SendOtp(ctx context.Context, req SendOtpRequest) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flows.SendOTP(ctx, flows.SendOTPRequest{
		Identifier: req.Identifier,
		Type:       flows.IdentifierType(req.IdentifierType),
		IP:         clientIPFromContext(ctx),
	})
}

// VerifyOtp consumes the pending code for an identifier and marks the
// owning user verified.
func (e *Engine) VerifyOtp(ctx context.Context, req VerifyOtpRequest) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flows.VerifyOTP(ctx, flows.VerifyOTPRequest{
		Identifier: req.Identifier,
		Code:       req.OtpCode,
		IP:         clientIPFromContext(ctx),
	})
}

// RequestPasswordReset issues a reset token and emails it. The raw token
// is also returned for in-process callers; transports must not echo it.
func (e *Engine) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	return e.flows.RequestPasswordReset(ctx, flows.PasswordResetRequest{
		Identifier: req.Identifier,
		Type:       flows.IdentifierType(req.IdentifierType),
		IP:         clientIPFromContext(ctx),
	})
}

// ConfirmPasswordReset sets a new password with a reset token and ends
// every session of the user.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flows.ConfirmPasswordReset(ctx, flows.PasswordResetConfirmRequest{
		Token:       req.Token,
		NewPassword: req.NewPassword,
		IP:          clientIPFromContext(ctx),
	})
}

// SetSecurityQuestions replaces the user's whole set of answers.
func (e *Engine) SetSecurityQuestions(ctx context.Context, userID uuid.UUID, req SetSecurityQuestionsRequest) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flows.SetSecurityQuestions(ctx, userID, toAnswers(req.Questions))
}

// VerifySecurityQuestions succeeds only when every stored question is
// answered exactly once and correctly.
func (e *Engine) VerifySecurityQuestions(ctx context.Context, userID uuid.UUID, req VerifySecurityQuestionsRequest) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flows.VerifySecurityQuestions(ctx, userID, toAnswers(req.Answers))
}

// ListSecurityQuestions returns the active catalog.
func (e *Engine) ListSecurityQuestions(ctx context.Context) ([]SecurityQuestion, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	qs, err := e.flows.ListSecurityQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return toQuestions(qs), nil
}

// UserSecurityQuestions returns the questions a user has answered.
func (e *Engine) UserSecurityQuestions(ctx context.Context, userID uuid.UUID) ([]SecurityQuestion, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	qs, err := e.flows.UserSecurityQuestions(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toQuestions(qs), nil
}

// PurgeExpiredTokens deletes refresh and reset tokens that expired before
// now. It is meant for a periodic job.
func (e *Engine) PurgeExpiredTokens(ctx context.Context) (refresh, reset int64, err error) {
	if !e.ready() {
		return 0, 0, ErrEngineNotReady
	}
	now := e.now()
	refresh, err = e.store.DeleteExpiredRefreshTokens(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: purge refresh tokens: %w", ErrInternal, err)
	}
	reset, err = e.store.DeleteExpiredPasswordResetTokens(ctx, now)
	if err != nil {
		return refresh, 0, fmt.Errorf("%w: purge reset tokens: %w", ErrInternal, err)
	}
	return refresh, reset, nil
}

// Close flushes buffered audit events. The engine must not be used after.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
		if n := e.audit.Dropped(); n > 0 && e.logger != nil {
			e.logger.Warn("audit events dropped", "count", n)
		}
	}
}

// AuditDropped returns how many audit events a full buffer discarded.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func toAnswers(in []QuestionAnswer) []policy.Answer {
	out := make([]policy.Answer, len(in))
	for i, a := range in {
		out[i] = policy.Answer{QuestionID: a.QuestionID, Answer: a.Answer}
	}
	return out
}

func toQuestions(in []credential.SecurityQuestion) []SecurityQuestion {
	out := make([]SecurityQuestion, len(in))
	for i, q := range in {
		out[i] = SecurityQuestion{ID: q.ID, Question: q.Question}
	}
	return out
}
