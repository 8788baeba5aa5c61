package flows

import (
	"context"

	"github.com/google/uuid"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/internal/policy"
	"github.com/MrEthical07/credauth/jwt"
)

// Service is the flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired.
func (s Service) Initialized() bool {
	return s.deps.Login.Users != nil && s.deps.Validate.Access != nil
}

func (s Service) Login(ctx context.Context, req LoginRequest) (TokenPair, error) {
	return RunLogin(ctx, req, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, req RefreshRequest) (TokenPair, error) {
	return RunRefresh(ctx, req, s.deps.Refresh)
}

func (s Service) SendOTP(ctx context.Context, req SendOTPRequest) error {
	return RunSendOTP(ctx, req, s.deps.OTP)
}

func (s Service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) error {
	return RunVerifyOTP(ctx, req, s.deps.OTP)
}

func (s Service) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) (string, error) {
	return RunRequestPasswordReset(ctx, req, s.deps.PasswordReset)
}

func (s Service) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error {
	return RunConfirmPasswordReset(ctx, req, s.deps.PasswordReset)
}

func (s Service) SetSecurityQuestions(ctx context.Context, userID uuid.UUID, answers []policy.Answer) error {
	return RunSetSecurityQuestions(ctx, userID, answers, s.deps.SecurityQuestions)
}

func (s Service) VerifySecurityQuestions(ctx context.Context, userID uuid.UUID, answers []policy.Answer) error {
	return RunVerifySecurityQuestions(ctx, userID, answers, s.deps.SecurityQuestions)
}

func (s Service) ListSecurityQuestions(ctx context.Context) ([]credential.SecurityQuestion, error) {
	return RunListSecurityQuestions(ctx, s.deps.SecurityQuestions)
}

func (s Service) UserSecurityQuestions(ctx context.Context, userID uuid.UUID) ([]credential.SecurityQuestion, error) {
	return RunUserSecurityQuestions(ctx, userID, s.deps.SecurityQuestions)
}

func (s Service) Logout(ctx context.Context, req LogoutRequest) error {
	return RunLogout(ctx, req, s.deps.Logout)
}

func (s Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return RunLogoutAll(ctx, userID, s.deps.Logout)
}

func (s Service) Validate(ctx context.Context, token string, mode ValidateMode) (*jwt.AccessClaims, error) {
	return RunValidate(ctx, token, mode, s.deps.Validate)
}
