package flows

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/internal/policy"
	"github.com/MrEthical07/credauth/notify"
)

// PasswordResetRequest is the flow-local reset request input.
type PasswordResetRequest struct {
	Identifier string
	Type       IdentifierType
	IP         string
}

// PasswordResetConfirmRequest is the flow-local reset confirm input.
type PasswordResetConfirmRequest struct {
	Token       string
	NewPassword string
	IP          string
}

// PasswordResetMetrics carries metric IDs used by the reset flows.
type PasswordResetMetrics struct {
	Request        int
	ConfirmSuccess int
	ConfirmFailure int
}

// PasswordResetDeps captures reset request/confirm dependencies.
type PasswordResetDeps struct {
	Users          credential.UserStore
	ResetTokens    credential.PasswordResetTokenStore
	Revoker        SessionRevoker
	Passwords      Hasher
	CheckPassword  func(string) []string
	Publisher      notify.Publisher
	NewOpaqueToken func() (string, error)
	HashToken      func(string) string
	TTL            time.Duration
	Metrics        PasswordResetMetrics
	Errors         Errors
	Observer       Observer
}

// RunRequestPasswordReset stores the hash of a new reset value and sends
// the raw value to the user's email. The raw value is returned to the
// caller and never persisted.
func RunRequestPasswordReset(ctx context.Context, req PasswordResetRequest, deps PasswordResetDeps) (string, error) {
	if deps.Users == nil || deps.ResetTokens == nil || deps.Publisher == nil || deps.NewOpaqueToken == nil || deps.HashToken == nil {
		return "", deps.Errors.EngineNotReady
	}

	identifier := policy.CanonicalIdentifier(req.Identifier)
	if identifier == "" {
		return "", deps.Errors.Validation
	}

	var (
		user *credential.User
		err  error
	)
	switch req.Type {
	case IdentifierEmail:
		user, err = deps.Users.FindUserByEmail(ctx, identifier)
	case IdentifierPhone:
		user, err = deps.Users.FindUserByPhone(ctx, identifier)
	default:
		return "", deps.Errors.Validation
	}
	if err != nil {
		return "", deps.Errors.internal("find user", err)
	}
	if user == nil {
		return "", deps.Errors.UserNotFound
	}

	raw, err := deps.NewOpaqueToken()
	if err != nil {
		return "", deps.Errors.internal("generate reset token", err)
	}
	token := credential.NewPasswordResetToken(user.ID, deps.HashToken(raw), deps.TTL, deps.Observer.now())
	if _, err := deps.ResetTokens.CreatePasswordResetToken(ctx, token); err != nil {
		return "", deps.Errors.internal("store reset token", err)
	}

	if err := deps.Publisher.SendPasswordResetEmail(ctx, user.Email, raw); err != nil {
		return "", deps.Errors.internal("publish reset email", err)
	}

	deps.Observer.inc(deps.Metrics.Request)
	deps.Observer.emit(ctx, audit.Event{
		EventType:  audit.EventPasswordResetRequest,
		UserID:     user.ID.String(),
		Identifier: identifier,
		IP:         req.IP,
		Success:    true,
	})
	return raw, nil
}

// RunConfirmPasswordReset sets a new password with a reset value.
//
// The password policy runs before any lookup. The reset token is consumed
// with a conditional update before the password changes, then every
// session of the user is revoked. The confirmation message is best-effort.
func RunConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest, deps PasswordResetDeps) error {
	if deps.Users == nil || deps.ResetTokens == nil || deps.Passwords == nil || deps.CheckPassword == nil || deps.HashToken == nil || deps.Revoker.RefreshTokens == nil {
		return deps.Errors.EngineNotReady
	}

	if violations := deps.CheckPassword(req.NewPassword); len(violations) > 0 {
		deps.Observer.inc(deps.Metrics.ConfirmFailure)
		return deps.Errors.WeakPassword(violations)
	}

	raw := strings.TrimSpace(req.Token)
	if raw == "" {
		return resetRejected(ctx, deps, req, "", "empty")
	}

	now := deps.Observer.now()
	token, err := deps.ResetTokens.FindPasswordResetTokenByHash(ctx, deps.HashToken(raw))
	if err != nil {
		return deps.Errors.internal("find reset token", err)
	}
	if token == nil {
		return resetRejected(ctx, deps, req, "", "unknown")
	}
	if !token.IsValid(now) {
		return resetRejected(ctx, deps, req, token.UserID.String(), "used_or_expired")
	}

	user, err := deps.Users.FindUserByID(ctx, token.UserID)
	if err != nil {
		return deps.Errors.internal("find user", err)
	}
	if user == nil {
		return resetRejected(ctx, deps, req, token.UserID.String(), "user_missing")
	}

	hash, err := deps.Passwords.Hash(ctx, req.NewPassword)
	if err != nil {
		return deps.Errors.internal("hash password", err)
	}

	won, err := deps.ResetTokens.ConsumePasswordResetToken(ctx, token.ID, now)
	if err != nil {
		return deps.Errors.internal("consume reset token", err)
	}
	if !won {
		return resetRejected(ctx, deps, req, user.ID.String(), "used_or_expired")
	}

	user.ChangePassword(hash, now)
	if _, err := deps.Users.UpdateUser(ctx, user); err != nil {
		return deps.Errors.internal("update user", err)
	}
	if _, err := RunRevokeUserSessions(ctx, user.ID, deps.Revoker); err != nil {
		return err
	}

	if deps.Publisher != nil {
		if err := deps.Publisher.SendPasswordChangedConfirmation(ctx, user.Email); err != nil {
			deps.Observer.warn("credauth: password changed confirmation not sent", "user_id", user.ID.String(), "error", err)
		}
	}

	deps.Observer.inc(deps.Metrics.ConfirmSuccess)
	deps.Observer.emit(ctx, audit.Event{
		EventType: audit.EventPasswordResetConfirm,
		UserID:    user.ID.String(),
		IP:        req.IP,
		Success:   true,
	})
	return nil
}

func resetRejected(ctx context.Context, deps PasswordResetDeps, req PasswordResetConfirmRequest, userID, reason string) error {
	deps.Observer.inc(deps.Metrics.ConfirmFailure)
	deps.Observer.emit(ctx, audit.Event{
		EventType: audit.EventPasswordResetConfirm,
		UserID:    userID,
		IP:        req.IP,
		Reason:    reason,
	})
	return deps.Errors.InvalidResetToken
}
