package flows

import (
	"context"
	"strings"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/internal/audit"
)

// RefreshRequest is the flow-local refresh input.
type RefreshRequest struct {
	RefreshToken string
	IP           string
	UserAgent    string
}

// RefreshMetrics carries metric IDs used by the refresh flow.
type RefreshMetrics struct {
	Success       int
	Failure       int
	ReuseDetected int
}

// RefreshDeps captures refresh rotation dependencies.
type RefreshDeps struct {
	Users         credential.UserStore
	RefreshTokens credential.RefreshTokenStore
	HashToken     func(string) string
	Issue         IssueDeps
	Metrics       RefreshMetrics
	Errors        Errors
	Observer      Observer
}

// RunRefresh redeems a raw refresh token for a new pair.
//
// The redeemed token is revoked with a conditional update before anything
// is issued, so of several concurrent redemptions exactly one proceeds.
func RunRefresh(ctx context.Context, req RefreshRequest, deps RefreshDeps) (TokenPair, error) {
	if deps.Users == nil || deps.RefreshTokens == nil || deps.HashToken == nil {
		return TokenPair{}, deps.Errors.EngineNotReady
	}

	raw := strings.TrimSpace(req.RefreshToken)
	if raw == "" {
		return TokenPair{}, refreshRejected(ctx, deps, req, "", "empty")
	}

	now := deps.Observer.now()
	token, err := deps.RefreshTokens.FindRefreshTokenByHash(ctx, deps.HashToken(raw))
	if err != nil {
		return TokenPair{}, deps.Errors.internal("find refresh token", err)
	}
	if token == nil {
		return TokenPair{}, refreshRejected(ctx, deps, req, "", "unknown")
	}
	if !token.IsValid(now) {
		if token.IsRevoked {
			deps.Observer.inc(deps.Metrics.ReuseDetected)
			return TokenPair{}, refreshRejected(ctx, deps, req, token.UserID.String(), "revoked")
		}
		return TokenPair{}, refreshRejected(ctx, deps, req, token.UserID.String(), "expired")
	}

	user, err := deps.Users.FindUserByID(ctx, token.UserID)
	if err != nil {
		return TokenPair{}, deps.Errors.internal("find user", err)
	}
	if user == nil {
		deps.Observer.inc(deps.Metrics.Failure)
		return TokenPair{}, deps.Errors.UserNotFound
	}
	if stateErr := user.CanLogin(now); stateErr != nil {
		deps.Observer.inc(deps.Metrics.Failure)
		deps.Observer.emit(ctx, audit.Event{
			EventType: audit.EventRefreshInvalid,
			UserID:    user.ID.String(),
			IP:        req.IP,
			Reason:    stateFailureReason(stateErr),
		})
		return TokenPair{}, stateErr
	}

	won, err := deps.RefreshTokens.RevokeRefreshToken(ctx, token.ID, now)
	if err != nil {
		return TokenPair{}, deps.Errors.internal("revoke refresh token", err)
	}
	if !won {
		deps.Observer.inc(deps.Metrics.ReuseDetected)
		return TokenPair{}, refreshRejected(ctx, deps, req, user.ID.String(), "revoked")
	}

	pair, err := RunIssueSession(ctx, user, credential.DeviceContext{
		DeviceInfo: token.Device.DeviceInfo,
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	}, deps.Issue)
	if err != nil {
		return TokenPair{}, err
	}

	deps.Observer.inc(deps.Metrics.Success)
	deps.Observer.emit(ctx, audit.Event{
		EventType: audit.EventRefreshSuccess,
		UserID:    user.ID.String(),
		IP:        req.IP,
		UserAgent: req.UserAgent,
		Success:   true,
	})
	return pair, nil
}

func refreshRejected(ctx context.Context, deps RefreshDeps, req RefreshRequest, userID, reason string) error {
	deps.Observer.inc(deps.Metrics.Failure)
	deps.Observer.emit(ctx, audit.Event{
		EventType: audit.EventRefreshInvalid,
		UserID:    userID,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		Reason:    reason,
	})
	return deps.Errors.InvalidRefreshToken
}
