package flows

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/internal/audit"
)

// SessionRevoker ends every session of a user: durable refresh tokens and
// the cached access token.
type SessionRevoker struct {
	RefreshTokens credential.RefreshTokenStore
	Sessions      SessionCache
	Access        AccessParser
	Invalidated   int
	Errors        Errors
	Observer      Observer
}

// RunRevokeUserSessions revokes all refresh tokens of userID, drops its
// cached session and blacklists the cached access token for the rest of
// its lifetime. It returns the number of refresh tokens revoked.
func RunRevokeUserSessions(ctx context.Context, userID uuid.UUID, deps SessionRevoker) (int64, error) {
	now := deps.Observer.now()
	n, err := deps.RefreshTokens.RevokeAllRefreshTokens(ctx, userID, now)
	if err != nil {
		return 0, deps.Errors.internal("revoke refresh tokens", err)
	}
	if deps.Sessions == nil {
		return n, nil
	}

	prev, err := deps.Sessions.InvalidateSession(ctx, userID)
	if err != nil {
		return n, deps.Errors.internal("invalidate session", err)
	}
	if prev != "" {
		deps.Observer.inc(deps.Invalidated)
		if err := blacklistAccess(ctx, prev, deps); err != nil {
			return n, err
		}
	}
	return n, nil
}

// blacklistAccess records the jti of a still-valid access token. Tokens
// that no longer parse are already unusable.
func blacklistAccess(ctx context.Context, access string, deps SessionRevoker) error {
	if deps.Access == nil {
		return nil
	}
	claims, err := deps.Access.ParseAccess(access)
	if err != nil {
		return nil
	}
	if err := deps.Sessions.Blacklist(ctx, claims.ID, claims.Remaining(deps.Observer.now())); err != nil {
		return deps.Errors.internal("blacklist access token", err)
	}
	return nil
}

// LogoutRequest is the flow-local logout input. RefreshToken is optional.
type LogoutRequest struct {
	AccessToken  string
	RefreshToken string
	IP           string
}

// LogoutMetrics carries metric IDs used by the logout flows.
type LogoutMetrics struct {
	Logout    int
	LogoutAll int
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	Revoker   SessionRevoker
	HashToken func(string) string
	Metrics   LogoutMetrics
}

// RunLogout ends the session behind an access token. The token's jti is
// blacklisted, both mapping directions are deleted if they still point at
// this token, and the refresh token is revoked when given.
func RunLogout(ctx context.Context, req LogoutRequest, deps LogoutDeps) error {
	r := deps.Revoker
	if r.Access == nil || r.Sessions == nil || r.RefreshTokens == nil || deps.HashToken == nil {
		return r.Errors.EngineNotReady
	}

	claims, err := r.Access.ParseAccess(strings.TrimSpace(req.AccessToken))
	if err != nil {
		return r.Errors.InvalidToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return r.Errors.InvalidToken
	}

	now := r.Observer.now()
	if err := r.Sessions.Blacklist(ctx, claims.ID, claims.Remaining(now)); err != nil {
		return r.Errors.internal("blacklist access token", err)
	}

	removed, err := r.Sessions.InvalidateSessionIf(ctx, userID, strings.TrimSpace(req.AccessToken))
	if err != nil {
		return r.Errors.internal("invalidate session", err)
	}
	if removed {
		r.Observer.inc(r.Invalidated)
	}

	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		token, err := r.RefreshTokens.FindRefreshTokenByHash(ctx, deps.HashToken(raw))
		if err != nil {
			return r.Errors.internal("find refresh token", err)
		}
		if token != nil && token.UserID == userID {
			if _, err := r.RefreshTokens.RevokeRefreshToken(ctx, token.ID, now); err != nil {
				return r.Errors.internal("revoke refresh token", err)
			}
		}
	}

	r.Observer.inc(deps.Metrics.Logout)
	r.Observer.emit(ctx, audit.Event{
		EventType: audit.EventLogout,
		UserID:    userID.String(),
		IP:        req.IP,
		Success:   true,
	})
	return nil
}

// RunLogoutAll revokes every session of userID.
func RunLogoutAll(ctx context.Context, userID uuid.UUID, deps LogoutDeps) error {
	r := deps.Revoker
	if r.RefreshTokens == nil {
		return r.Errors.EngineNotReady
	}
	if userID == uuid.Nil {
		return r.Errors.Validation
	}

	n, err := RunRevokeUserSessions(ctx, userID, r)
	if err != nil {
		return err
	}

	r.Observer.inc(deps.Metrics.LogoutAll)
	r.Observer.emit(ctx, audit.Event{
		EventType: audit.EventSessionsRevoked,
		UserID:    userID.String(),
		Success:   true,
		Metadata:  map[string]string{"refresh_tokens": strconv.FormatInt(n, 10)},
	})
	return nil
}
