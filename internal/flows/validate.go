package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/credauth/jwt"
)

// ValidateMode selects how much cache state validation consults.
type ValidateMode int

const (
	// ValidateJWTOnly checks signature and expiry only.
	ValidateJWTOnly ValidateMode = iota
	// ValidateHybrid also checks the blacklist.
	ValidateHybrid
	// ValidateStrict also requires the token to be the user's cached session.
	ValidateStrict
)

// ValidateMetrics carries metric IDs used by validation.
type ValidateMetrics struct {
	Success     int
	Failure     int
	Blacklisted int
}

// ValidateDeps captures access-token validation dependencies.
type ValidateDeps struct {
	Access   AccessParser
	Sessions SessionCache
	Metrics  ValidateMetrics
	Errors   Errors
	Observer Observer
}

// RunValidate verifies an access token under mode and returns its claims.
func RunValidate(ctx context.Context, token string, mode ValidateMode, deps ValidateDeps) (*jwt.AccessClaims, error) {
	if deps.Access == nil || (mode != ValidateJWTOnly && deps.Sessions == nil) {
		return nil, deps.Errors.EngineNotReady
	}

	token = strings.TrimSpace(token)
	claims, err := deps.Access.ParseAccess(token)
	if err != nil {
		deps.Observer.inc(deps.Metrics.Failure)
		if errors.Is(err, jwt.ErrExpired) {
			return nil, deps.Errors.TokenExpired
		}
		return nil, deps.Errors.InvalidToken
	}
	if mode == ValidateJWTOnly {
		deps.Observer.inc(deps.Metrics.Success)
		return claims, nil
	}

	blacklisted, err := deps.Sessions.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, deps.Errors.internal("check blacklist", err)
	}
	if blacklisted {
		deps.Observer.inc(deps.Metrics.Blacklisted)
		return nil, deps.Errors.TokenBlacklisted
	}

	if mode == ValidateStrict {
		userID, err := claims.UserID()
		if err != nil {
			deps.Observer.inc(deps.Metrics.Failure)
			return nil, deps.Errors.InvalidToken
		}
		active, err := deps.Sessions.IsActiveSession(ctx, userID, token)
		if err != nil {
			return nil, deps.Errors.internal("check session", err)
		}
		if !active {
			deps.Observer.inc(deps.Metrics.Failure)
			return nil, deps.Errors.InvalidToken
		}
	}

	deps.Observer.inc(deps.Metrics.Success)
	return claims, nil
}
