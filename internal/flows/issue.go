package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/jwt"
)

// IssueDeps mints a session for an already-authenticated user. Login and
// refresh share it.
type IssueDeps struct {
	Access         AccessIssuer
	RefreshTokens  credential.RefreshTokenStore
	Sessions       SessionCache
	RefreshTTL     time.Duration
	NewOpaqueToken func() (string, error)
	HashToken      func(string) string
	SessionCreated int
	Errors         Errors
	Observer       Observer
}

// RunIssueSession signs an access token, persists the hash of a new refresh
// token and binds the access token to the user in the cache. The raw
// refresh value only lives in the returned pair.
func RunIssueSession(ctx context.Context, user *credential.User, device credential.DeviceContext, deps IssueDeps) (TokenPair, error) {
	access, _, err := deps.Access.CreateAccess(jwt.Subject{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
	if err != nil {
		return TokenPair{}, deps.Errors.internal("sign access token", err)
	}

	raw, err := deps.NewOpaqueToken()
	if err != nil {
		return TokenPair{}, deps.Errors.internal("generate refresh token", err)
	}
	token := credential.NewRefreshToken(user.ID, deps.HashToken(raw), device, deps.RefreshTTL, deps.Observer.now())
	if _, err := deps.RefreshTokens.CreateRefreshToken(ctx, token); err != nil {
		return TokenPair{}, deps.Errors.internal("store refresh token", err)
	}

	ttl := deps.Access.AccessTTL()
	if err := deps.Sessions.PutSession(ctx, user.ID, access, ttl); err != nil {
		return TokenPair{}, deps.Errors.internal("cache session", err)
	}
	deps.Observer.inc(deps.SessionCreated)

	return TokenPair{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    int64(ttl / time.Second),
	}, nil
}
