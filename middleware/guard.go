package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/credauth"
)

// Validator is the part of *credauth.Engine the guards need.
type Validator interface {
	ValidateAccessToken(ctx context.Context, token string) (*credauth.AccessClaims, error)
}

type claimsContextKey struct{}

// WithClaims stores validated claims on ctx.
func WithClaims(ctx context.Context, claims *credauth.AccessClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*credauth.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*credauth.AccessClaims)
	return claims, ok
}

// Guard rejects requests without a valid bearer access token. The engine's
// ValidationMode decides how much cache state is consulted.
func Guard(v Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.ValidateAccessToken(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(value string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
