// Package middleware adapts credauth access-token validation to net/http.
//
// [Guard] reads the Authorization header, calls Engine.ValidateAccessToken
// and stores the accepted claims on the request context, where
// [ClaimsFromContext] finds them. The Gin router in httpapi reuses
// [BearerToken] and [WithClaims].
//
// This package makes no decision beyond pass or reject.
package middleware
