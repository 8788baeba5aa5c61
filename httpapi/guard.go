package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrEthical07/credauth"
	"github.com/MrEthical07/credauth/middleware"
)

const (
	claimsKey      = "credauth.claims"
	accessTokenKey = "credauth.access_token"
)

// requireBearer validates the Authorization header and stores the claims
// and raw token on the gin context.
func (h *handler) requireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{
				Error:   "invalid_token",
				Message: "missing or malformed bearer token",
			})
			return
		}

		claims, err := h.engine.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			renderError(c, h.logger, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Set(accessTokenKey, token)
		c.Request = c.Request.WithContext(middleware.WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *credauth.AccessClaims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*credauth.AccessClaims)
	return claims
}
