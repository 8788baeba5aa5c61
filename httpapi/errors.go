package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrEthical07/credauth"
)

type errorClass struct {
	err    error
	status int
	kind   string
}

// Order matters only where one error matches several sentinels; the
// password policy error is checked before the generic validation one.
var errorClasses = []errorClass{
	{credauth.ErrRateLimitExceeded, http.StatusTooManyRequests, "rate_limit_exceeded"},
	{credauth.ErrOtpRateLimitExceeded, http.StatusTooManyRequests, "otp_rate_limit_exceeded"},

	{credauth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{credauth.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
	{credauth.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{credauth.ErrTokenBlacklisted, http.StatusUnauthorized, "token_blacklisted"},
	{credauth.ErrInvalidRefreshToken, http.StatusUnauthorized, "invalid_refresh_token"},

	{credauth.ErrAccountLocked, http.StatusForbidden, "account_locked"},
	{credauth.ErrAccountNotVerified, http.StatusForbidden, "account_not_verified"},
	{credauth.ErrAccountInactive, http.StatusForbidden, "account_inactive"},

	{credauth.ErrOtpExpired, http.StatusBadRequest, "otp_expired"},
	{credauth.ErrInvalidOtp, http.StatusBadRequest, "invalid_otp"},
	{credauth.ErrWeakPassword, http.StatusBadRequest, "weak_password"},
	{credauth.ErrInvalidResetToken, http.StatusBadRequest, "invalid_reset_token"},
	{credauth.ErrSecurityQuestionFailed, http.StatusBadRequest, "security_question_failed"},
	{credauth.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{credauth.ErrInvalidPhone, http.StatusBadRequest, "invalid_phone"},
	{credauth.ErrValidation, http.StatusBadRequest, "validation"},

	{credauth.ErrOtpNotFound, http.StatusNotFound, "otp_not_found"},
	{credauth.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
}

func classify(err error) (int, string) {
	for _, c := range errorClasses {
		if errors.Is(err, c.err) {
			return c.status, c.kind
		}
	}
	return http.StatusInternalServerError, "internal"
}

// StatusFor maps an engine error to its HTTP status. Unknown errors and
// wrapped infrastructure failures are 500.
func StatusFor(err error) int {
	status, _ := classify(err)
	return status
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// renderError writes {"error","message"}. Server errors carry a generic
// message; their cause goes to the log only.
func renderError(c *gin.Context, logger *slog.Logger, err error) {
	status, kind := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, errorBody{Error: kind, Message: msg})
}

func renderBadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "validation", Message: msg})
}
