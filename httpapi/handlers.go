package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MrEthical07/credauth"
)

// bind decodes a JSON body. It renders the 400 itself and reports whether
// the handler may continue.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		renderBadRequest(c, "malformed request body")
		return false
	}
	return true
}

func userIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		renderBadRequest(c, "user id must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

func (h *handler) login(c *gin.Context) {
	var req credauth.LoginRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.engine.Login(c.Request.Context(), req)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) refresh(c *gin.Context) {
	var req credauth.RefreshTokenRequest
	if !bind(c, &req) {
		return
	}
	resp, err := h.engine.Refresh(c.Request.Context(), req)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// logout takes an optional {"refresh_token"} body; an empty body only ends
// the access session.
func (h *handler) logout(c *gin.Context) {
	var req credauth.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		renderBadRequest(c, "malformed request body")
		return
	}
	if err := h.engine.Logout(c.Request.Context(), c.GetString(accessTokenKey), req.RefreshToken); err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) sendOtp(c *gin.Context) {
	var req credauth.SendOtpRequest
	if !bind(c, &req) {
		return
	}
	if err := h.engine.SendOtp(c.Request.Context(), req); err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *handler) verifyOtp(c *gin.Context) {
	var req credauth.VerifyOtpRequest
	if !bind(c, &req) {
		return
	}
	if err := h.engine.VerifyOtp(c.Request.Context(), req); err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// requestPasswordReset never writes the token; it only reaches the user
// through the notification.
func (h *handler) requestPasswordReset(c *gin.Context) {
	var req credauth.PasswordResetRequest
	if !bind(c, &req) {
		return
	}
	if _, err := h.engine.RequestPasswordReset(c.Request.Context(), req); err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *handler) confirmPasswordReset(c *gin.Context) {
	var req credauth.PasswordResetConfirmRequest
	if !bind(c, &req) {
		return
	}
	if err := h.engine.ConfirmPasswordReset(c.Request.Context(), req); err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listSecurityQuestions(c *gin.Context) {
	qs, err := h.engine.ListSecurityQuestions(c.Request.Context())
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": qs})
}

func (h *handler) userSecurityQuestions(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	qs, err := h.engine.UserSecurityQuestions(c.Request.Context(), userID)
	if err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": qs})
}

// setSecurityQuestions lets a user replace only their own answers.
func (h *handler) setSecurityQuestions(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	if claims := claimsFrom(c); claims == nil || claims.UserID != userID {
		c.AbortWithStatusJSON(http.StatusForbidden, errorBody{
			Error:   "forbidden",
			Message: "token subject does not match user",
		})
		return
	}

	var req credauth.SetSecurityQuestionsRequest
	if !bind(c, &req) {
		return
	}
	if err := h.engine.SetSecurityQuestions(c.Request.Context(), userID, req); err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) verifySecurityQuestions(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var req credauth.VerifySecurityQuestionsRequest
	if !bind(c, &req) {
		return
	}
	if err := h.engine.VerifySecurityQuestions(c.Request.Context(), userID, req); err != nil {
		renderError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
