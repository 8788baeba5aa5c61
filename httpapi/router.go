package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MrEthical07/credauth"
)

// Engine is the surface of *credauth.Engine the handlers call.
type Engine interface {
	Login(ctx context.Context, req credauth.LoginRequest) (*credauth.LoginResponse, error)
	Refresh(ctx context.Context, req credauth.RefreshTokenRequest) (*credauth.LoginResponse, error)
	ValidateAccessToken(ctx context.Context, token string) (*credauth.AccessClaims, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	SendOtp(ctx context.Context, req credauth.SendOtpRequest) error
	VerifyOtp(ctx context.Context, req credauth.VerifyOtpRequest) error
	RequestPasswordReset(ctx context.Context, req credauth.PasswordResetRequest) (string, error)
	ConfirmPasswordReset(ctx context.Context, req credauth.PasswordResetConfirmRequest) error
	SetSecurityQuestions(ctx context.Context, userID uuid.UUID, req credauth.SetSecurityQuestionsRequest) error
	VerifySecurityQuestions(ctx context.Context, userID uuid.UUID, req credauth.VerifySecurityQuestionsRequest) error
	ListSecurityQuestions(ctx context.Context) ([]credauth.SecurityQuestion, error)
	UserSecurityQuestions(ctx context.Context, userID uuid.UUID) ([]credauth.SecurityQuestion, error)
}

// Options tune the router. The zero value is usable.
type Options struct {
	// Logger receives one line per request and the cause of every 500.
	Logger *slog.Logger
	// Metrics, when set, is mounted at GET /metrics.
	Metrics http.Handler
	// TrustedProxies is passed to gin; nil trusts none, so ClientIP is the
	// socket peer.
	TrustedProxies []string
}

type handler struct {
	engine Engine
	logger *slog.Logger
}

// NewRouter builds the gin engine serving the /auth API.
func NewRouter(engine Engine, opts Options) (*gin.Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(gin.Recovery(), logRequests(logger), requestContext())

	h := &handler{engine: engine, logger: logger}
	guard := h.requireBearer()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	auth := r.Group("/auth")
	{
		auth.POST("/login", h.login)
		auth.POST("/refresh", h.refresh)
		auth.POST("/logout", guard, h.logout)

		auth.POST("/otp/send", h.sendOtp)
		auth.POST("/otp/verify", h.verifyOtp)

		auth.POST("/password/reset", h.requestPasswordReset)
		auth.POST("/password/reset/confirm", h.confirmPasswordReset)

		auth.GET("/security-questions", h.listSecurityQuestions)
		auth.GET("/users/:id/security-questions", h.userSecurityQuestions)
		auth.PUT("/users/:id/security-questions", guard, h.setSecurityQuestions)
		auth.POST("/users/:id/security-questions/verify", h.verifySecurityQuestions)
	}

	return r, nil
}

// requestContext copies the caller's IP and user agent onto the request
// context, where the engine reads them.
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := credauth.WithClientIP(c.Request.Context(), c.ClientIP())
		ctx = credauth.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func logRequests(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
