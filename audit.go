package credauth

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/credauth/internal/audit"
)

// AuditEvent is one security-relevant outcome. Failure reasons travel in
// Reason; they never reach API callers.
type AuditEvent = audit.Event

// AuditSink receives events from the dispatcher goroutine.
type AuditSink = audit.Sink

// Audit event types.
const (
	AuditLoginSuccess            = audit.EventLoginSuccess
	AuditLoginFailure            = audit.EventLoginFailure
	AuditLoginRateLimited        = audit.EventLoginRateLimited
	AuditRefreshSuccess          = audit.EventRefreshSuccess
	AuditRefreshInvalid          = audit.EventRefreshInvalid
	AuditOTPSent                 = audit.EventOTPSent
	AuditOTPVerified             = audit.EventOTPVerified
	AuditOTPFailed               = audit.EventOTPFailed
	AuditPasswordResetRequest    = audit.EventPasswordResetRequest
	AuditPasswordResetConfirm    = audit.EventPasswordResetConfirm
	AuditSecurityQuestionsSet    = audit.EventSecurityQuestionsSet
	AuditSecurityQuestionsVerify = audit.EventSecurityQuestionsVerify
	AuditLogout                  = audit.EventLogout
	AuditSessionsRevoked         = audit.EventSessionsRevoked
)

type NoOpSink = audit.NoOpSink

// NewChannelSink buffers events for a consumer reading Events().
func NewChannelSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink writes one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewSlogSink logs events through logger.
func NewSlogSink(logger *slog.Logger) *audit.SlogSink {
	return audit.NewSlogSink(logger)
}
