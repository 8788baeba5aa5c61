package audit

// Event types emitted by the engine.
const (
	EventLoginSuccess            = "login_success"
	EventLoginFailure            = "login_failure"
	EventLoginRateLimited        = "login_rate_limited"
	EventRefreshSuccess          = "refresh_success"
	EventRefreshInvalid          = "refresh_invalid"
	EventOTPSent                 = "otp_sent"
	EventOTPVerified             = "otp_verified"
	EventOTPFailed               = "otp_failed"
	EventPasswordResetRequest    = "password_reset_request"
	EventPasswordResetConfirm    = "password_reset_confirm"
	EventSecurityQuestionsSet    = "security_questions_set"
	EventSecurityQuestionsVerify = "security_questions_verify"
	EventLogout                  = "logout"
	EventSessionsRevoked         = "sessions_revoked"
)
