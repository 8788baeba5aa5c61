package internaldefs

import (
	"github.com/MrEthical07/credauth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   credauth.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   credauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is exported next to the engine counters.
const (
	AuditDroppedName = "credauth_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped because the dispatcher buffer was full."
)

// CounterDefs lists every counter in MetricID order.
var CounterDefs = []CounterDef{
	{ID: credauth.MetricLoginSuccess, Name: "credauth_login_success_total", Help: "Successful logins."},
	{ID: credauth.MetricLoginFailure, Name: "credauth_login_failure_total", Help: "Failed logins past the rate gate."},
	{ID: credauth.MetricLoginRateLimited, Name: "credauth_login_rate_limited_total", Help: "Logins refused by the rate gate."},
	{ID: credauth.MetricAccountLocked, Name: "credauth_account_locked_total", Help: "Accounts locked after repeated bad passwords."},
	{ID: credauth.MetricRefreshSuccess, Name: "credauth_refresh_success_total", Help: "Refresh tokens redeemed."},
	{ID: credauth.MetricRefreshFailure, Name: "credauth_refresh_failure_total", Help: "Refresh redemptions refused."},
	{ID: credauth.MetricRefreshReuseDetected, Name: "credauth_refresh_reuse_detected_total", Help: "Redemptions of an already revoked refresh token."},
	{ID: credauth.MetricSessionCreated, Name: "credauth_session_created_total", Help: "Sessions opened."},
	{ID: credauth.MetricSessionInvalidated, Name: "credauth_session_invalidated_total", Help: "Cached sessions dropped."},
	{ID: credauth.MetricLogout, Name: "credauth_logout_total", Help: "Single-session logouts."},
	{ID: credauth.MetricLogoutAll, Name: "credauth_logout_all_total", Help: "Revoke-all-sessions operations."},
	{ID: credauth.MetricOTPSent, Name: "credauth_otp_sent_total", Help: "One-time codes published."},
	{ID: credauth.MetricOTPRateLimited, Name: "credauth_otp_rate_limited_total", Help: "Code sends refused by the send cap."},
	{ID: credauth.MetricOTPVerified, Name: "credauth_otp_verified_total", Help: "One-time codes verified."},
	{ID: credauth.MetricOTPVerifyFailure, Name: "credauth_otp_verify_failure_total", Help: "Failed code verifications."},
	{ID: credauth.MetricPasswordResetRequest, Name: "credauth_password_reset_request_total", Help: "Password reset requests."},
	{ID: credauth.MetricPasswordResetConfirmSuccess, Name: "credauth_password_reset_confirm_success_total", Help: "Completed password resets."},
	{ID: credauth.MetricPasswordResetConfirmFailure, Name: "credauth_password_reset_confirm_failure_total", Help: "Refused password reset confirmations."},
	{ID: credauth.MetricSecurityQuestionsSet, Name: "credauth_security_questions_set_total", Help: "Security question sets stored."},
	{ID: credauth.MetricSecurityQuestionsVerifySuccess, Name: "credauth_security_questions_verify_success_total", Help: "Security question checks passed."},
	{ID: credauth.MetricSecurityQuestionsVerifyFailure, Name: "credauth_security_questions_verify_failure_total", Help: "Security question checks failed."},
	{ID: credauth.MetricValidateSuccess, Name: "credauth_validate_success_total", Help: "Access tokens accepted."},
	{ID: credauth.MetricValidateFailure, Name: "credauth_validate_failure_total", Help: "Access tokens rejected."},
	{ID: credauth.MetricTokenBlacklisted, Name: "credauth_token_blacklisted_total", Help: "Access tokens rejected by the blacklist."},
}

var HistogramDefs = []HistogramDef{
	{ID: credauth.MetricValidateLatency, Name: "credauth_validate_latency_seconds", Help: "Access token validation latency."},
}

// HistogramBounds are the upper bounds of the engine's eight buckets, in
// seconds. HistogramBoundSuffix is the same list made safe for
// instrument names.
var (
	HistogramBounds      = [8]string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}
	HistogramBoundSuffix = [8]string{"0_005", "0_01", "0_025", "0_05", "0_1", "0_25", "0_5", "inf"}
)

// CumulativeBuckets turns per-bucket snapshot counts into running totals.
// Short or missing input is padded with zeros.
func CumulativeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
