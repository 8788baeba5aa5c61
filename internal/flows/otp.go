package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/internal/policy"
	"github.com/MrEthical07/credauth/internal/rate"
	"github.com/MrEthical07/credauth/notify"
	"github.com/MrEthical07/credauth/session"
)

// IdentifierType is the declared kind of an OTP or reset identifier.
type IdentifierType string

const (
	IdentifierEmail IdentifierType = "email"
	IdentifierPhone IdentifierType = "phone"
)

// SendOTPRequest is the flow-local OTP send input.
type SendOTPRequest struct {
	Identifier string
	Type       IdentifierType
	IP         string
}

// VerifyOTPRequest is the flow-local OTP verify input.
type VerifyOTPRequest struct {
	Identifier string
	Code       string
	IP         string
}

// OTPSendLimiter consumes one send from an identifier's window.
type OTPSendLimiter interface {
	AllowOTPSend(ctx context.Context, identifier string) error
}

// OTPMetrics carries metric IDs used by the OTP flows.
type OTPMetrics struct {
	Sent          int
	RateLimited   int
	Verified      int
	VerifyFailure int
}

// OTPDeps captures OTP send/verify dependencies.
type OTPDeps struct {
	Limiter           OTPSendLimiter
	Cache             OTPCache
	Users             credential.UserStore
	Publisher         notify.Publisher
	NewOTP            func(digits int) (string, error)
	EqualCodes        func(a, b string) bool
	Digits            int
	TTL               time.Duration
	MaxVerifyAttempts int
	Metrics           OTPMetrics
	Errors            Errors
	Observer          Observer
}

func (d OTPDeps) ready() bool {
	return d.Cache != nil && d.Users != nil && d.NewOTP != nil && d.EqualCodes != nil
}

// RunSendOTP issues a code to identifier. The code is dropped again if the
// publisher does not accept the message.
func RunSendOTP(ctx context.Context, req SendOTPRequest, deps OTPDeps) error {
	if !deps.ready() || deps.Limiter == nil || deps.Publisher == nil {
		return deps.Errors.EngineNotReady
	}

	identifier := policy.CanonicalIdentifier(req.Identifier)
	if identifier == "" {
		return deps.Errors.Validation
	}
	if req.Type != IdentifierEmail && req.Type != IdentifierPhone {
		return deps.Errors.Validation
	}

	if err := deps.Limiter.AllowOTPSend(ctx, identifier); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			deps.Observer.inc(deps.Metrics.RateLimited)
			deps.Observer.emit(ctx, audit.Event{
				EventType:  audit.EventOTPFailed,
				Identifier: identifier,
				IP:         req.IP,
				Reason:     "rate_limited",
			})
			return deps.Errors.OTPRateLimited
		}
		return deps.Errors.internal("otp send limiter", err)
	}

	if req.Type == IdentifierEmail && !policy.ValidEmail(identifier) {
		return deps.Errors.InvalidEmail
	}
	if req.Type == IdentifierPhone && !policy.ValidPhone(identifier) {
		return deps.Errors.InvalidPhone
	}

	code, err := deps.NewOTP(deps.Digits)
	if err != nil {
		return deps.Errors.internal("generate otp", err)
	}
	if err := deps.Cache.PutOTP(ctx, identifier, code, deps.TTL); err != nil {
		return deps.Errors.internal("store otp", err)
	}

	if req.Type == IdentifierEmail {
		err = deps.Publisher.SendEmailOTP(ctx, identifier, code)
	} else {
		err = deps.Publisher.SendSMSOTP(ctx, identifier, code)
	}
	if err != nil {
		if delErr := deps.Cache.DeleteOTP(ctx, identifier); delErr != nil {
			deps.Observer.warn("credauth: drop unsent otp failed", "error", delErr)
		}
		return deps.Errors.internal("publish otp", err)
	}

	deps.Observer.inc(deps.Metrics.Sent)
	deps.Observer.emit(ctx, audit.Event{
		EventType:  audit.EventOTPSent,
		Identifier: identifier,
		IP:         req.IP,
		Success:    true,
		Metadata:   map[string]string{"channel": string(req.Type)},
	})
	return nil
}

// RunVerifyOTP checks code against the pending one. A match deletes the
// code before the owning user, if any, is marked verified.
func RunVerifyOTP(ctx context.Context, req VerifyOTPRequest, deps OTPDeps) error {
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}

	identifier := policy.CanonicalIdentifier(req.Identifier)
	if identifier == "" || req.Code == "" {
		return deps.Errors.Validation
	}

	code := strings.TrimSpace(req.Code)
	result, err := deps.Cache.ConsumeOTP(ctx, identifier, func(stored string) bool {
		return deps.EqualCodes(stored, code)
	})
	if err != nil {
		return deps.Errors.internal("consume otp", err)
	}

	switch result {
	case session.OTPMissing:
		otpFailed(ctx, deps, req, identifier, "not_found")
		return deps.Errors.OTPNotFound
	case session.OTPMismatch:
		n, err := deps.Cache.RecordOTPFailure(ctx, identifier, deps.TTL)
		if err != nil {
			return deps.Errors.internal("record otp failure", err)
		}
		if deps.MaxVerifyAttempts > 0 && n >= int64(deps.MaxVerifyAttempts) {
			if err := deps.Cache.DeleteOTP(ctx, identifier); err != nil {
				return deps.Errors.internal("invalidate otp", err)
			}
		}
		otpFailed(ctx, deps, req, identifier, "mismatch")
		return deps.Errors.InvalidOTP
	}

	user, err := findUserByIdentifier(ctx, deps.Users, identifier)
	if err != nil {
		return deps.Errors.internal("find user", err)
	}
	userID := ""
	if user != nil {
		userID = user.ID.String()
		if !user.IsVerified {
			user.MarkVerified(deps.Observer.now())
			if _, err := deps.Users.UpdateUser(ctx, user); err != nil {
				return deps.Errors.internal("update user", err)
			}
		}
	}

	deps.Observer.inc(deps.Metrics.Verified)
	deps.Observer.emit(ctx, audit.Event{
		EventType:  audit.EventOTPVerified,
		UserID:     userID,
		Identifier: identifier,
		IP:         req.IP,
		Success:    true,
	})
	return nil
}

func otpFailed(ctx context.Context, deps OTPDeps, req VerifyOTPRequest, identifier, reason string) {
	deps.Observer.inc(deps.Metrics.VerifyFailure)
	deps.Observer.emit(ctx, audit.Event{
		EventType:  audit.EventOTPFailed,
		Identifier: identifier,
		IP:         req.IP,
		Reason:     reason,
	})
}
