package credauth

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/internal"
	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/internal/flows"
	"github.com/MrEthical07/credauth/internal/rate"
	"github.com/MrEthical07/credauth/jwt"
	"github.com/MrEthical07/credauth/notify"
	"github.com/MrEthical07/credauth/password"
	"github.com/MrEthical07/credauth/session"
)

// Builder assembles an Engine. A Builder is single-use: Build fails on the
// second call.
type Builder struct {
	config    Config
	store     credential.Store
	redis     redis.UniversalClient
	cache     session.Cache
	publisher notify.Publisher
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the Credential Store. Required.
func (b *Builder) WithStore(store credential.Store) *Builder {
	b.store = store
	return b
}

// WithRedis backs the session cache with client. Either WithRedis or
// WithCache is required; WithCache wins when both are set.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

func (b *Builder) WithCache(cache session.Cache) *Builder {
	b.cache = cache
	return b
}

// WithPublisher sets where one-time codes and reset links are sent. The
// default discards every message.
func (b *Builder) WithPublisher(p notify.Publisher) *Builder {
	b.publisher = p
	return b
}

// WithLogger sets the warning logger. The default discards.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every flow.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.store == nil {
		return nil, errors.New("credential store required")
	}

	cache := b.cache
	if cache == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or session cache required")
		}
		cache = session.NewRedisCache(b.redis)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	publisher := b.publisher
	if publisher == nil {
		publisher = notify.Discard{}
	}

	// -------- TOKENS --------
	access, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		KeyID:         cfg.JWT.KeyID,
	})
	if err != nil {
		return nil, err
	}

	// -------- HASHING --------
	argon, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	hasher := password.NewPool(argon, cfg.Password.Workers)
	pwPolicy := password.DefaultPolicy()
	pwPolicy.MinLength = cfg.Password.MinLength
	pwPolicy.MaxLength = cfg.Password.MaxLength

	sessions := session.NewStore(cache)

	engine := &Engine{
		config:   cloneConfig(cfg),
		store:    b.store,
		sessions: sessions,
		access:   access,
		audit:    audit.NewDispatcher(audit.Config(cfg.Audit), b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
		logger:   logger,
		now:      time.Now,
	}

	limiter := rate.New(b.store, sessions, rate.Config{
		LoginWindow:           cfg.Login.Window,
		MaxIdentifierFailures: cfg.Login.MaxIdentifierFailures,
		MaxIPFailures:         cfg.Login.MaxIPFailures,
		OTPWindow:             cfg.OTP.SendWindow,
		MaxOTPSends:           cfg.OTP.MaxSends,
	}, engine.now)

	errs := flowErrors()
	obs := flows.Observer{
		Now:       engine.now,
		MetricInc: engine.metrics.incFunc(),
		Emit:      engine.audit.Emit,
		Warn:      logger.Warn,
	}

	revoker := flows.SessionRevoker{
		RefreshTokens: b.store,
		Sessions:      sessions,
		Access:        access,
		Invalidated:   int(MetricSessionInvalidated),
		Errors:        errs,
		Observer:      obs,
	}
	issue := flows.IssueDeps{
		Access:         access,
		RefreshTokens:  b.store,
		Sessions:       sessions,
		RefreshTTL:     cfg.JWT.RefreshTTL,
		NewOpaqueToken: internal.NewOpaqueToken,
		HashToken:      internal.HashOpaqueToken,
		SessionCreated: int(MetricSessionCreated),
		Errors:         errs,
		Observer:       obs,
	}

	engine.flows = flows.New(flows.Deps{
		Login: flows.LoginDeps{
			Users:     b.store,
			Attempts:  b.store,
			Gate:      limiter,
			Passwords: hasher,
			Lockout:   cfg.Login.lockout(),
			Issue:     issue,
			Metrics: flows.LoginMetrics{
				Success:       int(MetricLoginSuccess),
				Failure:       int(MetricLoginFailure),
				RateLimited:   int(MetricLoginRateLimited),
				AccountLocked: int(MetricAccountLocked),
			},
			Errors:   errs,
			Observer: obs,
		},
		Refresh: flows.RefreshDeps{
			Users:         b.store,
			RefreshTokens: b.store,
			HashToken:     internal.HashOpaqueToken,
			Issue:         issue,
			Metrics: flows.RefreshMetrics{
				Success:       int(MetricRefreshSuccess),
				Failure:       int(MetricRefreshFailure),
				ReuseDetected: int(MetricRefreshReuseDetected),
			},
			Errors:   errs,
			Observer: obs,
		},
		OTP: flows.OTPDeps{
			Limiter:           limiter,
			Cache:             sessions,
			Users:             b.store,
			Publisher:         publisher,
			NewOTP:            internal.NewOTP,
			EqualCodes:        internal.EqualCodes,
			Digits:            cfg.OTP.Digits,
			TTL:               cfg.OTP.TTL,
			MaxVerifyAttempts: cfg.OTP.MaxVerifyAttempts,
			Metrics: flows.OTPMetrics{
				Sent:          int(MetricOTPSent),
				RateLimited:   int(MetricOTPRateLimited),
				Verified:      int(MetricOTPVerified),
				VerifyFailure: int(MetricOTPVerifyFailure),
			},
			Errors:   errs,
			Observer: obs,
		},
		PasswordReset: flows.PasswordResetDeps{
			Users:          b.store,
			ResetTokens:    b.store,
			Revoker:        revoker,
			Passwords:      hasher,
			CheckPassword:  pwPolicy.Check,
			Publisher:      publisher,
			NewOpaqueToken: internal.NewOpaqueToken,
			HashToken:      internal.HashOpaqueToken,
			TTL:            cfg.PasswordReset.TokenTTL,
			Metrics: flows.PasswordResetMetrics{
				Request:        int(MetricPasswordResetRequest),
				ConfirmSuccess: int(MetricPasswordResetConfirmSuccess),
				ConfirmFailure: int(MetricPasswordResetConfirmFailure),
			},
			Errors:   errs,
			Observer: obs,
		},
		SecurityQuestions: flows.SecurityQuestionDeps{
			Users:   b.store,
			Catalog: b.store,
			Answers: b.store,
			Hasher:  hasher,
			Rules:   cfg.SecurityQuestions.rules(),

			Throttle:          sessions,
			MaxVerifyFailures: cfg.SecurityQuestions.MaxVerifyFailures,
			VerifyWindow:      cfg.SecurityQuestions.VerifyWindow,

			Metrics: flows.SecurityQuestionMetrics{
				Set:           int(MetricSecurityQuestionsSet),
				VerifySuccess: int(MetricSecurityQuestionsVerifySuccess),
				VerifyFailure: int(MetricSecurityQuestionsVerifyFailure),
			},
			Errors:   errs,
			Observer: obs,
		},
		Logout: flows.LogoutDeps{
			Revoker:   revoker,
			HashToken: internal.HashOpaqueToken,
			Metrics: flows.LogoutMetrics{
				Logout:    int(MetricLogout),
				LogoutAll: int(MetricLogoutAll),
			},
		},
		Validate: flows.ValidateDeps{
			Access:   access,
			Sessions: sessions,
			Metrics: flows.ValidateMetrics{
				Success:     int(MetricValidateSuccess),
				Failure:     int(MetricValidateFailure),
				Blacklisted: int(MetricTokenBlacklisted),
			},
			Errors:   errs,
			Observer: obs,
		},
	})

	b.built = true

	return engine, nil
}

func flowErrors() flows.Errors {
	return flows.Errors{
		EngineNotReady:         ErrEngineNotReady,
		Internal:               ErrInternal,
		Validation:             ErrValidation,
		RateLimited:            ErrRateLimitExceeded,
		OTPRateLimited:         ErrOtpRateLimitExceeded,
		InvalidCredentials:     ErrInvalidCredentials,
		UserNotFound:           ErrUserNotFound,
		InvalidRefreshToken:    ErrInvalidRefreshToken,
		OTPNotFound:            ErrOtpNotFound,
		InvalidOTP:             ErrInvalidOtp,
		InvalidEmail:           ErrInvalidEmail,
		InvalidPhone:           ErrInvalidPhone,
		InvalidResetToken:      ErrInvalidResetToken,
		SecurityQuestionFailed: ErrSecurityQuestionFailed,
		TokenExpired:           ErrTokenExpired,
		InvalidToken:           ErrInvalidToken,
		TokenBlacklisted:       ErrTokenBlacklisted,
		WeakPassword:           weakPassword,
	}
}
