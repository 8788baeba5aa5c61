package credauth

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// configEnv holds raw env values. Names are relative to the prefix passed
// to LoadConfigFromEnv.
type configEnv struct {
	AccessTTL     time.Duration `env:"JWT_ACCESS_TTL"      envDefault:"1h"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_TTL"     envDefault:"720h"`
	SigningMethod string        `env:"JWT_SIGNING_METHOD"  envDefault:"hs256"`
	Secret        string        `env:"JWT_SECRET"`
	PrivateKeyPEM string        `env:"JWT_PRIVATE_KEY"`
	PublicKeyPEM  string        `env:"JWT_PUBLIC_KEY"`
	Issuer        string        `env:"JWT_ISSUER"          envDefault:"credauth"`
	Audience      string        `env:"JWT_AUDIENCE"`
	Leeway        time.Duration `env:"JWT_LEEWAY"`
	KeyID         string        `env:"JWT_KEY_ID"`

	MaxFailedAttempts     int           `env:"LOGIN_MAX_FAILED_ATTEMPTS"     envDefault:"5"`
	LockoutPolicy         string        `env:"LOGIN_LOCKOUT_POLICY"          envDefault:"fixed"`
	LockoutDuration       time.Duration `env:"LOGIN_LOCKOUT_DURATION"        envDefault:"30m"`
	LoginWindow           time.Duration `env:"LOGIN_WINDOW"                  envDefault:"15m"`
	MaxIdentifierFailures int           `env:"LOGIN_MAX_IDENTIFIER_FAILURES" envDefault:"5"`
	MaxIPFailures         int           `env:"LOGIN_MAX_IP_FAILURES"         envDefault:"10"`

	OTPDigits            int           `env:"OTP_DIGITS"              envDefault:"6"`
	OTPTTL               time.Duration `env:"OTP_TTL"                 envDefault:"5m"`
	OTPSendWindow        time.Duration `env:"OTP_SEND_WINDOW"         envDefault:"1h"`
	OTPMaxSends          int           `env:"OTP_MAX_SENDS"           envDefault:"5"`
	OTPMaxVerifyAttempts int           `env:"OTP_MAX_VERIFY_ATTEMPTS" envDefault:"3"`

	ResetTokenTTL time.Duration `env:"PASSWORD_RESET_TTL" envDefault:"1h"`

	QuestionMaxVerifyFailures int           `env:"QUESTIONS_MAX_VERIFY_FAILURES" envDefault:"5"`
	QuestionVerifyWindow      time.Duration `env:"QUESTIONS_VERIFY_WINDOW"       envDefault:"15m"`

	Argon2Memory      uint32 `env:"ARGON2_MEMORY_KB"   envDefault:"65536"`
	Argon2Time        uint32 `env:"ARGON2_TIME"        envDefault:"3"`
	Argon2Parallelism uint8  `env:"ARGON2_PARALLELISM" envDefault:"2"`
	HashWorkers       int    `env:"HASH_WORKERS"`

	AuditEnabled    bool `env:"AUDIT_ENABLED"     envDefault:"true"`
	AuditBufferSize int  `env:"AUDIT_BUFFER_SIZE" envDefault:"1024"`
	MetricsEnabled  bool `env:"METRICS_ENABLED"   envDefault:"true"`
	LatencyEnabled  bool `env:"METRICS_LATENCY"`

	ValidationMode string `env:"VALIDATION_MODE" envDefault:"hybrid"`
}

// LoadConfigFromEnv builds a Config from environment variables named
// prefix + suffix, for example CREDAUTH_JWT_SECRET with prefix "CREDAUTH_".
// Unset variables keep the DefaultConfig value. The result is not validated.
func LoadConfigFromEnv(prefix string) (Config, error) {
	var raw configEnv
	if err := env.ParseWithOptions(&raw, env.Options{Prefix: prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := DefaultConfig()

	cfg.JWT.AccessTTL = raw.AccessTTL
	cfg.JWT.RefreshTTL = raw.RefreshTTL
	cfg.JWT.SigningMethod = raw.SigningMethod
	cfg.JWT.Issuer = raw.Issuer
	cfg.JWT.Audience = raw.Audience
	cfg.JWT.Leeway = raw.Leeway
	cfg.JWT.KeyID = raw.KeyID
	switch raw.SigningMethod {
	case "ed25519":
		cfg.JWT.PrivateKey = []byte(raw.PrivateKeyPEM)
		cfg.JWT.PublicKey = []byte(raw.PublicKeyPEM)
	default:
		cfg.JWT.PrivateKey = []byte(raw.Secret)
	}

	cfg.Login.MaxFailedAttempts = raw.MaxFailedAttempts
	cfg.Login.LockoutDuration = raw.LockoutDuration
	cfg.Login.Window = raw.LoginWindow
	cfg.Login.MaxIdentifierFailures = raw.MaxIdentifierFailures
	cfg.Login.MaxIPFailures = raw.MaxIPFailures
	switch raw.LockoutPolicy {
	case "fixed":
		cfg.Login.LockoutPolicy = LockoutFixed
	case "exponential":
		cfg.Login.LockoutPolicy = LockoutExponential
	default:
		return Config{}, fmt.Errorf("parse env: unknown lockout policy %q", raw.LockoutPolicy)
	}

	cfg.OTP = OTPConfig{
		Digits:            raw.OTPDigits,
		TTL:               raw.OTPTTL,
		SendWindow:        raw.OTPSendWindow,
		MaxSends:          raw.OTPMaxSends,
		MaxVerifyAttempts: raw.OTPMaxVerifyAttempts,
	}
	cfg.PasswordReset.TokenTTL = raw.ResetTokenTTL
	cfg.SecurityQuestions.MaxVerifyFailures = raw.QuestionMaxVerifyFailures
	cfg.SecurityQuestions.VerifyWindow = raw.QuestionVerifyWindow

	cfg.Password.Memory = raw.Argon2Memory
	cfg.Password.Time = raw.Argon2Time
	cfg.Password.Parallelism = raw.Argon2Parallelism
	if raw.HashWorkers > 0 {
		cfg.Password.Workers = raw.HashWorkers
	}

	cfg.Audit.Enabled = raw.AuditEnabled
	cfg.Audit.BufferSize = raw.AuditBufferSize
	cfg.Metrics.Enabled = raw.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = raw.LatencyEnabled

	mode, err := parseValidationMode(raw.ValidationMode)
	if err != nil {
		return Config{}, err
	}
	cfg.ValidationMode = mode

	return cfg, nil
}

func parseValidationMode(s string) (ValidationMode, error) {
	switch s {
	case "jwt_only":
		return ModeJWTOnly, nil
	case "hybrid":
		return ModeHybrid, nil
	case "strict":
		return ModeStrict, nil
	}
	return 0, fmt.Errorf("parse env: unknown validation mode %q", s)
}
