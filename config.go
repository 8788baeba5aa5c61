package credauth

import (
	"errors"
	"runtime"
	"time"

	"github.com/MrEthical07/credauth/internal/policy"
)

// Config is the full engine configuration. Start from DefaultConfig and
// override what differs; Builder.Build validates the result.
type Config struct {
	JWT               JWTConfig
	Login             LoginConfig
	OTP               OTPConfig
	PasswordReset     PasswordResetConfig
	Password          PasswordConfig
	SecurityQuestions SecurityQuestionsConfig
	Audit             AuditConfig
	Metrics           MetricsConfig
	ValidationMode    ValidationMode
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls access-token signing and refresh-token lifetime.
// For hs256 PrivateKey is the shared secret of at least 32 bytes.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LockoutPolicy selects how long an account stays locked once
// MaxFailedAttempts is reached.
type LockoutPolicy int

const (
	// LockoutFixed locks for LockoutDuration.
	LockoutFixed LockoutPolicy = iota
	// LockoutExponential locks for 2^(failed-3) minutes, capped at one hour.
	LockoutExponential
)

// LoginConfig holds the lockout policy and the login rate gate. The gate
// counts failed LoginAttempts inside Window per identifier and per IP.
type LoginConfig struct {
	MaxFailedAttempts     int
	LockoutPolicy         LockoutPolicy
	LockoutDuration       time.Duration
	Window                time.Duration
	MaxIdentifierFailures int
	MaxIPFailures         int
}

/*
====================================
OTP CONFIG
====================================
*/

type OTPConfig struct {
	Digits            int
	TTL               time.Duration
	SendWindow        time.Duration
	MaxSends          int
	MaxVerifyAttempts int
}

/*
====================================
PASSWORD CONFIG
====================================
*/

type PasswordResetConfig struct {
	TokenTTL time.Duration
}

// PasswordConfig holds Argon2id parameters (Memory in KiB), the size of the
// hashing worker pool and the length bounds of the password policy.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	Workers     int
	MinLength   int
	MaxLength   int
}

/*
====================================
SECURITY QUESTIONS CONFIG
====================================
*/

type SecurityQuestionsConfig struct {
	MinQuestions    int
	MaxQuestions    int
	MinAnswerLength int
	MaxAnswerLength int

	// MaxVerifyFailures wrong answer sets within VerifyWindow block further
	// verification for the user until the window ends. Zero disables.
	MaxVerifyFailures int
	VerifyWindow      time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher. With DropIfFull a full
// buffer drops events instead of blocking the request.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
VALIDATION MODE
====================================
*/

// ValidationMode sets how much cache state ValidateAccessToken consults.
type ValidationMode int

const (
	// ModeJWTOnly checks signature and expiry.
	ModeJWTOnly ValidationMode = iota
	// ModeHybrid also rejects blacklisted tokens.
	ModeHybrid
	// ModeStrict also requires the token to be the user's cached session.
	ModeStrict
)

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the production defaults. JWT.PrivateKey is empty
// and must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     time.Hour,
			RefreshTTL:    30 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "credauth",
		},
		Login: LoginConfig{
			MaxFailedAttempts:     5,
			LockoutPolicy:         LockoutFixed,
			LockoutDuration:       30 * time.Minute,
			Window:                15 * time.Minute,
			MaxIdentifierFailures: 5,
			MaxIPFailures:         10,
		},
		OTP: OTPConfig{
			Digits:            6,
			TTL:               5 * time.Minute,
			SendWindow:        time.Hour,
			MaxSends:          5,
			MaxVerifyAttempts: 3,
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL: time.Hour,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			Workers:     runtime.GOMAXPROCS(0),
			MinLength:   8,
			MaxLength:   128,
		},
		SecurityQuestions: SecurityQuestionsConfig{
			MinQuestions:    policy.MinQuestions,
			MaxQuestions:    policy.MaxQuestions,
			MinAnswerLength: policy.MinAnswerLength,
			MaxAnswerLength: policy.MaxAnswerLength,

			MaxVerifyFailures: 5,
			VerifyWindow:      15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		ValidationMode: ModeHybrid,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first setting that cannot run.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	switch c.JWT.SigningMethod {
	case "hs256":
		if len(c.JWT.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be within [0, 2m]")
	}

	// Login
	if c.Login.MaxFailedAttempts <= 0 {
		return errors.New("Login MaxFailedAttempts must be > 0")
	}
	switch c.Login.LockoutPolicy {
	case LockoutFixed:
		if c.Login.LockoutDuration <= 0 {
			return errors.New("Login LockoutDuration must be > 0 for the fixed policy")
		}
	case LockoutExponential:
	default:
		return errors.New("unknown Login LockoutPolicy")
	}
	if c.Login.Window <= 0 {
		return errors.New("Login Window must be > 0")
	}
	if c.Login.MaxIdentifierFailures <= 0 || c.Login.MaxIPFailures <= 0 {
		return errors.New("Login failure caps must be > 0")
	}

	// OTP
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be within [4, 10]")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.OTP.SendWindow <= 0 || c.OTP.MaxSends <= 0 {
		return errors.New("OTP SendWindow and MaxSends must be > 0")
	}
	if c.OTP.MaxVerifyAttempts <= 0 {
		return errors.New("OTP MaxVerifyAttempts must be > 0")
	}

	// Password reset
	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("PasswordReset TokenTTL must be > 0")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8 MiB")
	}
	if c.Password.Time < 1 || c.Password.Parallelism < 1 {
		return errors.New("Password Time and Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 || c.Password.KeyLength < 16 {
		return errors.New("Password SaltLength and KeyLength must be >= 16")
	}
	if c.Password.Workers <= 0 {
		return errors.New("Password Workers must be > 0")
	}
	if c.Password.MinLength < 8 || c.Password.MaxLength < c.Password.MinLength {
		return errors.New("Password length bounds are invalid")
	}

	// Security questions
	sq := c.SecurityQuestions
	if sq.MinQuestions < 1 || sq.MaxQuestions < sq.MinQuestions {
		return errors.New("SecurityQuestions question bounds are invalid")
	}
	if sq.MinAnswerLength < 1 || sq.MaxAnswerLength < sq.MinAnswerLength {
		return errors.New("SecurityQuestions answer bounds are invalid")
	}
	if sq.MaxVerifyFailures < 0 || (sq.MaxVerifyFailures > 0 && sq.VerifyWindow <= 0) {
		return errors.New("SecurityQuestions verify throttle is invalid")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	if c.ValidationMode < ModeJWTOnly || c.ValidationMode > ModeStrict {
		return errors.New("unknown ValidationMode")
	}
	return nil
}

func (l LoginConfig) lockout() policy.Lockout {
	mode := policy.LockoutFixed
	if l.LockoutPolicy == LockoutExponential {
		mode = policy.LockoutExponential
	}
	return policy.Lockout{
		Mode:        mode,
		MaxAttempts: l.MaxFailedAttempts,
		Duration:    l.LockoutDuration,
	}
}

func (q SecurityQuestionsConfig) rules() policy.QuestionRules {
	return policy.QuestionRules{
		MinQuestions: q.MinQuestions,
		MaxQuestions: q.MaxQuestions,
		MinAnswer:    q.MinAnswerLength,
		MaxAnswer:    q.MaxAnswerLength,
	}
}
