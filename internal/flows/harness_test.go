package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/credential/memory"
	"github.com/MrEthical07/credauth/internal"
	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/internal/policy"
	"github.com/MrEthical07/credauth/internal/rate"
	"github.com/MrEthical07/credauth/jwt"
	"github.com/MrEthical07/credauth/password"
	"github.com/MrEthical07/credauth/session"
)

var (
	errNotReady         = errors.New("not ready")
	errInternal         = errors.New("internal")
	errValidation       = errors.New("validation")
	errRateLimited      = errors.New("rate limited")
	errOTPRateLimited   = errors.New("otp rate limited")
	errInvalidCreds     = errors.New("invalid credentials")
	errUserNotFound     = errors.New("user not found")
	errInvalidRefresh   = errors.New("invalid refresh token")
	errOTPNotFound      = errors.New("otp not found")
	errInvalidOTP       = errors.New("invalid otp")
	errInvalidEmail     = errors.New("invalid email")
	errInvalidPhone     = errors.New("invalid phone")
	errInvalidReset     = errors.New("invalid reset token")
	errQuestionFailed   = errors.New("security question failed")
	errTokenExpired     = errors.New("token expired")
	errInvalidToken     = errors.New("invalid token")
	errTokenBlacklisted = errors.New("token blacklisted")
	errWeakPassword     = errors.New("weak password")
)

var testErrors = Errors{
	EngineNotReady:         errNotReady,
	Internal:               errInternal,
	Validation:             errValidation,
	RateLimited:            errRateLimited,
	OTPRateLimited:         errOTPRateLimited,
	InvalidCredentials:     errInvalidCreds,
	UserNotFound:           errUserNotFound,
	InvalidRefreshToken:    errInvalidRefresh,
	OTPNotFound:            errOTPNotFound,
	InvalidOTP:             errInvalidOTP,
	InvalidEmail:           errInvalidEmail,
	InvalidPhone:           errInvalidPhone,
	InvalidResetToken:      errInvalidReset,
	SecurityQuestionFailed: errQuestionFailed,
	TokenExpired:           errTokenExpired,
	InvalidToken:           errInvalidToken,
	TokenBlacklisted:       errTokenBlacklisted,
	WeakPassword: func(v []string) error {
		return fmt.Errorf("%w: %s", errWeakPassword, strings.Join(v, "; "))
	},
}

const testPassword = "Str0ng!Pass"

type fakePublisher struct {
	mu        sync.Mutex
	emailOTP  map[string]string
	smsOTP    map[string]string
	resets    map[string]string
	changed   []string
	failOTP   error
	failReset error
	failDone  error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		emailOTP: map[string]string{},
		smsOTP:   map[string]string{},
		resets:   map[string]string{},
	}
}

func (p *fakePublisher) SendEmailOTP(_ context.Context, to, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOTP != nil {
		return p.failOTP
	}
	p.emailOTP[to] = code
	return nil
}

func (p *fakePublisher) SendSMSOTP(_ context.Context, to, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failOTP != nil {
		return p.failOTP
	}
	p.smsOTP[to] = code
	return nil
}

func (p *fakePublisher) SendPasswordResetEmail(_ context.Context, to, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failReset != nil {
		return p.failReset
	}
	p.resets[to] = token
	return nil
}

func (p *fakePublisher) SendPasswordChangedConfirmation(_ context.Context, to string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failDone != nil {
		return p.failDone
	}
	p.changed = append(p.changed, to)
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Emit(_ context.Context, e audit.Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) count(eventType string, success bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.EventType == eventType && e.Success == success {
			n++
		}
	}
	return n
}

type harness struct {
	t        *testing.T
	store    *memory.Store
	mr       *miniredis.Miniredis
	sessions *session.Store
	access   *jwt.Manager
	hasher   *password.Pool
	pub      *fakePublisher
	events   *recordingSink
	deps     Deps
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	gate    rate.Config
	lockout policy.Lockout
	otpCap  int
	otpWin  time.Duration
}

func withGate(identifier, ip int) harnessOption {
	return func(c *harnessConfig) {
		c.gate.MaxIdentifierFailures = identifier
		c.gate.MaxIPFailures = ip
	}
}

func withOTPLimit(n int, window time.Duration) harnessOption {
	return func(c *harnessConfig) {
		c.otpCap = n
		c.otpWin = window
	}
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	cfg := harnessConfig{
		gate:    rate.Config{LoginWindow: 15 * time.Minute, MaxIdentifierFailures: 5, MaxIPFailures: 10},
		lockout: policy.Lockout{Mode: policy.LockoutFixed, MaxAttempts: 5, Duration: 30 * time.Minute},
		otpCap:  5,
		otpWin:  time.Hour,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	access, err := jwt.NewManager(jwt.Config{
		AccessTTL:     time.Hour,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte(strings.Repeat("k", 32)),
		Issuer:        "credauth-test",
	})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	argon, err := password.NewArgon2(password.Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16})
	if err != nil {
		t.Fatalf("argon2: %v", err)
	}

	h := &harness{
		t:        t,
		store:    memory.New(),
		mr:       mr,
		sessions: session.NewStore(session.NewRedisCache(rdb)),
		access:   access,
		hasher:   password.NewPool(argon, 4),
		pub:      newFakePublisher(),
		events:   &recordingSink{},
	}

	cfg.gate.OTPWindow = cfg.otpWin
	cfg.gate.MaxOTPSends = cfg.otpCap
	limiter := rate.New(h.store, h.sessions, cfg.gate, nil)

	obs := Observer{Emit: h.events.Emit}
	revoker := SessionRevoker{
		RefreshTokens: h.store,
		Sessions:      h.sessions,
		Access:        access,
		Errors:        testErrors,
		Observer:      obs,
	}
	issue := IssueDeps{
		Access:         access,
		RefreshTokens:  h.store,
		Sessions:       h.sessions,
		RefreshTTL:     30 * 24 * time.Hour,
		NewOpaqueToken: internal.NewOpaqueToken,
		HashToken:      internal.HashOpaqueToken,
		Errors:         testErrors,
		Observer:       obs,
	}

	h.deps = Deps{
		Login: LoginDeps{
			Users:     h.store,
			Attempts:  h.store,
			Gate:      limiter,
			Passwords: h.hasher,
			Lockout:   cfg.lockout,
			Issue:     issue,
			Errors:    testErrors,
			Observer:  obs,
		},
		Refresh: RefreshDeps{
			Users:         h.store,
			RefreshTokens: h.store,
			HashToken:     internal.HashOpaqueToken,
			Issue:         issue,
			Errors:        testErrors,
			Observer:      obs,
		},
		OTP: OTPDeps{
			Limiter:           limiter,
			Cache:             h.sessions,
			Users:             h.store,
			Publisher:         h.pub,
			NewOTP:            internal.NewOTP,
			EqualCodes:        internal.EqualCodes,
			Digits:            6,
			TTL:               5 * time.Minute,
			MaxVerifyAttempts: 3,
			Errors:            testErrors,
			Observer:          obs,
		},
		PasswordReset: PasswordResetDeps{
			Users:          h.store,
			ResetTokens:    h.store,
			Revoker:        revoker,
			Passwords:      h.hasher,
			CheckPassword:  password.DefaultPolicy().Check,
			Publisher:      h.pub,
			NewOpaqueToken: internal.NewOpaqueToken,
			HashToken:      internal.HashOpaqueToken,
			TTL:            time.Hour,
			Errors:         testErrors,
			Observer:       obs,
		},
		SecurityQuestions: SecurityQuestionDeps{
			Users:    h.store,
			Catalog:  h.store,
			Answers:  h.store,
			Hasher:   h.hasher,
			Errors:   testErrors,
			Observer: obs,
		},
		Logout: LogoutDeps{
			Revoker:   revoker,
			HashToken: internal.HashOpaqueToken,
		},
		Validate: ValidateDeps{
			Access:   access,
			Sessions: h.sessions,
			Errors:   testErrors,
			Observer: obs,
		},
	}
	return h
}

// addUser stores an active, verified user with testPassword.
func (h *harness) addUser(email string, mutate ...func(*credential.User)) *credential.User {
	h.t.Helper()
	hash, err := h.hasher.Hash(context.Background(), testPassword)
	if err != nil {
		h.t.Fatalf("hash: %v", err)
	}
	now := time.Now()
	u := &credential.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         credential.RoleTenant,
		IsVerified:   true,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, m := range mutate {
		m(u)
	}
	created, err := h.store.CreateUser(context.Background(), u)
	if err != nil {
		h.t.Fatalf("create user: %v", err)
	}
	return created
}

func (h *harness) user(id uuid.UUID) *credential.User {
	h.t.Helper()
	u, err := h.store.FindUserByID(context.Background(), id)
	if err != nil || u == nil {
		h.t.Fatalf("find user: %v %v", u, err)
	}
	return u
}

func (h *harness) login(identifier, pw string) (TokenPair, error) {
	return RunLogin(context.Background(), LoginRequest{
		Identifier: identifier,
		Password:   pw,
		IP:         "10.0.0.1",
		UserAgent:  "test",
	}, h.deps.Login)
}

func (h *harness) mustLogin(identifier string) TokenPair {
	h.t.Helper()
	pair, err := h.login(identifier, testPassword)
	if err != nil {
		h.t.Fatalf("login: %v", err)
	}
	return pair
}
