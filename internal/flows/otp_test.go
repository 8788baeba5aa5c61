package flows

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/session"
)

func (h *harness) sendOTP(identifier string, typ IdentifierType) error {
	return RunSendOTP(context.Background(), SendOTPRequest{Identifier: identifier, Type: typ}, h.deps.OTP)
}

func (h *harness) verifyOTP(identifier, code string) error {
	return RunVerifyOTP(context.Background(), VerifyOTPRequest{Identifier: identifier, Code: code}, h.deps.OTP)
}

func TestSendOTPCapOfTwo(t *testing.T) {
	h := newHarness(t, withOTPLimit(2, 5*time.Minute))

	for i := 1; i <= 2; i++ {
		if err := h.sendOTP("a@b.com", IdentifierEmail); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if err := h.sendOTP("a@b.com", IdentifierEmail); !errors.Is(err, errOTPRateLimited) {
		t.Fatalf("third send must be limited, got %v", err)
	}

	h.mr.FastForward(5 * time.Minute)
	if err := h.sendOTP("a@b.com", IdentifierEmail); err != nil {
		t.Fatalf("send after window: %v", err)
	}
}

func TestSendOTPStoresAndPublishes(t *testing.T) {
	h := newHarness(t)

	if err := h.sendOTP("+15550001111", IdentifierPhone); err != nil {
		t.Fatalf("send: %v", err)
	}
	code := h.pub.smsOTP["+15550001111"]
	if len(code) != 6 {
		t.Fatalf("published code %q", code)
	}
	if v, _ := h.mr.Get(session.OTPKey("+15550001111")); v != code {
		t.Fatalf("cached code %q, published %q", v, code)
	}
	if ttl := h.mr.TTL(session.OTPKey("+15550001111")); ttl != 5*time.Minute {
		t.Fatalf("otp ttl = %v", ttl)
	}
}

func TestSendOTPShapeChecks(t *testing.T) {
	h := newHarness(t)
	if err := h.sendOTP("not-an-email", IdentifierEmail); !errors.Is(err, errInvalidEmail) {
		t.Fatalf("expected InvalidEmail, got %v", err)
	}
	if err := h.sendOTP("555-1234", IdentifierPhone); !errors.Is(err, errInvalidPhone) {
		t.Fatalf("expected InvalidPhone, got %v", err)
	}
	if err := h.sendOTP("a@b.com", "fax"); !errors.Is(err, errValidation) {
		t.Fatalf("expected Validation for unknown type, got %v", err)
	}
}

func TestSendOTPPublishFailureDropsCode(t *testing.T) {
	h := newHarness(t)
	h.pub.failOTP = errors.New("bus down")

	if err := h.sendOTP("a@b.com", IdentifierEmail); !errors.Is(err, errInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if h.mr.Exists(session.OTPKey("a@b.com")) {
		t.Fatal("an unsent code must not stay verifiable")
	}
}

func TestVerifyOTPSingleUseAndMarksVerified(t *testing.T) {
	h := newHarness(t)
	u := h.addUser("a@b.com", func(u *credential.User) { u.IsVerified = false })

	if err := h.sendOTP("a@b.com", IdentifierEmail); err != nil {
		t.Fatalf("send: %v", err)
	}
	code := h.pub.emailOTP["a@b.com"]

	if err := h.verifyOTP("a@b.com", code); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !h.user(u.ID).IsVerified {
		t.Fatal("expected user marked verified")
	}
	if err := h.verifyOTP("a@b.com", code); !errors.Is(err, errOTPNotFound) {
		t.Fatalf("second verify must be OtpNotFound, got %v", err)
	}
}

func TestVerifyOTPWithoutUserStillConsumes(t *testing.T) {
	h := newHarness(t)
	_ = h.sendOTP("new@b.com", IdentifierEmail)

	if err := h.verifyOTP("new@b.com", h.pub.emailOTP["new@b.com"]); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if h.mr.Exists(session.OTPKey("new@b.com")) {
		t.Fatal("code must be consumed")
	}
}

func TestVerifyOTPMismatchAndAttemptCap(t *testing.T) {
	h := newHarness(t)
	_ = h.sendOTP("a@b.com", IdentifierEmail)
	code := h.pub.emailOTP["a@b.com"]
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for i := 0; i < 2; i++ {
		if err := h.verifyOTP("a@b.com", wrong); !errors.Is(err, errInvalidOTP) {
			t.Fatalf("mismatch %d: %v", i+1, err)
		}
	}
	if err := h.verifyOTP("a@b.com", wrong); !errors.Is(err, errInvalidOTP) {
		t.Fatalf("third mismatch: %v", err)
	}
	if err := h.verifyOTP("a@b.com", code); !errors.Is(err, errOTPNotFound) {
		t.Fatalf("code must be gone after the attempt cap, got %v", err)
	}
}

func TestVerifyOTPExpired(t *testing.T) {
	h := newHarness(t)
	_ = h.sendOTP("a@b.com", IdentifierEmail)
	h.mr.FastForward(5 * time.Minute)

	if err := h.verifyOTP("a@b.com", h.pub.emailOTP["a@b.com"]); !errors.Is(err, errOTPNotFound) {
		t.Fatalf("expired code is not found, got %v", err)
	}
}

func TestVerifyOTPConcurrentSingleUse(t *testing.T) {
	h := newHarness(t)
	u := h.addUser("a@b.com", func(u *credential.User) { u.IsVerified = false })
	if err := h.sendOTP("a@b.com", IdentifierEmail); err != nil {
		t.Fatalf("send: %v", err)
	}
	code := h.pub.emailOTP["a@b.com"]

	const workers = 16
	start := make(chan struct{})
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs <- h.verifyOTP("a@b.com", code)
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	var ok, missing int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, errOTPNotFound):
			missing++
		default:
			t.Fatalf("unexpected verify error: %v", err)
		}
	}
	if ok != 1 || missing != workers-1 {
		t.Fatalf("ok=%d missing=%d, want exactly one success", ok, missing)
	}
	if !h.user(u.ID).IsVerified {
		t.Fatal("winner must mark the user verified")
	}
}

func TestSendOTPCapSharedAcrossEmailCase(t *testing.T) {
	h := newHarness(t, withOTPLimit(2, 5*time.Minute))

	for i, id := range []string{"a@b.com", "A@b.com"} {
		if err := h.sendOTP(id, IdentifierEmail); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
	}
	for _, id := range []string{"A@B.com", "a@B.COM", " a@b.com "} {
		if err := h.sendOTP(id, IdentifierEmail); !errors.Is(err, errOTPRateLimited) {
			t.Fatalf("send %q must share the cap, got %v", id, err)
		}
	}
	if len(h.pub.emailOTP) != 1 {
		t.Fatalf("codes published to %d recipients, want 1", len(h.pub.emailOTP))
	}
}

func TestVerifyOTPAcceptsOtherEmailCase(t *testing.T) {
	h := newHarness(t)
	if err := h.sendOTP("Mixed@B.com", IdentifierEmail); err != nil {
		t.Fatalf("send: %v", err)
	}
	code := h.pub.emailOTP["mixed@b.com"]
	if err := h.verifyOTP("MIXED@b.com", code); err != nil {
		t.Fatalf("verify: %v", err)
	}
}
