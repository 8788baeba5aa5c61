package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/credauth/credential"
)

func TestRevokeRefreshTokenConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()
	tok := credential.NewRefreshToken(uuid.New(), "h1", credential.DeviceContext{}, time.Hour, now)
	if _, err := s.CreateRefreshToken(ctx, tok); err != nil {
		t.Fatalf("create: %v", err)
	}

	const workers = 16
	var wins atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			ok, err := s.RevokeRefreshToken(ctx, tok.ID, now)
			if err != nil {
				t.Errorf("revoke: %v", err)
				return
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one revoke winner, got %d", wins.Load())
	}

	got, err := s.FindRefreshTokenByHash(ctx, "h1")
	if err != nil || got == nil {
		t.Fatalf("find: %v %v", got, err)
	}
	if got.IsValid(now) {
		t.Fatal("expected revoked token to be invalid")
	}
}

func TestUpdateRefreshTokenCannotUnrevoke(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()
	tok := credential.NewRefreshToken(uuid.New(), "h2", credential.DeviceContext{}, time.Hour, now)
	_, _ = s.CreateRefreshToken(ctx, tok)
	_, _ = s.RevokeRefreshToken(ctx, tok.ID, now)

	tok.IsRevoked = false
	tok.RevokedAt = nil
	got, err := s.UpdateRefreshToken(ctx, tok)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !got.IsRevoked || got.RevokedAt == nil {
		t.Fatal("expected revocation to survive update")
	}
}

func TestConsumePasswordResetTokenOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()
	tok := credential.NewPasswordResetToken(uuid.New(), "r1", time.Hour, now)
	_, _ = s.CreatePasswordResetToken(ctx, tok)

	first, err := s.ConsumePasswordResetToken(ctx, tok.ID, now)
	if err != nil || !first {
		t.Fatalf("expected first consume to win, got %v %v", first, err)
	}
	second, err := s.ConsumePasswordResetToken(ctx, tok.ID, now)
	if err != nil || second {
		t.Fatalf("expected second consume to lose, got %v %v", second, err)
	}
}

func TestCountFailedHonoursWindow(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	old := credential.NewLoginAttempt("a@b.com", "1.1.1.1", "", false, credential.FailureInvalidPassword, now.Add(-20*time.Minute))
	recent := credential.NewLoginAttempt("a@b.com", "1.1.1.1", "", false, credential.FailureInvalidPassword, now.Add(-time.Minute))
	ok := credential.NewLoginAttempt("a@b.com", "1.1.1.1", "", true, "", now)
	other := credential.NewLoginAttempt("c@d.com", "1.1.1.1", "", false, credential.FailureUserNotFound, now)
	for _, a := range []*credential.LoginAttempt{old, recent, ok, other} {
		_, _ = s.CreateLoginAttempt(ctx, a)
	}

	since := now.Add(-15 * time.Minute)
	byID, _ := s.CountFailedByIdentifier(ctx, "a@b.com", since)
	if byID != 1 {
		t.Fatalf("identifier count = %d, want 1", byID)
	}
	byIP, _ := s.CountFailedByIP(ctx, "1.1.1.1", since)
	if byIP != 2 {
		t.Fatalf("ip count = %d, want 2", byIP)
	}
}

func TestReplaceUserSecurityQuestionsDropsPriorSet(t *testing.T) {
	ctx := context.Background()
	s := New()
	userID := uuid.New()

	first := []credential.UserSecurityQuestion{
		{ID: uuid.New(), UserID: userID, QuestionID: uuid.New()},
		{ID: uuid.New(), UserID: userID, QuestionID: uuid.New()},
		{ID: uuid.New(), UserID: userID, QuestionID: uuid.New()},
	}
	if err := s.ReplaceUserSecurityQuestions(ctx, userID, first); err != nil {
		t.Fatalf("replace: %v", err)
	}

	second := []credential.UserSecurityQuestion{
		{ID: uuid.New(), UserID: userID, QuestionID: uuid.New()},
		{ID: uuid.New(), UserID: userID, QuestionID: uuid.New()},
	}
	if err := s.ReplaceUserSecurityQuestions(ctx, userID, second); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, _ := s.FindUserSecurityQuestions(ctx, userID)
	if len(got) != 2 || got[0].ID != second[0].ID || got[1].ID != second[1].ID {
		t.Fatalf("unexpected set after replace: %+v", got)
	}
}

func TestFindUserReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := &credential.User{Email: "a@b.com", IsActive: true}
	created, err := s.CreateUser(ctx, u)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, _ := s.FindUserByEmail(ctx, "A@B.com")
	if found == nil {
		t.Fatal("expected case-insensitive email lookup")
	}
	found.IsActive = false

	again, _ := s.FindUserByID(ctx, created.ID)
	if !again.IsActive {
		t.Fatal("mutating a returned user must not change the store")
	}

	if _, err := s.CreateUser(ctx, &credential.User{Email: "a@b.com"}); err != ErrDuplicate {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}
