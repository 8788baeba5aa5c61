// Package memory is an in-process credential.Store. It keeps the same
// conditional-update semantics as the PostgreSQL store and is meant for tests
// and single-node development.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/credauth/credential"
)

// ErrDuplicate is returned when a unique key (id, email, phone, token hash)
// already exists.
var ErrDuplicate = errors.New("memory: duplicate key")

// Store is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	users         map[uuid.UUID]credential.User
	refresh       map[uuid.UUID]credential.RefreshToken
	resets        map[uuid.UUID]credential.PasswordResetToken
	attempts      []credential.LoginAttempt
	questions     map[uuid.UUID]credential.SecurityQuestion
	userQuestions map[uuid.UUID][]credential.UserSecurityQuestion
}

var _ credential.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		users:         make(map[uuid.UUID]credential.User),
		refresh:       make(map[uuid.UUID]credential.RefreshToken),
		resets:        make(map[uuid.UUID]credential.PasswordResetToken),
		questions:     make(map[uuid.UUID]credential.SecurityQuestion),
		userQuestions: make(map[uuid.UUID][]credential.UserSecurityQuestion),
	}
}

// AddSecurityQuestion seeds the question catalog.
func (s *Store) AddSecurityQuestion(q credential.SecurityQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	s.questions[q.ID] = q
}

// LoginAttempts returns a copy of every recorded attempt in insertion order.
func (s *Store) LoginAttempts() []credential.LoginAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]credential.LoginAttempt, len(s.attempts))
	copy(out, s.attempts)
	return out
}

func (s *Store) CreateUser(_ context.Context, u *credential.User) (*credential.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if _, ok := s.users[u.ID]; ok {
		return nil, ErrDuplicate
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) || (u.Phone != "" && existing.Phone == u.Phone) {
			return nil, ErrDuplicate
		}
	}
	s.users[u.ID] = cloneUser(*u)
	out := cloneUser(*u)
	return &out, nil
}

func (s *Store) FindUserByID(_ context.Context, id uuid.UUID) (*credential.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	out := cloneUser(u)
	return &out, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*credential.User, error) {
	return s.findUser(func(u credential.User) bool { return strings.EqualFold(u.Email, email) }), nil
}

func (s *Store) FindUserByPhone(_ context.Context, phone string) (*credential.User, error) {
	if phone == "" {
		return nil, nil
	}
	return s.findUser(func(u credential.User) bool { return u.Phone == phone }), nil
}

func (s *Store) findUser(match func(credential.User) bool) *credential.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			out := cloneUser(u)
			return &out
		}
	}
	return nil
}

func (s *Store) UpdateUser(_ context.Context, u *credential.User) (*credential.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return nil, nil
	}
	s.users[u.ID] = cloneUser(*u)
	out := cloneUser(*u)
	return &out, nil
}

func (s *Store) CreateRefreshToken(_ context.Context, t *credential.RefreshToken) (*credential.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.refresh {
		if existing.TokenHash == t.TokenHash {
			return nil, ErrDuplicate
		}
	}
	s.refresh[t.ID] = cloneRefresh(*t)
	out := cloneRefresh(*t)
	return &out, nil
}

func (s *Store) FindRefreshTokenByHash(_ context.Context, hash string) (*credential.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.refresh {
		if t.TokenHash == hash {
			out := cloneRefresh(t)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdateRefreshToken(_ context.Context, t *credential.RefreshToken) (*credential.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.refresh[t.ID]
	if !ok {
		return nil, nil
	}
	next := cloneRefresh(*t)
	// Revocation is one-way.
	if existing.IsRevoked {
		next.IsRevoked = true
		next.RevokedAt = existing.RevokedAt
	}
	s.refresh[t.ID] = next
	out := cloneRefresh(next)
	return &out, nil
}

func (s *Store) RevokeRefreshToken(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.refresh[id]
	if !ok || t.IsRevoked {
		return false, nil
	}
	t.Revoke(at)
	s.refresh[id] = t
	return true, nil
}

func (s *Store) RevokeAllRefreshTokens(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.refresh {
		if t.UserID != userID || t.IsRevoked {
			continue
		}
		t.Revoke(at)
		s.refresh[id] = t
		n++
	}
	return n, nil
}

func (s *Store) DeleteExpiredRefreshTokens(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.refresh {
		if t.ExpiresAt.Before(before) {
			delete(s.refresh, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) CreatePasswordResetToken(_ context.Context, t *credential.PasswordResetToken) (*credential.PasswordResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.resets {
		if existing.TokenHash == t.TokenHash {
			return nil, ErrDuplicate
		}
	}
	s.resets[t.ID] = cloneReset(*t)
	out := cloneReset(*t)
	return &out, nil
}

func (s *Store) FindPasswordResetTokenByHash(_ context.Context, hash string) (*credential.PasswordResetToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.resets {
		if t.TokenHash == hash {
			out := cloneReset(t)
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) UpdatePasswordResetToken(_ context.Context, t *credential.PasswordResetToken) (*credential.PasswordResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.resets[t.ID]
	if !ok {
		return nil, nil
	}
	next := cloneReset(*t)
	if existing.IsUsed {
		next.IsUsed = true
		next.UsedAt = existing.UsedAt
	}
	s.resets[t.ID] = next
	out := cloneReset(next)
	return &out, nil
}

func (s *Store) ConsumePasswordResetToken(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.resets[id]
	if !ok || t.IsUsed {
		return false, nil
	}
	t.MarkUsed(at)
	s.resets[id] = t
	return true, nil
}

func (s *Store) DeleteExpiredPasswordResetTokens(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.resets {
		if t.ExpiresAt.Before(before) {
			delete(s.resets, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateLoginAttempt(_ context.Context, a *credential.LoginAttempt) (*credential.LoginAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, *a)
	out := *a
	return &out, nil
}

func (s *Store) CountFailedByIdentifier(_ context.Context, identifier string, since time.Time) (int64, error) {
	return s.countFailed(func(a credential.LoginAttempt) bool { return a.Identifier == identifier }, since), nil
}

func (s *Store) CountFailedByIP(_ context.Context, ip string, since time.Time) (int64, error) {
	return s.countFailed(func(a credential.LoginAttempt) bool { return a.IPAddress == ip }, since), nil
}

func (s *Store) countFailed(match func(credential.LoginAttempt) bool, since time.Time) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, a := range s.attempts {
		if !a.IsSuccessful && !a.CreatedAt.Before(since) && match(a) {
			n++
		}
	}
	return n
}

func (s *Store) ActiveSecurityQuestions(_ context.Context) ([]credential.SecurityQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]credential.SecurityQuestion, 0, len(s.questions))
	for _, q := range s.questions {
		if q.IsActive {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Store) FindSecurityQuestionByID(_ context.Context, id uuid.UUID) (*credential.SecurityQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

func (s *Store) CreateUserSecurityQuestion(_ context.Context, q *credential.UserSecurityQuestion) (*credential.UserSecurityQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userQuestions[q.UserID] = append(s.userQuestions[q.UserID], *q)
	out := *q
	return &out, nil
}

func (s *Store) FindUserSecurityQuestions(_ context.Context, userID uuid.UUID) ([]credential.UserSecurityQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.userQuestions[userID]
	out := make([]credential.UserSecurityQuestion, len(set))
	copy(out, set)
	return out, nil
}

func (s *Store) UpdateUserSecurityQuestion(_ context.Context, q *credential.UserSecurityQuestion) (*credential.UserSecurityQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.userQuestions[q.UserID]
	for i := range set {
		if set[i].ID == q.ID {
			set[i] = *q
			out := *q
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) DeleteUserSecurityQuestions(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.userQuestions, userID)
	return nil
}

func (s *Store) ReplaceUserSecurityQuestions(_ context.Context, userID uuid.UUID, qs []credential.UserSecurityQuestion) error {
	set := make([]credential.UserSecurityQuestion, len(qs))
	copy(set, qs)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.userQuestions, userID)
	if len(set) > 0 {
		s.userQuestions[userID] = set
	}
	return nil
}

func cloneUser(u credential.User) credential.User {
	u.LockedUntil = cloneTime(u.LockedUntil)
	u.LastLoginAt = cloneTime(u.LastLoginAt)
	return u
}

func cloneRefresh(t credential.RefreshToken) credential.RefreshToken {
	t.RevokedAt = cloneTime(t.RevokedAt)
	return t
}

func cloneReset(t credential.PasswordResetToken) credential.PasswordResetToken {
	t.UsedAt = cloneTime(t.UsedAt)
	return t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
