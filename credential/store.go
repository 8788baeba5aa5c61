package credential

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) (*User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByPhone(ctx context.Context, phone string) (*User, error)
	UpdateUser(ctx context.Context, u *User) (*User, error)
}

// RefreshTokenStore persists refresh tokens by hash.
//
// RevokeRefreshToken is a compare-and-set on the unrevoked state: it
// returns false when the token was already revoked, so concurrent
// redemptions of one token see exactly one true.
type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, t *RefreshToken) (*RefreshToken, error)
	FindRefreshTokenByHash(ctx context.Context, hash string) (*RefreshToken, error)
	UpdateRefreshToken(ctx context.Context, t *RefreshToken) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error)
}

// PasswordResetTokenStore persists reset tokens by hash. ConsumePasswordResetToken
// is a compare-and-set on the unused state.
type PasswordResetTokenStore interface {
	CreatePasswordResetToken(ctx context.Context, t *PasswordResetToken) (*PasswordResetToken, error)
	FindPasswordResetTokenByHash(ctx context.Context, hash string) (*PasswordResetToken, error)
	UpdatePasswordResetToken(ctx context.Context, t *PasswordResetToken) (*PasswordResetToken, error)
	ConsumePasswordResetToken(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	DeleteExpiredPasswordResetTokens(ctx context.Context, before time.Time) (int64, error)
}

// LoginAttemptStore appends attempts and counts failures since a cutoff.
type LoginAttemptStore interface {
	CreateLoginAttempt(ctx context.Context, a *LoginAttempt) (*LoginAttempt, error)
	CountFailedByIdentifier(ctx context.Context, identifier string, since time.Time) (int64, error)
	CountFailedByIP(ctx context.Context, ip string, since time.Time) (int64, error)
}

// SecurityQuestionStore reads the question catalog.
type SecurityQuestionStore interface {
	ActiveSecurityQuestions(ctx context.Context) ([]SecurityQuestion, error)
	FindSecurityQuestionByID(ctx context.Context, id uuid.UUID) (*SecurityQuestion, error)
}

// UserSecurityQuestionStore persists a user's answers.
//
// ReplaceUserSecurityQuestions deletes the user's whole set and inserts qs
// as one unit; readers see either the old set, nothing, or the new set.
type UserSecurityQuestionStore interface {
	CreateUserSecurityQuestion(ctx context.Context, q *UserSecurityQuestion) (*UserSecurityQuestion, error)
	FindUserSecurityQuestions(ctx context.Context, userID uuid.UUID) ([]UserSecurityQuestion, error)
	UpdateUserSecurityQuestion(ctx context.Context, q *UserSecurityQuestion) (*UserSecurityQuestion, error)
	DeleteUserSecurityQuestions(ctx context.Context, userID uuid.UUID) error
	ReplaceUserSecurityQuestions(ctx context.Context, userID uuid.UUID, qs []UserSecurityQuestion) error
}

// Store is the full Credential Store.
type Store interface {
	UserStore
	RefreshTokenStore
	PasswordResetTokenStore
	LoginAttemptStore
	SecurityQuestionStore
	UserSecurityQuestionStore
}
