package credential

import (
	"time"

	"github.com/google/uuid"
)

// DeviceContext is the optional client context bound to a refresh token.
type DeviceContext struct {
	DeviceInfo string
	IPAddress  string
	UserAgent  string
}

// RefreshToken stores the SHA-256 of an opaque refresh secret.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	Device    DeviceContext
	ExpiresAt time.Time
	IsRevoked bool
	CreatedAt time.Time
	RevokedAt *time.Time
}

// NewRefreshToken builds an unrevoked token expiring after ttl.
func NewRefreshToken(userID uuid.UUID, tokenHash string, device DeviceContext, ttl time.Duration, now time.Time) *RefreshToken {
	return &RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		Device:    device,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// IsValid reports !IsRevoked && now < ExpiresAt.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.IsRevoked && now.Before(t.ExpiresAt)
}

// Revoke marks the token revoked. A token is revoked at most once; later
// calls keep the first RevokedAt.
func (t *RefreshToken) Revoke(now time.Time) {
	if t.IsRevoked {
		return
	}
	t.IsRevoked = true
	at := now
	t.RevokedAt = &at
}

// PasswordResetToken is a single-use recovery credential.
type PasswordResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
	UsedAt    *time.Time
}

// NewPasswordResetToken builds an unused token expiring after ttl.
func NewPasswordResetToken(userID uuid.UUID, tokenHash string, ttl time.Duration, now time.Time) *PasswordResetToken {
	return &PasswordResetToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// IsValid reports !IsUsed && now < ExpiresAt.
func (t *PasswordResetToken) IsValid(now time.Time) bool {
	return !t.IsUsed && now.Before(t.ExpiresAt)
}

// MarkUsed is permanent.
func (t *PasswordResetToken) MarkUsed(now time.Time) {
	if t.IsUsed {
		return
	}
	t.IsUsed = true
	at := now
	t.UsedAt = &at
}
