package credential

import (
	"time"

	"github.com/google/uuid"
)

// Role is the coarse role claim carried in access tokens.
type Role string

const (
	RoleSuperAdmin      Role = "super_admin"
	RoleAdmin           Role = "admin"
	RolePropertyManager Role = "property_manager"
	RoleTenant          Role = "tenant"
	RoleLandlord        Role = "landlord"
	RoleMaintenance     Role = "maintenance"
	RoleGuest           Role = "guest"
)

// User is the identity record. Registration creates it elsewhere; this
// module only mutates it through the methods below.
type User struct {
	ID                  uuid.UUID
	Email               string
	Phone               string
	PasswordHash        string
	Role                Role
	IsVerified          bool
	IsActive            bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsLocked reports whether LockedUntil is set and still in the future.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// CanLogin returns the account-state error that blocks authentication, or
// nil. Inactive wins over locked, which wins over unverified.
func (u *User) CanLogin(now time.Time) error {
	if !u.IsActive {
		return ErrAccountInactive
	}
	if u.IsLocked(now) {
		return ErrAccountLocked
	}
	if !u.IsVerified {
		return ErrAccountNotVerified
	}
	return nil
}

// RecordFailedLogin bumps the failure counter and sets LockedUntil once the
// counter reaches maxAttempts. It reports whether the account is now locked.
func (u *User) RecordFailedLogin(maxAttempts int, lockout time.Duration, now time.Time) bool {
	u.FailedLoginAttempts++
	u.UpdatedAt = now
	if maxAttempts > 0 && u.FailedLoginAttempts >= maxAttempts {
		until := now.Add(lockout)
		u.LockedUntil = &until
		return true
	}
	return false
}

// RecordSuccessfulLogin clears the failure counter and lockout and stamps
// LastLoginAt.
func (u *User) RecordSuccessfulLogin(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	at := now
	u.LastLoginAt = &at
	u.UpdatedAt = now
}

// Unlock clears a lockout without counting as a login.
func (u *User) Unlock(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = now
}

// MarkVerified flags the user as having proven control of an identifier.
func (u *User) MarkVerified(now time.Time) {
	u.IsVerified = true
	u.UpdatedAt = now
}

// ChangePassword replaces the hash and lifts any lockout.
func (u *User) ChangePassword(hash string, now time.Time) {
	u.PasswordHash = hash
	u.Unlock(now)
}
