package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/MrEthical07/credauth/credential"
)

const userColumns = `id, email, phone, password_hash, role, is_verified, is_active,
	failed_login_attempts, locked_until, last_login_at, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *credential.User) (*credential.User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.Email, nullText(u.Phone), u.PasswordHash, string(u.Role), u.IsVerified, u.IsActive,
		u.FailedLoginAttempts, nullTime(u.LockedUntil), nullTime(u.LastLoginAt), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: create user: %w", err)
	}
	out := *u
	return &out, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (*credential.User, error) {
	return s.findUser(ctx, "id", id)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*credential.User, error) {
	return s.findUser(ctx, "lower(email)", strings.ToLower(email))
}

func (s *Store) FindUserByPhone(ctx context.Context, phone string) (*credential.User, error) {
	if phone == "" {
		return nil, nil
	}
	return s.findUser(ctx, "phone", phone)
}

func (s *Store) findUser(ctx context.Context, column string, arg any) (*credential.User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1 LIMIT 1`, arg)
	u, err := scanUser(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: find user by %s: %w", column, err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *credential.User) (*credential.User, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET email = $2, phone = $3, password_hash = $4, role = $5, is_verified = $6,
			is_active = $7, failed_login_attempts = $8, locked_until = $9, last_login_at = $10, updated_at = $11
		WHERE id = $1`,
		u.ID, u.Email, nullText(u.Phone), u.PasswordHash, string(u.Role), u.IsVerified,
		u.IsActive, u.FailedLoginAttempts, nullTime(u.LockedUntil), nullTime(u.LastLoginAt), u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func scanUser(row pgx.Row) (*credential.User, error) {
	var (
		u           credential.User
		phone       pgtype.Text
		role        string
		lockedUntil pgtype.Timestamptz
		lastLogin   pgtype.Timestamptz
	)
	err := row.Scan(&u.ID, &u.Email, &phone, &u.PasswordHash, &role, &u.IsVerified, &u.IsActive,
		&u.FailedLoginAttempts, &lockedUntil, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Phone = phone.String
	u.Role = credential.Role(role)
	u.LockedUntil = timePtr(lockedUntil)
	u.LastLoginAt = timePtr(lastLogin)
	return &u, nil
}
