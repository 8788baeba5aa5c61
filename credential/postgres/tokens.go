package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/MrEthical07/credauth/credential"
)

const refreshColumns = `id, user_id, token_hash, device_info, ip_address, user_agent,
	expires_at, is_revoked, created_at, revoked_at`

func (s *Store) CreateRefreshToken(ctx context.Context, t *credential.RefreshToken) (*credential.RefreshToken, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (`+refreshColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.UserID, t.TokenHash, nullText(t.Device.DeviceInfo), nullText(t.Device.IPAddress),
		nullText(t.Device.UserAgent), t.ExpiresAt, t.IsRevoked, t.CreatedAt, nullTime(t.RevokedAt))
	if err != nil {
		return nil, fmt.Errorf("postgres: create refresh token: %w", err)
	}
	out := *t
	return &out, nil
}

func (s *Store) FindRefreshTokenByHash(ctx context.Context, hash string) (*credential.RefreshToken, error) {
	row := s.db.QueryRow(ctx, `SELECT `+refreshColumns+` FROM refresh_tokens WHERE token_hash = $1`, hash)
	t, err := scanRefresh(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: find refresh token: %w", err)
	}
	return t, nil
}

// UpdateRefreshToken never clears a revocation: is_revoked only moves to true.
func (s *Store) UpdateRefreshToken(ctx context.Context, t *credential.RefreshToken) (*credential.RefreshToken, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE refresh_tokens SET device_info = $2, ip_address = $3, user_agent = $4, expires_at = $5,
			is_revoked = is_revoked OR $6, revoked_at = COALESCE(revoked_at, $7)
		WHERE id = $1`,
		t.ID, nullText(t.Device.DeviceInfo), nullText(t.Device.IPAddress), nullText(t.Device.UserAgent),
		t.ExpiresAt, t.IsRevoked, nullTime(t.RevokedAt))
	if err != nil {
		return nil, fmt.Errorf("postgres: update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	out := *t
	return &out, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE, revoked_at = $2 WHERE id = $1 AND is_revoked = FALSE`,
		id, at)
	if err != nil {
		return false, fmt.Errorf("postgres: revoke refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE refresh_tokens SET is_revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND is_revoked = FALSE`,
		userID, at)
	if err != nil {
		return 0, fmt.Errorf("postgres: revoke user refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRefresh(row pgx.Row) (*credential.RefreshToken, error) {
	var (
		t                     credential.RefreshToken
		deviceInfo, ip, agent pgtype.Text
		revokedAt             pgtype.Timestamptz
	)
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &deviceInfo, &ip, &agent,
		&t.ExpiresAt, &t.IsRevoked, &t.CreatedAt, &revokedAt)
	if err != nil {
		return nil, err
	}
	t.Device = credential.DeviceContext{DeviceInfo: deviceInfo.String, IPAddress: ip.String, UserAgent: agent.String}
	t.RevokedAt = timePtr(revokedAt)
	return &t, nil
}

const resetColumns = `id, user_id, token_hash, expires_at, is_used, created_at, used_at`

func (s *Store) CreatePasswordResetToken(ctx context.Context, t *credential.PasswordResetToken) (*credential.PasswordResetToken, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO password_reset_tokens (`+resetColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.IsUsed, t.CreatedAt, nullTime(t.UsedAt))
	if err != nil {
		return nil, fmt.Errorf("postgres: create password reset token: %w", err)
	}
	out := *t
	return &out, nil
}

func (s *Store) FindPasswordResetTokenByHash(ctx context.Context, hash string) (*credential.PasswordResetToken, error) {
	row := s.db.QueryRow(ctx, `SELECT `+resetColumns+` FROM password_reset_tokens WHERE token_hash = $1`, hash)
	var (
		t      credential.PasswordResetToken
		usedAt pgtype.Timestamptz
	)
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.IsUsed, &t.CreatedAt, &usedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: find password reset token: %w", err)
	}
	t.UsedAt = timePtr(usedAt)
	return &t, nil
}

func (s *Store) UpdatePasswordResetToken(ctx context.Context, t *credential.PasswordResetToken) (*credential.PasswordResetToken, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE password_reset_tokens SET expires_at = $2, is_used = is_used OR $3, used_at = COALESCE(used_at, $4)
		WHERE id = $1`,
		t.ID, t.ExpiresAt, t.IsUsed, nullTime(t.UsedAt))
	if err != nil {
		return nil, fmt.Errorf("postgres: update password reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	out := *t
	return &out, nil
}

func (s *Store) ConsumePasswordResetToken(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE password_reset_tokens SET is_used = TRUE, used_at = $2 WHERE id = $1 AND is_used = FALSE`,
		id, at)
	if err != nil {
		return false, fmt.Errorf("postgres: consume password reset token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) DeleteExpiredPasswordResetTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete expired password reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
