package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/credauth/credential"
)

func (s *Store) CreateLoginAttempt(ctx context.Context, a *credential.LoginAttempt) (*credential.LoginAttempt, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO login_attempts (id, identifier, ip_address, user_agent, is_successful, failure_reason, country, city, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Identifier, a.IPAddress, nullText(a.UserAgent), a.IsSuccessful, nullText(a.FailureReason),
		nullText(a.Country), nullText(a.City), a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: create login attempt: %w", err)
	}
	out := *a
	return &out, nil
}

func (s *Store) CountFailedByIdentifier(ctx context.Context, identifier string, since time.Time) (int64, error) {
	return s.countFailed(ctx, "identifier", identifier, since)
}

func (s *Store) CountFailedByIP(ctx context.Context, ip string, since time.Time) (int64, error) {
	return s.countFailed(ctx, "ip_address", ip, since)
}

func (s *Store) countFailed(ctx context.Context, column, value string, since time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM login_attempts WHERE `+column+` = $1 AND is_successful = FALSE AND created_at >= $2`,
		value, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count failed attempts by %s: %w", column, err)
	}
	return n, nil
}
