package postgres

import (
	"context"
	"fmt"
)

// Schema creates every table the store reads and writes. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id                    UUID PRIMARY KEY,
	email                 TEXT NOT NULL UNIQUE,
	phone                 TEXT UNIQUE,
	password_hash         TEXT NOT NULL,
	role                  TEXT NOT NULL,
	is_verified           BOOLEAN NOT NULL DEFAULT FALSE,
	is_active             BOOLEAN NOT NULL DEFAULT TRUE,
	failed_login_attempts INTEGER NOT NULL DEFAULT 0,
	locked_until          TIMESTAMPTZ,
	last_login_at         TIMESTAMPTZ,
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email));

CREATE TABLE IF NOT EXISTS refresh_tokens (
	id          UUID PRIMARY KEY,
	user_id     UUID NOT NULL REFERENCES users(id),
	token_hash  TEXT NOT NULL UNIQUE,
	device_info TEXT,
	ip_address  TEXT,
	user_agent  TEXT,
	expires_at  TIMESTAMPTZ NOT NULL,
	is_revoked  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL,
	revoked_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS refresh_tokens_user_idx ON refresh_tokens (user_id);

CREATE TABLE IF NOT EXISTS password_reset_tokens (
	id         UUID PRIMARY KEY,
	user_id    UUID NOT NULL REFERENCES users(id),
	token_hash TEXT NOT NULL UNIQUE,
	expires_at TIMESTAMPTZ NOT NULL,
	is_used    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	used_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS login_attempts (
	id             UUID PRIMARY KEY,
	identifier     TEXT NOT NULL,
	ip_address     TEXT NOT NULL,
	user_agent     TEXT,
	is_successful  BOOLEAN NOT NULL,
	failure_reason TEXT,
	country        TEXT,
	city           TEXT,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS login_attempts_identifier_idx ON login_attempts (identifier, created_at);
CREATE INDEX IF NOT EXISTS login_attempts_ip_idx ON login_attempts (ip_address, created_at);

CREATE TABLE IF NOT EXISTS security_questions (
	id         UUID PRIMARY KEY,
	question   TEXT NOT NULL,
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS user_security_questions (
	id          UUID PRIMARY KEY,
	user_id     UUID NOT NULL REFERENCES users(id),
	question_id UUID NOT NULL REFERENCES security_questions(id),
	answer_hash TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, question_id)
);
`

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}
