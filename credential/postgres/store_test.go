package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/credential/postgres"
)

var userCols = []string{
	"id", "email", "phone", "password_hash", "role", "is_verified", "is_active",
	"failed_login_attempts", "locked_until", "last_login_at", "created_at", "updated_at",
}

var refreshCols = []string{
	"id", "user_id", "token_hash", "device_info", "ip_address", "user_agent",
	"expires_at", "is_revoked", "created_at", "revoked_at",
}

// TestFindUserByEmail covers found, absent and failing lookups.
func TestFindUserByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := postgres.New(mock)
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs("a@b.com").
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(id.String(), "a@b.com", "+15550001111", "hash", "tenant", true, true, 2, nil, nil, now, now))

		u, err := store.FindUserByEmail(ctx, "A@b.com")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, id, u.ID)
		assert.Equal(t, "+15550001111", u.Phone)
		assert.Equal(t, credential.RoleTenant, u.Role)
		assert.Equal(t, 2, u.FailedLoginAttempts)
		assert.Nil(t, u.LockedUntil)
	})

	t.Run("non-ascii email folds like sql lower", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs("élodie@b.com").
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(id.String(), "élodie@b.com", nil, "hash", "tenant", true, true, 0, nil, nil, now, now))

		u, err := store.FindUserByEmail(ctx, "ÉLODIE@B.COM")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, id, u.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs("missing@b.com").
			WillReturnError(pgx.ErrNoRows)

		u, err := store.FindUserByEmail(ctx, "missing@b.com")
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs("a@b.com").
			WillReturnError(errors.New("connection reset"))

		_, err := store.FindUserByEmail(ctx, "a@b.com")
		assert.Error(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

// TestUpdateUserMissingRow returns nil without an error.
func TestUpdateUserMissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := postgres.New(mock)
	u := &credential.User{ID: uuid.New(), Email: "a@b.com", UpdatedAt: time.Now()}

	mock.ExpectExec("UPDATE users SET").
		WithArgs(u.ID, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	got, err := store.UpdateUser(context.Background(), u)
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestRevokeRefreshToken is a conditional update; zero affected rows means
// another redemption already won.
func TestRevokeRefreshToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := postgres.New(mock)
	ctx := context.Background()
	id := uuid.New()
	at := time.Now()

	t.Run("winner", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens SET is_revoked = TRUE").
			WithArgs(id, at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := store.RevokeRefreshToken(ctx, id, at)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("already revoked", func(t *testing.T) {
		mock.ExpectExec("UPDATE refresh_tokens SET is_revoked = TRUE").
			WithArgs(id, at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := store.RevokeRefreshToken(ctx, id, at)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAllRefreshTokens(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := postgres.New(mock)
	userID := uuid.New()
	at := time.Now()

	mock.ExpectExec("UPDATE refresh_tokens SET is_revoked = TRUE").
		WithArgs(userID, at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := store.RevokeAllRefreshTokens(context.Background(), userID, at)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindRefreshTokenByHash(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := postgres.New(mock)
	ctx := context.Background()
	id, userID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT id, user_id, token_hash").
		WithArgs("abc").
		WillReturnRows(pgxmock.NewRows(refreshCols).
			AddRow(id.String(), userID.String(), "abc", "iphone", "10.0.0.1", "ua", now.Add(time.Hour), false, now, nil))

	tok, err := store.FindRefreshTokenByHash(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, userID, tok.UserID)
	assert.Equal(t, "iphone", tok.Device.DeviceInfo)
	assert.True(t, tok.IsValid(now))

	mock.ExpectQuery("SELECT id, user_id, token_hash").
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	tok, err = store.FindRefreshTokenByHash(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, tok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumePasswordResetToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := postgres.New(mock)
	id := uuid.New()
	at := time.Now()

	mock.ExpectExec("UPDATE password_reset_tokens SET is_used = TRUE").
		WithArgs(id, at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE password_reset_tokens SET is_used = TRUE").
		WithArgs(id, at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	first, err := store.ConsumePasswordResetToken(context.Background(), id, at)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.ConsumePasswordResetToken(context.Background(), id, at)
	require.NoError(t, err)
	assert.False(t, second)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountFailedByIdentifier(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := postgres.New(mock)
	since := time.Now().Add(-15 * time.Minute)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("a@b.com", since).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))

	n, err := store.CountFailedByIdentifier(context.Background(), "a@b.com", since)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestReplaceUserSecurityQuestions checks delete-then-insert runs inside one
// transaction and rolls back on a failed insert.
func TestReplaceUserSecurityQuestions(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := postgres.New(mock)
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()
	qs := []credential.UserSecurityQuestion{
		{ID: uuid.New(), UserID: userID, QuestionID: uuid.New(), AnswerHash: "h1", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), UserID: userID, QuestionID: uuid.New(), AnswerHash: "h2", CreatedAt: now, UpdatedAt: now},
	}

	t.Run("commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM user_security_questions").
			WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))
		for _, q := range qs {
			mock.ExpectExec("INSERT INTO user_security_questions").
				WithArgs(q.ID, userID, q.QuestionID, q.AnswerHash, q.CreatedAt, q.UpdatedAt).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}
		mock.ExpectCommit()

		require.NoError(t, store.ReplaceUserSecurityQuestions(ctx, userID, qs))
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM user_security_questions").
			WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))
		mock.ExpectExec("INSERT INTO user_security_questions").
			WithArgs(qs[0].ID, userID, qs[0].QuestionID, qs[0].AnswerHash, qs[0].CreatedAt, qs[0].UpdatedAt).
			WillReturnError(errors.New("unique violation"))
		mock.ExpectRollback()

		assert.Error(t, store.ReplaceUserSecurityQuestions(ctx, userID, qs))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

// TestSchemaIndexesLowerEmail keeps case-insensitive lookups on an index.
func TestSchemaIndexesLowerEmail(t *testing.T) {
	assert.Contains(t, postgres.Schema, "ON users (lower(email))")
}
