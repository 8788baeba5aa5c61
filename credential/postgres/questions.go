package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrEthical07/credauth/credential"
)

func (s *Store) ActiveSecurityQuestions(ctx context.Context) ([]credential.SecurityQuestion, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, question, is_active, created_at FROM security_questions WHERE is_active = TRUE ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list security questions: %w", err)
	}
	defer rows.Close()

	var out []credential.SecurityQuestion
	for rows.Next() {
		var q credential.SecurityQuestion
		if err := rows.Scan(&q.ID, &q.Question, &q.IsActive, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan security question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list security questions: %w", err)
	}
	return out, nil
}

func (s *Store) FindSecurityQuestionByID(ctx context.Context, id uuid.UUID) (*credential.SecurityQuestion, error) {
	var q credential.SecurityQuestion
	err := s.db.QueryRow(ctx,
		`SELECT id, question, is_active, created_at FROM security_questions WHERE id = $1`, id).
		Scan(&q.ID, &q.Question, &q.IsActive, &q.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres: find security question: %w", err)
	}
	return &q, nil
}

const insertUserQuestion = `
	INSERT INTO user_security_questions (id, user_id, question_id, answer_hash, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

func (s *Store) CreateUserSecurityQuestion(ctx context.Context, q *credential.UserSecurityQuestion) (*credential.UserSecurityQuestion, error) {
	_, err := s.db.Exec(ctx, insertUserQuestion, q.ID, q.UserID, q.QuestionID, q.AnswerHash, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: create user security question: %w", err)
	}
	out := *q
	return &out, nil
}

func (s *Store) FindUserSecurityQuestions(ctx context.Context, userID uuid.UUID) ([]credential.UserSecurityQuestion, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, question_id, answer_hash, created_at, updated_at
		FROM user_security_questions WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list user security questions: %w", err)
	}
	defer rows.Close()

	var out []credential.UserSecurityQuestion
	for rows.Next() {
		var q credential.UserSecurityQuestion
		if err := rows.Scan(&q.ID, &q.UserID, &q.QuestionID, &q.AnswerHash, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan user security question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list user security questions: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateUserSecurityQuestion(ctx context.Context, q *credential.UserSecurityQuestion) (*credential.UserSecurityQuestion, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE user_security_questions SET answer_hash = $2, updated_at = $3 WHERE id = $1`,
		q.ID, q.AnswerHash, q.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: update user security question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	out := *q
	return &out, nil
}

func (s *Store) DeleteUserSecurityQuestions(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM user_security_questions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("postgres: delete user security questions: %w", err)
	}
	return nil
}

// ReplaceUserSecurityQuestions runs the delete and every insert in one
// transaction.
func (s *Store) ReplaceUserSecurityQuestions(ctx context.Context, userID uuid.UUID, qs []credential.UserSecurityQuestion) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin replace security questions: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM user_security_questions WHERE user_id = $1`, userID); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("postgres: delete user security questions: %w", err)
	}

	for _, q := range qs {
		if _, err := tx.Exec(ctx, insertUserQuestion, q.ID, userID, q.QuestionID, q.AnswerHash, q.CreatedAt, q.UpdatedAt); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("postgres: insert user security question: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit security questions: %w", err)
	}
	return nil
}
