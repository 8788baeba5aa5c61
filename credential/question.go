package credential

import (
	"time"

	"github.com/google/uuid"
)

// SecurityQuestion is a catalog entry users pick from.
type SecurityQuestion struct {
	ID        uuid.UUID
	Question  string
	IsActive  bool
	CreatedAt time.Time
}

// UserSecurityQuestion binds a catalog question to a user's hashed answer.
type UserSecurityQuestion struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	QuestionID uuid.UUID
	AnswerHash string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
