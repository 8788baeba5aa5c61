package policy

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Limits on a security-question submission.
const (
	MinQuestions    = 2
	MaxQuestions    = 5
	MinAnswerLength = 2
	MaxAnswerLength = 200
)

// QuestionRules bounds a setup submission. Zero fields fall back to the
// package constants.
type QuestionRules struct {
	MinQuestions int
	MaxQuestions int
	MinAnswer    int
	MaxAnswer    int
}

func (r QuestionRules) withDefaults() QuestionRules {
	if r.MinQuestions <= 0 {
		r.MinQuestions = MinQuestions
	}
	if r.MaxQuestions <= 0 {
		r.MaxQuestions = MaxQuestions
	}
	if r.MinAnswer <= 0 {
		r.MinAnswer = MinAnswerLength
	}
	if r.MaxAnswer <= 0 {
		r.MaxAnswer = MaxAnswerLength
	}
	return r
}

// Answer is one question/answer pair as submitted.
type Answer struct {
	QuestionID uuid.UUID
	Answer     string
}

// ErrQuestionCount, ErrDuplicateQuestion and ErrAnswerLength describe a
// rejected setup submission.
var (
	ErrQuestionCount     = errors.New("invalid number of security questions")
	ErrDuplicateQuestion = errors.New("duplicate security question")
	ErrAnswerLength      = errors.New("invalid security answer length")
)

// ValidateSetup checks count, uniqueness and answer length. Catalog
// membership needs the store and is checked by the caller.
func ValidateSetup(answers []Answer, rules QuestionRules) error {
	rules = rules.withDefaults()
	if len(answers) < rules.MinQuestions || len(answers) > rules.MaxQuestions {
		return fmt.Errorf("%w: must provide between %d and %d security questions",
			ErrQuestionCount, rules.MinQuestions, rules.MaxQuestions)
	}

	seen := make(map[uuid.UUID]struct{}, len(answers))
	for _, a := range answers {
		if _, dup := seen[a.QuestionID]; dup {
			return fmt.Errorf("%w: duplicate question ids are not allowed", ErrDuplicateQuestion)
		}
		seen[a.QuestionID] = struct{}{}

		n := utf8.RuneCountInString(strings.TrimSpace(a.Answer))
		if n < rules.MinAnswer || n > rules.MaxAnswer {
			return fmt.Errorf("%w: answers must be between %d and %d characters",
				ErrAnswerLength, rules.MinAnswer, rules.MaxAnswer)
		}
	}
	return nil
}

// NormalizeAnswer is applied before hashing at setup and before verifying.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StoredAnswer is the hash bound to a question for one user.
type StoredAnswer struct {
	QuestionID uuid.UUID
	AnswerHash string
}

// MatchAnswers reports whether provided answers every stored question
// exactly once and verify accepts each pair. An empty stored set never
// matches. verify receives the normalized answer.
func MatchAnswers(stored []StoredAnswer, provided []Answer, verify func(answer, hash string) (bool, error)) (bool, error) {
	if len(stored) == 0 || len(provided) != len(stored) {
		return false, nil
	}

	hashes := make(map[uuid.UUID]string, len(stored))
	for _, s := range stored {
		hashes[s.QuestionID] = s.AnswerHash
	}

	used := make(map[uuid.UUID]struct{}, len(provided))
	for _, p := range provided {
		hash, ok := hashes[p.QuestionID]
		if !ok {
			return false, nil
		}
		if _, dup := used[p.QuestionID]; dup {
			return false, nil
		}
		used[p.QuestionID] = struct{}{}

		ok, err := verify(NormalizeAnswer(p.Answer), hash)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
