package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/internal/policy"
)

// SecurityQuestionMetrics carries metric IDs used by the question flows.
type SecurityQuestionMetrics struct {
	Set           int
	VerifySuccess int
	VerifyFailure int
}

// SecurityQuestionDeps captures security-question dependencies.
type SecurityQuestionDeps struct {
	Users   credential.UserStore
	Catalog credential.SecurityQuestionStore
	Answers credential.UserSecurityQuestionStore
	Hasher  Hasher
	Rules   policy.QuestionRules

	// Throttle bounds wrong answer sets per user to MaxVerifyFailures per
	// VerifyWindow. A nil Throttle or zero MaxVerifyFailures disables it.
	Throttle          QuestionThrottle
	MaxVerifyFailures int
	VerifyWindow      time.Duration

	Metrics  SecurityQuestionMetrics
	Errors   Errors
	Observer Observer
}

// QuestionThrottle counts wrong answer sets per user.
type QuestionThrottle interface {
	QuestionFailures(ctx context.Context, userID uuid.UUID) (int64, error)
	RecordQuestionFailure(ctx context.Context, userID uuid.UUID, window time.Duration) (int64, error)
	ClearQuestionFailures(ctx context.Context, userID uuid.UUID) error
}

func (d SecurityQuestionDeps) throttled() bool {
	return d.Throttle != nil && d.MaxVerifyFailures > 0
}

func (d SecurityQuestionDeps) ready() bool {
	return d.Users != nil && d.Catalog != nil && d.Answers != nil && d.Hasher != nil
}

// RunSetSecurityQuestions replaces the user's question set. Everything is
// validated, including catalog membership, before the store is touched.
func RunSetSecurityQuestions(ctx context.Context, userID uuid.UUID, answers []policy.Answer, deps SecurityQuestionDeps) error {
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}
	if userID == uuid.Nil {
		return deps.Errors.Validation
	}
	if err := policy.ValidateSetup(answers, deps.Rules); err != nil {
		return fmt.Errorf("%w: %v", deps.Errors.Validation, err)
	}

	user, err := deps.Users.FindUserByID(ctx, userID)
	if err != nil {
		return deps.Errors.internal("find user", err)
	}
	if user == nil {
		return deps.Errors.UserNotFound
	}

	for _, a := range answers {
		q, err := deps.Catalog.FindSecurityQuestionByID(ctx, a.QuestionID)
		if err != nil {
			return deps.Errors.internal("find security question", err)
		}
		if q == nil || !q.IsActive {
			return fmt.Errorf("%w: unknown security question %s", deps.Errors.Validation, a.QuestionID)
		}
	}

	now := deps.Observer.now()
	set := make([]credential.UserSecurityQuestion, 0, len(answers))
	for _, a := range answers {
		hash, err := deps.Hasher.Hash(ctx, policy.NormalizeAnswer(a.Answer))
		if err != nil {
			return deps.Errors.internal("hash answer", err)
		}
		set = append(set, credential.UserSecurityQuestion{
			ID:         uuid.New(),
			UserID:     userID,
			QuestionID: a.QuestionID,
			AnswerHash: hash,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := deps.Answers.ReplaceUserSecurityQuestions(ctx, userID, set); err != nil {
		return deps.Errors.internal("replace security questions", err)
	}

	deps.Observer.inc(deps.Metrics.Set)
	deps.Observer.emit(ctx, audit.Event{
		EventType: audit.EventSecurityQuestionsSet,
		UserID:    userID.String(),
		Success:   true,
	})
	return nil
}

// RunVerifySecurityQuestions succeeds only when every stored question is
// answered exactly once and correctly.
func RunVerifySecurityQuestions(ctx context.Context, userID uuid.UUID, answers []policy.Answer, deps SecurityQuestionDeps) error {
	if !deps.ready() {
		return deps.Errors.EngineNotReady
	}

	if deps.throttled() {
		n, err := deps.Throttle.QuestionFailures(ctx, userID)
		if err != nil {
			return deps.Errors.internal("question throttle", err)
		}
		if n >= int64(deps.MaxVerifyFailures) {
			deps.Observer.inc(deps.Metrics.VerifyFailure)
			deps.Observer.emit(ctx, audit.Event{
				EventType: audit.EventSecurityQuestionsVerify,
				UserID:    userID.String(),
				Reason:    "rate_limited",
			})
			return deps.Errors.RateLimited
		}
	}

	stored, err := deps.Answers.FindUserSecurityQuestions(ctx, userID)
	if err != nil {
		return deps.Errors.internal("load security questions", err)
	}

	hashes := make([]policy.StoredAnswer, len(stored))
	for i, q := range stored {
		hashes[i] = policy.StoredAnswer{QuestionID: q.QuestionID, AnswerHash: q.AnswerHash}
	}

	ok, err := policy.MatchAnswers(hashes, answers, func(answer, hash string) (bool, error) {
		return deps.Hasher.Verify(ctx, answer, hash)
	})
	if err != nil {
		return deps.Errors.internal("verify answer", err)
	}

	event := audit.Event{
		EventType: audit.EventSecurityQuestionsVerify,
		UserID:    userID.String(),
		Success:   ok,
	}
	if !ok {
		if deps.throttled() {
			if _, err := deps.Throttle.RecordQuestionFailure(ctx, userID, deps.VerifyWindow); err != nil {
				return deps.Errors.internal("record question failure", err)
			}
		}
		event.Reason = "mismatch"
		deps.Observer.inc(deps.Metrics.VerifyFailure)
		deps.Observer.emit(ctx, event)
		return deps.Errors.SecurityQuestionFailed
	}
	if deps.throttled() {
		if err := deps.Throttle.ClearQuestionFailures(ctx, userID); err != nil {
			deps.Observer.warn("credauth: clear question failures failed", "user_id", userID.String(), "error", err)
		}
	}
	deps.Observer.inc(deps.Metrics.VerifySuccess)
	deps.Observer.emit(ctx, event)
	return nil
}

// RunListSecurityQuestions returns the active catalog.
func RunListSecurityQuestions(ctx context.Context, deps SecurityQuestionDeps) ([]credential.SecurityQuestion, error) {
	if deps.Catalog == nil {
		return nil, deps.Errors.EngineNotReady
	}
	qs, err := deps.Catalog.ActiveSecurityQuestions(ctx)
	if err != nil {
		return nil, deps.Errors.internal("list security questions", err)
	}
	return qs, nil
}

// RunUserSecurityQuestions returns the catalog entries a user has answered,
// in the stored order. Answer hashes are never returned.
func RunUserSecurityQuestions(ctx context.Context, userID uuid.UUID, deps SecurityQuestionDeps) ([]credential.SecurityQuestion, error) {
	if deps.Catalog == nil || deps.Answers == nil {
		return nil, deps.Errors.EngineNotReady
	}
	stored, err := deps.Answers.FindUserSecurityQuestions(ctx, userID)
	if err != nil {
		return nil, deps.Errors.internal("load security questions", err)
	}

	out := make([]credential.SecurityQuestion, 0, len(stored))
	for _, s := range stored {
		q, err := deps.Catalog.FindSecurityQuestionByID(ctx, s.QuestionID)
		if err != nil {
			return nil, deps.Errors.internal("find security question", err)
		}
		if q != nil {
			out = append(out, *q)
		}
	}
	return out, nil
}
