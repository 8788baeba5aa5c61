package session

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	sessionPrefix    = "session:"
	tokenPrefix      = "token:"
	otpPrefix        = "otp:"
	otpRatePrefix    = "otp_rate_limit:"
	otpAttemptPrefix = "otp_attempts:"
	blacklistPrefix  = "blacklist:"
	questionPrefix   = "question_attempts:"
)

func SessionKey(userID uuid.UUID) string { return sessionPrefix + userID.String() }
func TokenKey(accessToken string) string { return tokenPrefix + accessToken }
func OTPKey(identifier string) string { return otpPrefix + identifier }
func OTPRateKey(identifier string) string { return otpRatePrefix + identifier }
func OTPAttemptKey(identifier string) string { return otpAttemptPrefix + identifier }
func BlacklistKey(jti string) string { return blacklistPrefix + jti }
func QuestionAttemptKey(userID uuid.UUID) string { return questionPrefix + userID.String() }

// Store enforces key conventions and TTLs over a [Cache].
type Store struct {
	cache Cache
}

// NewStore wraps cache.
func NewStore(cache Cache) *Store {
	return &Store{cache: cache}
}

// PutSession maps userID to accessToken and back. A previous token of the
// same user loses its reverse mapping in the same write, even when logins
// for the user race.
func (s *Store) PutSession(ctx context.Context, userID uuid.UUID, accessToken string, ttl time.Duration) error {
	return s.cache.Update(ctx, SessionKey(userID), func(prev string, ok bool) (Mutation, error) {
		m := Mutation{
			Set: map[string]string{
				SessionKey(userID):    accessToken,
				TokenKey(accessToken): userID.String(),
			},
			TTL: ttl,
		}
		if ok && prev != accessToken {
			m.Delete = []string{TokenKey(prev)}
		}
		return m, nil
	})
}

// SessionToken returns the access token currently bound to userID.
func (s *Store) SessionToken(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	return s.cache.Get(ctx, SessionKey(userID))
}

// SessionUser returns the user bound to accessToken. A malformed value is
// treated as absent.
func (s *Store) SessionUser(ctx context.Context, accessToken string) (uuid.UUID, bool, error) {
	v, ok, err := s.cache.Get(ctx, TokenKey(accessToken))
	if err != nil || !ok {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

// IsActiveSession reports whether both directions agree that accessToken is
// the current session of userID.
func (s *Store) IsActiveSession(ctx context.Context, userID uuid.UUID, accessToken string) (bool, error) {
	owner, ok, err := s.SessionUser(ctx, accessToken)
	if err != nil || !ok || owner != userID {
		return false, err
	}
	current, ok, err := s.SessionToken(ctx, userID)
	if err != nil || !ok {
		return false, err
	}
	return current == accessToken, nil
}

// InvalidateSession removes both directions and returns the access token
// that was bound, if any.
func (s *Store) InvalidateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	var bound string
	err := s.cache.Update(ctx, SessionKey(userID), func(prev string, ok bool) (Mutation, error) {
		bound = ""
		if !ok {
			return Mutation{}, nil
		}
		bound = prev
		return Mutation{Delete: []string{SessionKey(userID), TokenKey(prev)}}, nil
	})
	if err != nil {
		return "", err
	}
	return bound, nil
}

// InvalidateSessionIf removes both directions only while accessToken is
// still the bound token. It reports whether it removed anything.
func (s *Store) InvalidateSessionIf(ctx context.Context, userID uuid.UUID, accessToken string) (bool, error) {
	var removed bool
	err := s.cache.Update(ctx, SessionKey(userID), func(prev string, ok bool) (Mutation, error) {
		removed = ok && prev == accessToken
		if !removed {
			return Mutation{}, nil
		}
		return Mutation{Delete: []string{SessionKey(userID), TokenKey(prev)}}, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// RefreshSessionTTL extends both directions. A missing session is a no-op.
func (s *Store) RefreshSessionTTL(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	return s.cache.Update(ctx, SessionKey(userID), func(token string, ok bool) (Mutation, error) {
		if !ok {
			return Mutation{}, nil
		}
		return Mutation{
			Set: map[string]string{
				SessionKey(userID): token,
				TokenKey(token):    userID.String(),
			},
			TTL: ttl,
		}, nil
	})
}

// PutOTP stores a code, replacing any pending one and its mismatch count.
func (s *Store) PutOTP(ctx context.Context, identifier, code string, ttl time.Duration) error {
	return s.cache.Apply(ctx, Mutation{
		Set:    map[string]string{OTPKey(identifier): code},
		TTL:    ttl,
		Delete: []string{OTPAttemptKey(identifier)},
	})
}

// OTP returns the pending code for identifier.
func (s *Store) OTP(ctx context.Context, identifier string) (string, bool, error) {
	return s.cache.Get(ctx, OTPKey(identifier))
}

// ConsumeOTP deletes the pending code of identifier if match accepts it.
// Of several concurrent callers holding the right code exactly one gets
// OTPConsumed; the rest see OTPMissing.
func (s *Store) ConsumeOTP(ctx context.Context, identifier string, match func(stored string) bool) (OTPResult, error) {
	result := OTPMissing
	err := s.cache.Update(ctx, OTPKey(identifier), func(stored string, ok bool) (Mutation, error) {
		switch {
		case !ok:
			result = OTPMissing
			return Mutation{}, nil
		case !match(stored):
			result = OTPMismatch
			return Mutation{}, nil
		}
		result = OTPConsumed
		return Mutation{Delete: []string{OTPKey(identifier), OTPAttemptKey(identifier)}}, nil
	})
	if err != nil {
		return OTPMissing, err
	}
	return result, nil
}

// OTPResult is the outcome of ConsumeOTP.
type OTPResult int

const (
	OTPMissing OTPResult = iota
	OTPMismatch
	OTPConsumed
)

// DeleteOTP drops the code and its mismatch count.
func (s *Store) DeleteOTP(ctx context.Context, identifier string) error {
	return s.cache.Delete(ctx, OTPKey(identifier), OTPAttemptKey(identifier))
}

// OTPSendCount returns the sends recorded in the current window.
func (s *Store) OTPSendCount(ctx context.Context, identifier string) (int64, error) {
	return s.counter(ctx, OTPRateKey(identifier))
}

// IncrementOTPSend counts one send. The first send of a window starts the
// window; later sends keep its TTL.
func (s *Store) IncrementOTPSend(ctx context.Context, identifier string, window time.Duration) (int64, error) {
	return s.incrementWindow(ctx, OTPRateKey(identifier), window)
}

// RecordOTPFailure counts one mismatched verify for the pending code.
func (s *Store) RecordOTPFailure(ctx context.Context, identifier string, ttl time.Duration) (int64, error) {
	return s.incrementWindow(ctx, OTPAttemptKey(identifier), ttl)
}

// QuestionFailures returns the wrong security answer sets recorded for
// userID in the current window.
func (s *Store) QuestionFailures(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.counter(ctx, QuestionAttemptKey(userID))
}

// RecordQuestionFailure counts one wrong answer set. The first failure
// starts the window.
func (s *Store) RecordQuestionFailure(ctx context.Context, userID uuid.UUID, window time.Duration) (int64, error) {
	return s.incrementWindow(ctx, QuestionAttemptKey(userID), window)
}

// ClearQuestionFailures resets the counter after a successful verify.
func (s *Store) ClearQuestionFailures(ctx context.Context, userID uuid.UUID) error {
	return s.cache.Delete(ctx, QuestionAttemptKey(userID))
}

// Blacklist records jti until ttl elapses. A non-positive ttl means the
// token is already dead and nothing is written.
func (s *Store) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 || jti == "" {
		return nil
	}
	return s.cache.Set(ctx, BlacklistKey(jti), "1", ttl)
}

// IsBlacklisted reports blacklist membership of jti.
func (s *Store) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return s.cache.Exists(ctx, BlacklistKey(jti))
}

func (s *Store) counter(ctx context.Context, key string) (int64, error) {
	v, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *Store) incrementWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := s.cache.Increment(ctx, key)
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := s.cache.Expire(ctx, key, window); err != nil {
			return 0, err
		}
	}
	return n, nil
}
