package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/credauth/credential"
	"github.com/MrEthical07/credauth/internal/audit"
	"github.com/MrEthical07/credauth/internal/policy"
	"github.com/MrEthical07/credauth/internal/rate"
)

// LoginRequest is the flow-local login input. IP and UserAgent come from
// the request context.
type LoginRequest struct {
	Identifier string
	Password   string
	DeviceInfo string
	IP         string
	UserAgent  string
}

// LoginGate is the login rate gate.
type LoginGate interface {
	CheckLogin(ctx context.Context, identifier, ip string) error
}

// LoginMetrics carries metric IDs used by the login flow.
type LoginMetrics struct {
	Success       int
	Failure       int
	RateLimited   int
	AccountLocked int
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Users     credential.UserStore
	Attempts  credential.LoginAttemptStore
	Gate      LoginGate
	Passwords Hasher
	Lockout   policy.Lockout
	Issue     IssueDeps
	Metrics   LoginMetrics
	Errors    Errors
	Observer  Observer
}

// RunLogin authenticates identifier/password and opens a session.
//
// Every outcome past the rate gate writes a LoginAttempt; the attempt
// history is what the gate counts. Unknown identifiers and wrong passwords
// both surface as InvalidCredentials.
func RunLogin(ctx context.Context, req LoginRequest, deps LoginDeps) (TokenPair, error) {
	if deps.Users == nil || deps.Attempts == nil || deps.Gate == nil || deps.Passwords == nil {
		return TokenPair{}, deps.Errors.EngineNotReady
	}

	identifier := policy.CanonicalIdentifier(req.Identifier)
	if identifier == "" || req.Password == "" {
		return TokenPair{}, deps.Errors.InvalidCredentials
	}

	if err := deps.Gate.CheckLogin(ctx, identifier, req.IP); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			deps.Observer.inc(deps.Metrics.RateLimited)
			deps.Observer.emit(ctx, audit.Event{
				EventType:  audit.EventLoginRateLimited,
				Identifier: identifier,
				IP:         req.IP,
				UserAgent:  req.UserAgent,
			})
			return TokenPair{}, deps.Errors.RateLimited
		}
		return TokenPair{}, deps.Errors.internal("login rate gate", err)
	}

	user, err := findUserByIdentifier(ctx, deps.Users, identifier)
	if err != nil {
		return TokenPair{}, deps.Errors.internal("find user", err)
	}
	if user == nil {
		recordErr := recordAttempt(ctx, deps, req, identifier, false, credential.FailureUserNotFound)
		loginFailed(ctx, deps, req, identifier, "", credential.FailureUserNotFound)
		if recordErr != nil {
			return TokenPair{}, recordErr
		}
		return TokenPair{}, deps.Errors.InvalidCredentials
	}

	now := deps.Observer.now()
	if stateErr := user.CanLogin(now); stateErr != nil {
		if err := failLogin(ctx, deps, req, identifier, user, stateFailureReason(stateErr)); err != nil {
			return TokenPair{}, err
		}
		return TokenPair{}, stateErr
	}

	ok, err := deps.Passwords.Verify(ctx, req.Password, user.PasswordHash)
	if err != nil {
		return TokenPair{}, deps.Errors.internal("verify password", err)
	}
	if !ok {
		if err := failLogin(ctx, deps, req, identifier, user, credential.FailureInvalidPassword); err != nil {
			return TokenPair{}, err
		}
		return TokenPair{}, deps.Errors.InvalidCredentials
	}

	if err := recordAttempt(ctx, deps, req, identifier, true, ""); err != nil {
		return TokenPair{}, err
	}
	user.RecordSuccessfulLogin(now)
	if _, err := deps.Users.UpdateUser(ctx, user); err != nil {
		return TokenPair{}, deps.Errors.internal("update user", err)
	}

	pair, err := RunIssueSession(ctx, user, credential.DeviceContext{
		DeviceInfo: req.DeviceInfo,
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	}, deps.Issue)
	if err != nil {
		return TokenPair{}, err
	}

	deps.Observer.inc(deps.Metrics.Success)
	deps.Observer.emit(ctx, audit.Event{
		EventType:  audit.EventLoginSuccess,
		UserID:     user.ID.String(),
		Identifier: identifier,
		IP:         req.IP,
		UserAgent:  req.UserAgent,
		Success:    true,
	})
	return pair, nil
}

func findUserByIdentifier(ctx context.Context, users credential.UserStore, identifier string) (*credential.User, error) {
	user, err := users.FindUserByEmail(ctx, identifier)
	if err != nil || user != nil {
		return user, err
	}
	return users.FindUserByPhone(ctx, identifier)
}

// failLogin records the attempt and counts the failure against user, locking
// the account once the counter reaches the maximum. Any state or password
// failure counts, so failures while locked push the lockout further out.
// Both writes are attempted even if one of them fails.
func failLogin(ctx context.Context, deps LoginDeps, req LoginRequest, identifier string, user *credential.User, reason string) error {
	recordErr := recordAttempt(ctx, deps, req, identifier, false, reason)
	now := deps.Observer.now()
	locked := user.RecordFailedLogin(deps.Lockout.MaxAttempts, deps.Lockout.DurationFor(user.FailedLoginAttempts+1), now)
	_, updateErr := deps.Users.UpdateUser(ctx, user)

	loginFailed(ctx, deps, req, identifier, user.ID.String(), reason)
	if locked {
		deps.Observer.inc(deps.Metrics.AccountLocked)
	}
	if recordErr != nil {
		return recordErr
	}
	if updateErr != nil {
		return deps.Errors.internal("update user", updateErr)
	}
	return nil
}

func recordAttempt(ctx context.Context, deps LoginDeps, req LoginRequest, identifier string, success bool, reason string) error {
	attempt := credential.NewLoginAttempt(identifier, req.IP, req.UserAgent, success, reason, deps.Observer.now())
	if _, err := deps.Attempts.CreateLoginAttempt(ctx, attempt); err != nil {
		return deps.Errors.internal("record login attempt", err)
	}
	return nil
}

func loginFailed(ctx context.Context, deps LoginDeps, req LoginRequest, identifier, userID, reason string) {
	deps.Observer.inc(deps.Metrics.Failure)
	deps.Observer.emit(ctx, audit.Event{
		EventType:  audit.EventLoginFailure,
		UserID:     userID,
		Identifier: identifier,
		IP:         req.IP,
		UserAgent:  req.UserAgent,
		Reason:     reason,
	})
}

func stateFailureReason(err error) string {
	switch {
	case errors.Is(err, credential.ErrAccountInactive):
		return credential.FailureAccountInactive
	case errors.Is(err, credential.ErrAccountLocked):
		return credential.FailureAccountLocked
	case errors.Is(err, credential.ErrAccountNotVerified):
		return credential.FailureAccountNotVerified
	default:
		return err.Error()
	}
}
