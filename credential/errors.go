package credential

import "errors"

var (
	// ErrAccountInactive is returned when a deactivated user tries to authenticate.
	ErrAccountInactive = errors.New("account is inactive")
	// ErrAccountLocked is returned while locked_until is in the future.
	ErrAccountLocked = errors.New("account is locked")
	// ErrAccountNotVerified is returned when the user never confirmed an identifier.
	ErrAccountNotVerified = errors.New("account is not verified")
)
