package service

import "errors"

var (
	// ErrUnauthenticated covers a missing, malformed, invalid or expired
	// token and a token naming an unknown principal. Callers cannot tell
	// these apart.
	ErrUnauthenticated = errors.New("service: unauthenticated")

	// ErrAccountDisabled is returned for deleted or deactivated accounts.
	ErrAccountDisabled = errors.New("service: account disabled")

	// ErrAccountLocked is returned while a login lock is in force. It is
	// checked before the password is compared.
	ErrAccountLocked = errors.New("service: account locked")

	// ErrFactorLocked is returned while the second factor is locked. It is
	// checked before any code is compared.
	ErrFactorLocked = errors.New("service: second factor locked")

	// ErrInvalidCredential is a wrong password, TOTP code or backup code.
	// At login it also stands in for an unknown account.
	ErrInvalidCredential = errors.New("service: invalid credential")

	// ErrSecondFactorRequired means the password was correct but the
	// account has an enabled second factor and no code was presented.
	ErrSecondFactorRequired = errors.New("service: second factor required")

	ErrDuplicateAccount     = errors.New("service: account already registered")
	ErrFactorNotProvisioned = errors.New("service: second factor not provisioned")
	ErrFactorNotEnabled     = errors.New("service: second factor not enabled")
	ErrFactorAlreadyEnabled = errors.New("service: second factor already enabled")
)

// DuplicateError reports which identity fields are already held by another
// active account. Both fields are false when the conflict was only detected
// by the store's unique index.
type DuplicateError struct {
	Username bool
	Email    bool
}

func (e *DuplicateError) Error() string {
	switch {
	case e.Username && e.Email:
		return "service: username and email already registered"
	case e.Username:
		return "service: username already registered"
	case e.Email:
		return "service: email already registered"
	}
	return ErrDuplicateAccount.Error()
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateAccount }
