package domain

import "errors"

// Service-level error taxonomy. Handlers translate these into HTTP
// responses; anything else surfaces as an internal error.
var (
	// ErrAlreadyExists covers both a finished registration and one still
	// pending in the cache. Callers are never told which field clashed.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnauthorized covers unknown email and wrong password alike, and
	// every invalid/expired/revoked token case on the refresh path.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCode covers a wrong code, an expired code, and an already
	// consumed code. The cases are deliberately indistinguishable.
	ErrInvalidCode = errors.New("invalid code")

	// ErrNoCompany marks an authenticated caller that has not created a
	// company yet.
	ErrNoCompany = errors.New("no company")

	ErrNotFound = errors.New("not found")
)
