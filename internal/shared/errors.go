package shared

import "errors"

var (
	// ErrInvalidCredentials indicates login failure. Unknown accounts and
	// wrong passwords both surface as this error so callers cannot probe
	// for account existence.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRoleNotFound indicates the requested role name is not seeded.
	ErrRoleNotFound = errors.New("role not found")
	// ErrSessionLimit indicates the account already holds the maximum
	// number of concurrent sessions.
	ErrSessionLimit = errors.New("session limit exceeded")
	// ErrUnauthenticated indicates no identity was resolved for the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates a resolved identity lacks a required authority.
	ErrForbidden = errors.New("forbidden")
	// ErrStoreUnavailable indicates the session store failed or timed out.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness constraint was violated.
	ErrDuplicate = errors.New("duplicate entry")
)
