package authz

import "errors"

var (
	// ErrUnknownRole indicates a role id that does not resolve to a
	// known level. This is a data-integrity problem, never defaulted.
	ErrUnknownRole = errors.New("authz: unknown role")

	// ErrStoreUnavailable indicates a record-store lookup failed or
	// timed out. Callers must fail the request closed.
	ErrStoreUnavailable = errors.New("authz: record store unavailable")
)
