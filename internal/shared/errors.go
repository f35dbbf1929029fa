package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden indicates an authorization refusal.
	ErrForbidden = errors.New("forbidden")
	// ErrCSRFTokenMissing indicates a state-changing request without a token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch indicates a token that fails verification.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
