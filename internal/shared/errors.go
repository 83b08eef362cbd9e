package shared

import "errors"

// Sentinel errors shared across the session and login plumbing.
// Feature packages carry their own, wrapped per operation.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCSRFTokenMissing   = errors.New("csrf token missing")
	ErrCSRFTokenMismatch  = errors.New("csrf token mismatch")
)
