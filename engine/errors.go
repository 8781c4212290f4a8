/*
errors.go - Error types of the import engine

PURPOSE:
  A run ends in exactly one of two ways: committed (possibly with
  warnings) or failed. Failures carry one of the errors below so callers
  can map them without string matching.

ERROR CATEGORIES:
  1. Authorization - missing/invalid credential, role not operational.
     No transaction is opened.
  2. Selector/payload - unknown family, malformed envelope. Fatal, the
     transaction (if open) rolls back.
  3. Store - anything the database rejects beyond the conflicts handled
     by policy. Fatal, rolled back, surfaced verbatim.

  Row-level defects are never errors. They become warnings (warnings.go).

USAGE:
    res, err := orch.Run(ctx, req)
    var authErr *engine.AuthError
    switch {
    case errors.As(err, &authErr):
        // 403
    case errors.Is(err, engine.ErrUnknownFamily):
        // 400
    }

SEE ALSO:
  - orchestrator.go: produces RunError
  - api/handlers.go: HTTP status mapping
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingToken is returned when the caller presents no credential.
	ErrMissingToken = errors.New("missing credential")

	// ErrUnauthorized is returned when the credential cannot be verified or
	// its role may not import.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknownFamily is returned when the request names no registered importer.
	ErrUnknownFamily = errors.New("unknown import type")

	// ErrInvalidPayload is returned when the payload envelope cannot be read.
	ErrInvalidPayload = errors.New("invalid payload")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// AuthError reports a verified caller whose role is not operational.
type AuthError struct {
	Role string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("role %q is not allowed to import", e.Role)
}

func (e *AuthError) Unwrap() error {
	return ErrUnauthorized
}

// RunError records where a run stopped.
type RunError struct {
	RunID  string
	Family string
	State  State
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("import %s failed (%s): %v", e.Family, e.State, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsAuthFailure is true for every error raised before a transaction opens.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrMissingToken) || errors.Is(err, ErrUnauthorized)
}

// IsClientError is true when the request itself must be fixed.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownFamily) || errors.Is(err, ErrInvalidPayload)
}
