package types

import (
	"errors"
	"fmt"
)

var (
	ErrNoPetState    = errors.New("no pet state found")
	ErrNotConfigured = errors.New("supabase configuration missing")
)

// ValidationError reports malformed or missing data from the usage source.
// It is never retried; the calling operation fails.
type ValidationError struct {
	Message string
	Data    any
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// HTTPError is a non-2xx response from the remote backend.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// SyncError wraps transport and HTTP failures with operation context. It is
// the error kind all sync client operations surface.
type SyncError struct {
	Op  string
	Err error
}

func (e SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Op, e.Err)
}

func (e SyncError) Unwrap() error {
	return e.Err
}
