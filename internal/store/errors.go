package store

import (
	"errors"
	"fmt"
)

// ErrNotFound reports expected absence. Callers probing for existence treat
// it as a normal outcome, not a failure.
var ErrNotFound = errors.New("document not found")

// ConnectionError wraps a transient transport failure. Callers may retry
// with backoff; the RetryingStore does so automatically.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store: %s: connection failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// PermissionError is fatal: credentials or grants are wrong and retrying
// cannot help. It is surfaced to the operator unchanged.
type PermissionError struct {
	Op  string
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("store: %s: permission denied: %v", e.Op, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transient connection failure.
func IsRetryable(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}
