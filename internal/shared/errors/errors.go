package errors

import (
	"errors"
	"fmt"
)

// Probe error taxonomy
var (
	// ErrValidation covers malformed target or port input. It is the only
	// error class that aborts a scan before any probe starts.
	ErrValidation = errors.New("validation error")

	// ErrResolution indicates a DNS family lookup failed.
	ErrResolution = errors.New("resolution error")

	// ErrConnect indicates a TCP connection was refused or the host is
	// unreachable. Distinct from ErrTimeout.
	ErrConnect = errors.New("connect error")

	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = errors.New("timeout")

	// ErrProtocol indicates a malformed HTTP or TLS response.
	ErrProtocol = errors.New("protocol error")

	// ErrPermission is raised by the ICMP raw-socket path only. It selects
	// the subprocess fallback and is never surfaced to the caller.
	ErrPermission = errors.New("permission denied")
)

// ValidationError carries the offending input token so callers can report
// exactly which part of a target or port spec was rejected.
type ValidationError struct {
	Token  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input %q: %s", e.Token, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidation builds a ValidationError for the given token.
func NewValidation(token, reason string) *ValidationError {
	return &ValidationError{Token: token, Reason: reason}
}
