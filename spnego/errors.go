package spnego

import (
	"errors"
	"fmt"
)

// ErrNegotiation is matched by every NegotiationError.
var ErrNegotiation = errors.New("spnego: negotiation failed")

// errEmptyToken is reported when a provider finishes a step without output.
var errEmptyToken = errors.New("provider returned an empty token")

// NegotiationError reports that no token could be produced for a service.
type NegotiationError struct {
	// SPN is the host-based service name, e.g. "HTTP@vault:8200".
	SPN string
	// Op is "initialize context" or "step".
	Op string
	// Err is the underlying library error.
	Err error
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("spnego: %s for %s: %v", e.Op, e.SPN, e.Err)
}

// Unwrap returns the underlying error.
func (e *NegotiationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrNegotiation.
func (e *NegotiationError) Is(target error) bool {
	return target == ErrNegotiation
}
