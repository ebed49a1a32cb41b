package login

import (
	"fmt"
	"strings"
)

// Kind discriminates the variants of a Result.
type Kind int

const (
	// KindTransportFailure is the zero value so an unset Result never
	// looks like a success.
	KindTransportFailure Kind = iota
	KindAuthenticated
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticated:
		return "authenticated"
	case KindRejected:
		return "rejected"
	case KindTransportFailure:
		return "transport failure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Authenticated is a 200 response carrying a client token.
type Authenticated struct {
	ClientToken string
	// LeaseDuration is in seconds; 0 when the response omitted it.
	LeaseDuration int
}

// Rejected is any non-200 response.
type Rejected struct {
	StatusCode int
	// Errors is never nil.
	Errors []string
}

// TransportFailure covers everything that prevented a classifiable
// response: negotiation, connection, timeout, or a malformed 200 body.
type TransportFailure struct {
	Cause error
}

// Result is the outcome of one login call. Exactly one of Authenticated,
// Rejected and Failure is non-nil, matching Kind. Build Results with the
// constructors only.
type Result struct {
	Kind          Kind
	Authenticated *Authenticated
	Rejected      *Rejected
	Failure       *TransportFailure
}

// NewAuthenticated returns an Authenticated result.
func NewAuthenticated(clientToken string, leaseDuration int) Result {
	return Result{
		Kind:          KindAuthenticated,
		Authenticated: &Authenticated{ClientToken: clientToken, LeaseDuration: leaseDuration},
	}
}

// NewRejected returns a Rejected result. A nil errs is stored as empty.
func NewRejected(statusCode int, errs []string) Result {
	if errs == nil {
		errs = []string{}
	}
	return Result{
		Kind:     KindRejected,
		Rejected: &Rejected{StatusCode: statusCode, Errors: errs},
	}
}

// NewTransportFailure returns a TransportFailure result.
func NewTransportFailure(cause error) Result {
	return Result{
		Kind:    KindTransportFailure,
		Failure: &TransportFailure{Cause: cause},
	}
}

// String renders the result for diagnostics. Client tokens are not shown.
func (r Result) String() string {
	switch r.Kind {
	case KindAuthenticated:
		if r.Authenticated == nil {
			break
		}
		return fmt.Sprintf("authenticated (lease_duration=%ds)", r.Authenticated.LeaseDuration)
	case KindRejected:
		if r.Rejected == nil {
			break
		}
		if len(r.Rejected.Errors) == 0 {
			return fmt.Sprintf("rejected with status %d", r.Rejected.StatusCode)
		}
		return fmt.Sprintf("rejected with status %d: %s", r.Rejected.StatusCode, strings.Join(r.Rejected.Errors, "; "))
	case KindTransportFailure:
		if r.Failure == nil || r.Failure.Cause == nil {
			return "transport failure"
		}
		return "transport failure: " + r.Failure.Cause.Error()
	}
	return "invalid result: " + r.Kind.String()
}
