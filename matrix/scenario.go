package matrix

import "fmt"

// ExpectKind discriminates Expectation variants.
type ExpectKind int

const (
	// ExpectAnySuccess passes on any authentication with a non-empty token.
	ExpectAnySuccess ExpectKind = iota + 1
	// ExpectSuccessWithDuration also requires an exact lease duration.
	ExpectSuccessWithDuration
	// ExpectRejectedWithMessage requires a 400 whose errors contain a substring.
	ExpectRejectedWithMessage
)

func (k ExpectKind) String() string {
	switch k {
	case ExpectAnySuccess:
		return "any_success"
	case ExpectSuccessWithDuration:
		return "success_with_duration"
	case ExpectRejectedWithMessage:
		return "rejected_with_message"
	default:
		return fmt.Sprintf("ExpectKind(%d)", int(k))
	}
}

// Expectation is the expected outcome of a scenario. Use the constructors.
type Expectation struct {
	Kind ExpectKind
	// Seconds is the exact lease duration for ExpectSuccessWithDuration.
	Seconds int
	// Substring is matched case-insensitively for ExpectRejectedWithMessage.
	Substring string
}

// AnySuccess expects authentication with a non-empty client token.
func AnySuccess() Expectation {
	return Expectation{Kind: ExpectAnySuccess}
}

// SuccessWithDuration expects authentication with lease_duration == seconds.
func SuccessWithDuration(seconds int) Expectation {
	return Expectation{Kind: ExpectSuccessWithDuration, Seconds: seconds}
}

// RejectedWithMessageContaining expects HTTP 400 with at least one error
// message containing substr, ignoring case.
func RejectedWithMessageContaining(substr string) Expectation {
	return Expectation{Kind: ExpectRejectedWithMessage, Substring: substr}
}

func (e Expectation) String() string {
	switch e.Kind {
	case ExpectAnySuccess:
		return "a client token"
	case ExpectSuccessWithDuration:
		return fmt.Sprintf("lease_duration=%ds", e.Seconds)
	case ExpectRejectedWithMessage:
		return fmt.Sprintf("400 error containing %q", e.Substring)
	default:
		return e.Kind.String()
	}
}

// Scenario is one named row of the test matrix.
type Scenario struct {
	Name string
	// TTL is sent as the login TTL override; empty sends no body.
	TTL    string
	Expect Expectation
}

// DefaultScenarios returns a fresh copy of the standard TTL matrix.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "Default TTL", Expect: AnySuccess()},
		{Name: "Custom TTL 5m", TTL: "5m", Expect: SuccessWithDuration(300)},
		{Name: "Custom TTL 1h", TTL: "1h", Expect: SuccessWithDuration(3600)},
		{Name: "Custom TTL 30s", TTL: "30s", Expect: SuccessWithDuration(30)},
		{Name: "Invalid TTL", TTL: "invalid", Expect: RejectedWithMessageContaining("invalid ttl format")},
	}
}

// describe is the progress line printed before a scenario runs.
func (s Scenario) describe() string {
	if s.TTL == "" {
		return "Testing login without custom TTL..."
	}
	return fmt.Sprintf("Testing login with TTL='%s'...", s.TTL)
}
