package login

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"strings"
	"time"
)

// RetryPolicy configures retries of transient transport failures. Each
// attempt negotiates a new token.
type RetryPolicy struct {
	// MaxAttempts includes the first attempt.
	MaxAttempts int

	// InitialDelay is the delay before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration

	// Multiplier grows the delay between attempts (default 2.0).
	Multiplier float64
}

// DefaultRetryPolicy returns a policy with three attempts.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// isRetryableError determines if a failed attempt should be repeated.
//
// Retryable errors are transient network/transport issues. A response that
// arrived is never retried, and neither is a malformed body or a
// cancelled run.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrMalformedResponse) {
		return false
	}

	// Non-retryable: User cancelled
	if errors.Is(err, context.Canceled) {
		return false
	}

	// Retryable: Network timeout
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// Retryable: Connection closed/reset
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	// Fallback: String matching for stdlib network errors
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "no route to host") ||
		strings.Contains(errStr, "broken pipe")
}

// calculateRetryBackoff computes exponential backoff with cap.
func calculateRetryBackoff(attempt int, policy *RetryPolicy) time.Duration {
	if policy == nil {
		return time.Second
	}

	delay := policy.InitialDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	if attempt <= 1 {
		return delay
	}

	// delay * (multiplier ^ (attempt - 1))
	multiplier := policy.Multiplier
	if multiplier < 1.0 {
		multiplier = 2.0
	}

	// Use float64 for calculation to avoid overflow before capping
	backoffFloat := float64(delay) * math.Pow(multiplier, float64(attempt-1))

	maxDelay := policy.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	if backoffFloat > float64(maxDelay) || backoffFloat > float64(math.MaxInt64) {
		return maxDelay
	}

	return time.Duration(backoffFloat)
}
