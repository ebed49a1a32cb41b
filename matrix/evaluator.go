package matrix

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/smnsjas/go-krbttl/login"
)

// Invoker performs one login call. *login.Invoker satisfies it.
type Invoker interface {
	Login(ctx context.Context, req login.Request) login.Result
}

// Evaluator checks scenarios against one host and namespace.
type Evaluator struct {
	invoker   Invoker
	host      string
	namespace string
	now       func() time.Time
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(invoker Invoker, host, namespace string) *Evaluator {
	return &Evaluator{
		invoker:   invoker,
		host:      host,
		namespace: namespace,
		now:       time.Now,
	}
}

// Evaluate performs the scenario's login and decides pass or fail. Every
// failure, including transport and negotiation failures, ends up in the
// returned ScenarioResult.
func (e *Evaluator) Evaluate(ctx context.Context, sc Scenario) ScenarioResult {
	start := e.now()
	res := e.invoker.Login(ctx, login.Request{
		Host:      e.host,
		Namespace: e.namespace,
		TTL:       sc.TTL,
	})
	passed, msg := Check(sc.Expect, res)
	return ScenarioResult{
		Name:    sc.Name,
		Passed:  passed,
		Message: msg,
		Outcome: res.Kind,
		Elapsed: e.now().Sub(start),
	}
}

// Check decides whether res satisfies exp and returns a diagnostic: a
// confirmation on pass, expected versus actual on failure.
func Check(exp Expectation, res login.Result) (bool, string) {
	if res.Kind == login.KindTransportFailure || !consistent(res) {
		return false, fmt.Sprintf("expected %s, got %s", exp, res)
	}

	switch exp.Kind {
	case ExpectAnySuccess:
		return checkAnySuccess(res)
	case ExpectSuccessWithDuration:
		return checkDuration(exp, res)
	case ExpectRejectedWithMessage:
		return checkRejected(exp, res)
	default:
		return false, fmt.Sprintf("unknown expectation %s", exp.Kind)
	}
}

func checkAnySuccess(res login.Result) (bool, string) {
	if res.Kind != login.KindAuthenticated {
		return false, fmt.Sprintf("expected a client token, got %s", res)
	}
	if res.Authenticated.ClientToken == "" {
		return false, "no client token received"
	}
	return true, fmt.Sprintf("got token with default lease_duration=%ds", res.Authenticated.LeaseDuration)
}

func checkDuration(exp Expectation, res login.Result) (bool, string) {
	if res.Kind != login.KindAuthenticated {
		return false, fmt.Sprintf("expected lease_duration=%ds, got %s", exp.Seconds, res)
	}
	auth := res.Authenticated
	if auth.ClientToken == "" {
		return false, "no client token received"
	}
	if auth.LeaseDuration != exp.Seconds {
		return false, fmt.Sprintf("expected lease_duration=%ds, got %ds", exp.Seconds, auth.LeaseDuration)
	}
	return true, fmt.Sprintf("got token with lease_duration=%ds (expected %ds)", auth.LeaseDuration, exp.Seconds)
}

func checkRejected(exp Expectation, res login.Result) (bool, string) {
	if res.Kind != login.KindRejected {
		return false, fmt.Sprintf("expected %s, got %s", exp, res)
	}
	rej := res.Rejected
	if rej.StatusCode != http.StatusBadRequest {
		return false, fmt.Sprintf("expected %s, got status %d", exp, rej.StatusCode)
	}
	want := strings.ToLower(exp.Substring)
	for _, msg := range rej.Errors {
		if strings.Contains(strings.ToLower(msg), want) {
			return true, fmt.Sprintf("correctly rejected with error: %s", msg)
		}
	}
	if len(rej.Errors) == 0 {
		return false, fmt.Sprintf("expected %s, got status 400 with no errors", exp)
	}
	return false, fmt.Sprintf("expected %s, got errors %q", exp, rej.Errors)
}

// consistent reports whether the payload matching res.Kind is present.
func consistent(res login.Result) bool {
	switch res.Kind {
	case login.KindAuthenticated:
		return res.Authenticated != nil
	case login.KindRejected:
		return res.Rejected != nil
	default:
		return true
	}
}
