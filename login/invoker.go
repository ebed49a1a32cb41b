package login

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/smnsjas/go-krbttl/spnego"
	"github.com/smnsjas/go-krbttl/transport"
)

const (
	// APIVersion is the fixed API version path segment.
	APIVersion = "v1"

	// Path is the login path relative to the namespace prefix.
	Path = "auth/kerberos/login"

	// RequestIDHeader carries a per-call UUID for server-side log correlation.
	RequestIDHeader = "X-Request-Id"
)

// ErrMalformedResponse is returned for a 200 response whose body cannot be
// classified as an authentication.
var ErrMalformedResponse = errors.New("login: malformed response body")

// ErrMissingClientToken is a malformed 200 response without auth.client_token.
var ErrMissingClientToken = fmt.Errorf("%w: auth.client_token missing or empty", ErrMalformedResponse)

// Request is one login call.
type Request struct {
	// Host is "host[:port]".
	Host string
	// Namespace is a literal path prefix, e.g. "" or "ns1/". It is inserted
	// verbatim: no escaping, no slash added.
	Namespace string
	// TTL is an opaque duration expression sent as {"ttl": TTL}. Empty means
	// no override and no request body.
	TTL string
}

// TokenSource produces single-use SPNEGO tokens.
type TokenSource interface {
	ObtainToken(ctx context.Context, spn spnego.ServicePrincipalName) (spnego.AuthToken, error)
}

// Poster sends one POST and returns whatever response arrived.
type Poster interface {
	Post(ctx context.Context, url string, header http.Header, body []byte) (*transport.Response, error)
}

// Config holds Invoker settings.
type Config struct {
	// UseTLS selects https instead of http.
	UseTLS bool

	// Retry enables retrying transient transport failures. Nil means a
	// single attempt.
	Retry *RetryPolicy

	// Logger receives per-call diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Invoker performs authenticated login calls.
type Invoker struct {
	tokens TokenSource
	poster Poster
	scheme string
	retry  *RetryPolicy
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates an Invoker.
func New(tokens TokenSource, poster Poster, cfg Config) *Invoker {
	scheme := "http"
	if cfg.UseTLS {
		scheme = "https"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Invoker{
		tokens: tokens,
		poster: poster,
		scheme: scheme,
		retry:  cfg.Retry,
		logger: logger,
		sleep:  sleepContext,
	}
}

// URL returns the login endpoint for host and namespace.
func URL(scheme, host, namespace string) string {
	return scheme + "://" + host + "/" + APIVersion + "/" + namespace + Path
}

// Login performs the call and classifies the outcome. It never fails: every
// problem is reported as a TransportFailure result.
func (inv *Invoker) Login(ctx context.Context, req Request) Result {
	requestID := uuid.NewString()
	logger := inv.logger.With("request_id", requestID, "host", req.Host, "namespace", req.Namespace)

	maxAttempts := 1
	if inv.retry != nil && inv.retry.MaxAttempts > 1 {
		maxAttempts = inv.retry.MaxAttempts
	}

	for attempt := 1; ; attempt++ {
		res, err := inv.attempt(ctx, req, requestID)
		if err == nil {
			logger.Debug("login classified", "attempt", attempt, "kind", res.Kind.String())
			return res
		}

		if attempt >= maxAttempts || !isRetryableError(err) {
			logger.Debug("login failed", "attempt", attempt, "error", err)
			return NewTransportFailure(err)
		}

		delay := calculateRetryBackoff(attempt, inv.retry)
		logger.Warn("login attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay,
			"error", err)
		if sleepErr := inv.sleep(ctx, delay); sleepErr != nil {
			return NewTransportFailure(fmt.Errorf("%w (gave up after attempt %d: %v)", err, attempt, sleepErr))
		}
	}
}

type loginBody struct {
	TTL string `json:"ttl"`
}

// attempt performs one negotiation and one HTTP exchange. A non-nil error
// means no response could be classified.
func (inv *Invoker) attempt(ctx context.Context, req Request, requestID string) (Result, error) {
	token, err := inv.tokens.ObtainToken(ctx, spnego.NewServicePrincipalName(req.Host))
	if err != nil {
		return Result{}, err
	}

	var body []byte
	if req.TTL != "" {
		body, err = json.Marshal(loginBody{TTL: req.TTL})
		if err != nil {
			return Result{}, fmt.Errorf("encode login body: %w", err)
		}
	}

	header := http.Header{}
	header.Set("Authorization", token.HeaderValue())
	header.Set(RequestIDHeader, requestID)

	resp, err := inv.poster.Post(ctx, URL(inv.scheme, req.Host, req.Namespace), header, body)
	if err != nil {
		return Result{}, err
	}
	if resp.Truncated {
		inv.logger.Debug("response body truncated", "status", resp.StatusCode, "request_id", requestID)
	}
	return classify(resp.StatusCode, resp.Body), nil
}

type authResponse struct {
	Auth *struct {
		ClientToken   string `json:"client_token"`
		LeaseDuration int    `json:"lease_duration"`
	} `json:"auth"`
}

type errorResponse struct {
	Errors []string `json:"errors"`
}

// classify maps a status and body onto a Result.
func classify(status int, body []byte) Result {
	if status != http.StatusOK {
		var er errorResponse
		if err := json.Unmarshal(body, &er); err != nil {
			return NewRejected(status, nil)
		}
		return NewRejected(status, er.Errors)
	}

	var ar authResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return NewTransportFailure(fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	if ar.Auth == nil || ar.Auth.ClientToken == "" {
		return NewTransportFailure(ErrMissingClientToken)
	}
	return NewAuthenticated(ar.Auth.ClientToken, ar.Auth.LeaseDuration)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
