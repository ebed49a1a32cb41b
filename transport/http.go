package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

const (
	// ContentTypeJSON is the content type for request bodies.
	ContentTypeJSON = "application/json"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize bounds how much of a response body is read.
	MaxResponseSize = 1 << 20

	// defaultBufferSize is the initial size for pooled buffers.
	defaultBufferSize = 4 * 1024
)

// ErrResponseTooLarge is returned when a 200 body exceeds MaxResponseSize.
var ErrResponseTooLarge = errors.New("transport: response body too large")

// ErrInvalidProxy is returned by ParseProxy for unusable proxy settings.
var ErrInvalidProxy = errors.New("transport: invalid proxy")

// ProxyFunc selects the proxy for a request, as http.Transport.Proxy.
type ProxyFunc func(*http.Request) (*url.URL, error)

// bufferPool is a pool of reusable bytes.Buffer to reduce allocations.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, defaultBufferSize))
	},
}

// readAllPooled reads at most limit bytes from r using a pooled buffer and
// returns a copy of the data. truncated reports whether r held more.
func readAllPooled(r io.Reader, limit int64) (data []byte, truncated bool, err error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufferPool.Put(buf)
	}()

	n, err := buf.ReadFrom(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if n > limit {
		buf.Truncate(int(limit))
		truncated = true
	}

	// Return a copy since buf will be reused
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, truncated, nil
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	// Truncated is set when a non-200 body exceeded MaxResponseSize and
	// Body holds only its first MaxResponseSize bytes.
	Truncated bool
}

// HTTPTransport sends requests to the login endpoint.
type HTTPTransport struct {
	client *http.Client
}

// HTTPTransportOption configures an HTTPTransport.
type HTTPTransportOption func(*HTTPTransport)

// NewHTTPTransport creates a new HTTP transport with the given options.
func NewHTTPTransport(opts ...HTTPTransportOption) *HTTPTransport {
	t := &HTTPTransport{
		client: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				// Every login carries a fresh token; there is no
				// connection-bound auth state to preserve.
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.client.Timeout = d
	}
}

// WithInsecureSkipVerify configures TLS to skip certificate verification.
// WARNING: Only use this for testing. Never use in production.
func WithInsecureSkipVerify(skip bool) HTTPTransportOption {
	return func(t *HTTPTransport) {
		transport := t.ensureHTTPTransport()
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}
		transport.TLSClientConfig.InsecureSkipVerify = skip
	}
}

// WithTLSConfig sets a custom TLS configuration.
// NOTE: MinVersion is enforced to be at least TLS 1.2.
func WithTLSConfig(cfg *tls.Config) HTTPTransportOption {
	return func(t *HTTPTransport) {
		transport := t.ensureHTTPTransport()
		if cfg.MinVersion < tls.VersionTLS12 {
			cfg.MinVersion = tls.VersionTLS12
		}
		transport.TLSClientConfig = cfg
	}
}

// WithProxy sets the proxy selector. A nil proxy disables proxying.
func WithProxy(proxy ProxyFunc) HTTPTransportOption {
	return func(t *HTTPTransport) {
		transport := t.ensureHTTPTransport()
		transport.Proxy = proxy
	}
}

// WithRoundTripper replaces the underlying round tripper.
func WithRoundTripper(rt http.RoundTripper) HTTPTransportOption {
	return func(t *HTTPTransport) {
		t.client.Transport = rt
	}
}

// ParseProxy maps a proxy setting to a ProxyFunc. "" keeps the environment
// defaults, "direct" disables proxying (nil), anything else must be an
// absolute http, https or socks5 URL.
func ParseProxy(s string) (ProxyFunc, error) {
	switch s {
	case "":
		return http.ProxyFromEnvironment, nil
	case "direct":
		return nil, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidProxy, s, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("%w %q: scheme must be http, https or socks5", ErrInvalidProxy, s)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w %q: missing host", ErrInvalidProxy, s)
	}
	return http.ProxyURL(u), nil
}

// LoadCACertPool reads PEM certificates from path into a new pool.
func LoadCACertPool(path string) (*x509.CertPool, error) {
	pemData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transport: read CA bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemData) {
		return nil, fmt.Errorf("transport: no PEM certificates in %s", path)
	}
	return pool, nil
}

// ensureHTTPTransport ensures the client has an *http.Transport.
func (t *HTTPTransport) ensureHTTPTransport() *http.Transport {
	if t.client.Transport == nil {
		t.client.Transport = &http.Transport{}
	}
	transport, ok := t.client.Transport.(*http.Transport)
	if !ok {
		transport = &http.Transport{}
		t.client.Transport = transport
	}
	return transport
}

// Post sends a POST request. A nil body sends no body at all; otherwise the
// body is sent as JSON. Any status code is returned as a Response; only
// failures to exchange the request produce an error.
//
// A 200 body larger than MaxResponseSize fails with ErrResponseTooLarge.
// Other statuses are returned with the body cut at MaxResponseSize.
func (t *HTTPTransport) Post(ctx context.Context, url string, header http.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", ContentTypeJSON)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, truncated, err := readAllPooled(resp.Body, MaxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("transport: failed to read response: %w", err)
	}
	if truncated && resp.StatusCode == http.StatusOK {
		return nil, ErrResponseTooLarge
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Truncated:  truncated,
	}, nil
}

// CloseIdleConnections closes any idle connections in the transport.
func (t *HTTPTransport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
}
