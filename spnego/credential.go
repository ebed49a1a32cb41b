package spnego

import (
	"context"
	"io"
	"log/slog"
)

// ProviderFactory builds a fresh SecurityProvider targeting spn.
type ProviderFactory func(spn ServicePrincipalName) (SecurityProvider, error)

// CredentialProvider turns a SecurityProvider factory into single-use
// tokens. It holds no per-token state and is safe for sequential reuse.
type CredentialProvider struct {
	newProvider ProviderFactory
	logger      *slog.Logger
}

// CredentialOption configures a CredentialProvider.
type CredentialOption func(*CredentialProvider)

// WithLogger sets the logger used for negotiation diagnostics.
func WithLogger(logger *slog.Logger) CredentialOption {
	return func(c *CredentialProvider) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCredentialProvider creates a CredentialProvider using factory.
func NewCredentialProvider(factory ProviderFactory, opts ...CredentialOption) *CredentialProvider {
	c := &CredentialProvider{
		newProvider: factory,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ObtainToken initializes a new security context for spn and performs its
// single negotiation step. The provider is closed before returning.
func (c *CredentialProvider) ObtainToken(ctx context.Context, spn ServicePrincipalName) (AuthToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, &NegotiationError{SPN: spn.String(), Op: "initialize context", Err: err}
	}

	provider, err := c.newProvider(spn)
	if err != nil {
		return nil, &NegotiationError{SPN: spn.String(), Op: "initialize context", Err: err}
	}
	defer func() {
		if closeErr := provider.Close(); closeErr != nil {
			c.logger.Debug("close security provider", "spn", spn.String(), "error", closeErr)
		}
	}()

	token, continueNeeded, err := provider.Step(ctx, nil)
	if err != nil {
		return nil, &NegotiationError{SPN: spn.String(), Op: "step", Err: err}
	}
	if len(token) == 0 {
		return nil, &NegotiationError{SPN: spn.String(), Op: "step", Err: errEmptyToken}
	}

	// Mutual authentication would need the server's reply; one leg is enough
	// for the login endpoint.
	c.logger.Debug("spnego token produced",
		"spn", spn.String(),
		"principal", spn.Principal(),
		"size", len(token),
		"continue_needed", continueNeeded)

	return AuthToken(token), nil
}
