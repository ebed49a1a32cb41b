package spnego

import (
	"errors"
	"log/slog"
)

// Credentials holds explicit client credentials. When nil, providers fall
// back to the credential cache (or SSO on Windows).
type Credentials struct {
	// Username is the client principal name without the realm.
	Username string

	// Password is optional when a keytab or ccache is used.
	Password string

	// Domain is only consulted by SSPI.
	Domain string
}

// Validate checks that the username is present. Password is optional for
// Kerberos (keytab or ccache).
func (c *Credentials) Validate() error {
	if c.Username == "" {
		return errors.New("username is required")
	}
	return nil
}

// LogValue implements slog.LogValuer so passwords never reach log output.
func (c Credentials) LogValue() slog.Value {
	password := ""
	if c.Password != "" {
		password = "[REDACTED]"
	}
	return slog.GroupValue(
		slog.String("username", c.Username),
		slog.String("password", password),
		slog.String("domain", c.Domain),
	)
}
