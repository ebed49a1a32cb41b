package spnego

import (
	"fmt"
	"os"
	"strings"
)

// Backend selects the Kerberos implementation on non-Windows platforms.
type Backend string

const (
	// BackendGoKRB5 uses github.com/go-krb5/krb5.
	BackendGoKRB5 Backend = "go-krb5"
	// BackendGokrb5 uses github.com/jcmturner/gokrb5/v8.
	BackendGokrb5 Backend = "gokrb5"
)

// SSPI security packages usable on Windows.
const (
	SSPIPackageNegotiate = "Negotiate"
	SSPIPackageKerberos  = "Kerberos"
)

const defaultKrb5Conf = "/etc/krb5.conf"

// KerberosProviderConfig holds unified config for any Kerberos provider.
// This type is shared across all platforms.
type KerberosProviderConfig struct {
	// TargetSPN overrides the principal derived from the request host
	// (e.g., "HTTP/vault.matrix.lan").
	TargetSPN string

	// Backend selects go-krb5 (default) or gokrb5. Ignored on Windows.
	Backend Backend

	// Realm is the Kerberos realm (e.g., "MATRIX.LAN").
	// If empty, the default_realm from krb5.conf is used.
	Realm string

	// Krb5ConfPath is the path to krb5.conf (default: $KRB5_CONFIG, then /etc/krb5.conf).
	Krb5ConfPath string

	// KeytabPath is the path to a keytab file (optional). Requires Credentials.Username.
	KeytabPath string

	// CCachePath is the path to a credential cache (optional).
	CCachePath string

	// Credentials are username/password credentials (optional).
	Credentials *Credentials

	// SSPIPackage selects the SSPI package on Windows (default: Negotiate).
	SSPIPackage string
}

// ParseBackend maps a flag value to a Backend.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendGoKRB5:
		return BackendGoKRB5, nil
	case BackendGokrb5:
		return BackendGokrb5, nil
	default:
		return "", fmt.Errorf("unknown kerberos backend %q (want %q or %q)", s, BackendGoKRB5, BackendGokrb5)
	}
}

// ParseSSPIPackage maps a flag value to an SSPI package name. Matching is
// case-insensitive and "" selects Negotiate.
func ParseSSPIPackage(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "negotiate":
		return SSPIPackageNegotiate, nil
	case "kerberos":
		return SSPIPackageKerberos, nil
	default:
		return "", fmt.Errorf("unknown SSPI package %q (want %q or %q)", s, SSPIPackageNegotiate, SSPIPackageKerberos)
	}
}

// credentialSource is the resolved origin of the client's credentials.
type credentialSource int

const (
	sourceKeytab credentialSource = iota
	sourceCCache
	sourcePassword
)

// resolved is a KerberosProviderConfig with defaults applied.
type resolved struct {
	KerberosProviderConfig
	source credentialSource
}

// resolve applies environment defaults and picks the credential source:
// keytab, then ccache, then password, then the default ccache.
func (cfg KerberosProviderConfig) resolve() (resolved, error) {
	if cfg.Krb5ConfPath == "" {
		cfg.Krb5ConfPath = os.Getenv("KRB5_CONFIG")
		if cfg.Krb5ConfPath == "" {
			cfg.Krb5ConfPath = defaultKrb5Conf
		}
	}

	r := resolved{KerberosProviderConfig: cfg}
	switch {
	case cfg.KeytabPath != "":
		if cfg.Credentials == nil {
			return resolved{}, fmt.Errorf("keytab %s requires a username", cfg.KeytabPath)
		}
		if err := cfg.Credentials.Validate(); err != nil {
			return resolved{}, fmt.Errorf("keytab %s: %w", cfg.KeytabPath, err)
		}
		r.source = sourceKeytab
	case cfg.CCachePath != "":
		r.CCachePath = stripCCachePrefix(cfg.CCachePath)
		r.source = sourceCCache
	case cfg.Credentials != nil && cfg.Credentials.Password != "":
		if err := cfg.Credentials.Validate(); err != nil {
			return resolved{}, err
		}
		r.source = sourcePassword
	default:
		r.CCachePath = defaultCCachePath()
		r.source = sourceCCache
	}
	return r, nil
}

// defaultCCachePath mirrors MIT krb5: $KRB5CCNAME, then /tmp/krb5cc_<uid>.
func defaultCCachePath() string {
	if env := os.Getenv("KRB5CCNAME"); env != "" {
		return stripCCachePrefix(env)
	}
	return fmt.Sprintf("/tmp/krb5cc_%d", os.Getuid())
}

// stripCCachePrefix removes the FILE: type prefix; other cache types are
// passed through and will fail to load.
func stripCCachePrefix(path string) string {
	return strings.TrimPrefix(path, "FILE:")
}
