//go:build !windows

package spnego

// NewKerberosProvider creates the appropriate Kerberos provider for the platform.
// On non-Windows, this uses one of the pure Go backends; go-krb5 unless
// cfg.Backend selects gokrb5.
func NewKerberosProvider(cfg KerberosProviderConfig) (SecurityProvider, error) {
	backend, err := ParseBackend(string(cfg.Backend))
	if err != nil {
		return nil, err
	}
	if backend == BackendGokrb5 {
		return NewGokrb5Provider(cfg, cfg.TargetSPN)
	}
	return NewPureKerberosProvider(cfg, cfg.TargetSPN)
}

// SupportsSSO returns true if the platform supports SSO.
func SupportsSSO() bool {
	return false
}

// SupportsCredentialFiles reports whether keytab and ccache files can be used.
func SupportsCredentialFiles() bool {
	return true
}
