//go:build windows

package spnego

import "errors"

// NewKerberosProvider creates the appropriate Kerberos provider for the platform.
// On Windows, this ALWAYS uses SSPI:
//   - SSPI integrates with the Windows credential store (LSA)
//   - the pure Go backends cannot read the MSLSA ticket cache
func NewKerberosProvider(cfg KerberosProviderConfig) (SecurityProvider, error) {
	if cfg.KeytabPath != "" || cfg.CCachePath != "" {
		return nil, errors.New("keytab and ccache files are not supported with SSPI")
	}

	pkg, err := ParseSSPIPackage(cfg.SSPIPackage)
	if err != nil {
		return nil, err
	}
	sspiCfg := SSPIConfig{
		// Default to SSO (use current Windows user credentials)
		UseDefaultCreds: true,
		PackageName:     pkg,
	}

	if cfg.Credentials != nil && cfg.Credentials.Username != "" {
		if cfg.Credentials.Password == "" {
			return nil, errors.New("SSPI explicit credentials require a password")
		}
		sspiCfg.UseDefaultCreds = false
		sspiCfg.Username = cfg.Credentials.Username
		sspiCfg.Password = cfg.Credentials.Password
		sspiCfg.Domain = cfg.Credentials.Domain
	}

	return NewSSPIProvider(sspiCfg, cfg.TargetSPN)
}

// SupportsSSO returns true if the platform supports SSO.
func SupportsSSO() bool {
	return true
}

// SupportsCredentialFiles reports whether keytab and ccache files can be
// used. SSPI only works with the LSA credential store.
func SupportsCredentialFiles() bool {
	return false
}
