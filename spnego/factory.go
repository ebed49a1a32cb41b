package spnego

// KerberosFactory returns a ProviderFactory that builds a platform Kerberos
// provider per token. The principal is derived from the target host unless
// cfg.TargetSPN pins it.
func KerberosFactory(cfg KerberosProviderConfig) ProviderFactory {
	return func(spn ServicePrincipalName) (SecurityProvider, error) {
		c := cfg
		if c.TargetSPN == "" {
			c.TargetSPN = spn.Principal()
		}
		return NewKerberosProvider(c)
	}
}
