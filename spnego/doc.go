// Package spnego produces single-use SPNEGO tokens for HTTP Negotiate
// authentication.
//
// # Backends
//
//   - go-krb5: pure Go Kerberos via github.com/go-krb5/krb5 (default on Linux/macOS)
//   - gokrb5: pure Go Kerberos via github.com/jcmturner/gokrb5/v8
//   - SSPI: Windows Negotiate package (SSO with the logged-on user)
//
// On non-Windows platforms the client credentials come from a keytab, a
// credential cache (ccache from kinit) or a password, in that order. With
// nothing configured the default ccache is used (KRB5CCNAME, then
// /tmp/krb5cc_<uid>).
//
// # Usage
//
//	factory := spnego.KerberosFactory(spnego.KerberosProviderConfig{
//	    Realm:        "MATRIX.LAN",
//	    Krb5ConfPath: "/etc/krb5.conf",
//	})
//	creds := spnego.NewCredentialProvider(factory)
//
//	token, err := creds.ObtainToken(ctx, spnego.NewServicePrincipalName("vault.matrix.lan:8200"))
//	if err != nil {
//	    return err
//	}
//	req.Header.Set("Authorization", token.HeaderValue())
//
// Every call to ObtainToken builds a new security context. Tokens must not
// be reused across requests; the acceptor rejects replays.
package spnego
