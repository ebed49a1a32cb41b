// Package krbttl is an acceptance harness for the dynamic lease-TTL feature
// of a Kerberos (SPNEGO) login endpoint.
//
// It logs in to POST /v1/<namespace>auth/kerberos/login once per scenario,
// optionally requesting a TTL, and checks the returned lease_duration or
// rejection against a fixed matrix.
//
// # Architecture
//
// The module is organized into layers:
//
//	┌─────────────────────────────────────────────────────────┐
//	│  cmd/krbttl    CLI: flags, banner, exit status          │
//	├─────────────────────────────────────────────────────────┤
//	│  matrix/       Scenarios, Evaluator, Runner, reports    │
//	├─────────────────────────────────────────────────────────┤
//	│  login/        Login call and response classification  │
//	├─────────────────────────────────────────────────────────┤
//	│  spnego/       Single-use SPNEGO tokens (Kerberos)      │
//	│  transport/    HTTP POST with timeouts, TLS, proxy      │
//	└─────────────────────────────────────────────────────────┘
//
// # Quick Start
//
//	tokens := spnego.NewCredentialProvider(spnego.KerberosFactory(spnego.KerberosProviderConfig{}))
//	inv := login.New(tokens, transport.NewHTTPTransport(), login.Config{})
//	eval := matrix.NewEvaluator(inv, "vault1.matrix.lan:8200", "ns1/")
//	summary := matrix.NewRunner(eval, matrix.WithOutput(os.Stdout)).Run(ctx, matrix.DefaultScenarios())
//	matrix.PrintSummary(os.Stdout, summary)
//	os.Exit(summary.ExitCode())
//
// # Kerberos
//
// On Linux and macOS tokens come from github.com/go-krb5/krb5 by default or
// github.com/jcmturner/gokrb5/v8. Credentials are taken from a keytab, a
// credential cache, or a password, in that order, and fall back to the
// default ticket cache ($KRB5CCNAME or /tmp/krb5cc_<uid>). On Windows the
// logged-on user's credentials are used through SSPI.
package krbttl
