package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smnsjas/go-krbttl/login"
	"github.com/smnsjas/go-krbttl/matrix"
	"github.com/smnsjas/go-krbttl/spnego"
	"github.com/smnsjas/go-krbttl/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvoker struct {
	results  map[string]login.Result
	requests []login.Request
}

func (f *fakeInvoker) Login(_ context.Context, req login.Request) login.Result {
	f.requests = append(f.requests, req)
	if res, ok := f.results[req.TTL]; ok {
		return res
	}
	return login.NewTransportFailure(errors.New("connection refused"))
}

func healthy() *fakeInvoker {
	return &fakeInvoker{results: map[string]login.Result{
		"":        login.NewAuthenticated("hvs.default", 2764800),
		"5m":      login.NewAuthenticated("hvs.5m", 300),
		"1h":      login.NewAuthenticated("hvs.1h", 3600),
		"30s":     login.NewAuthenticated("hvs.30s", 30),
		"invalid": login.NewRejected(400, []string{"Invalid TTL format"}),
	}}
}

// useInvoker swaps in inv for the duration of the test and records the options it was built with.
func useInvoker(t *testing.T, inv matrix.Invoker) **options {
	t.Helper()
	var seen *options
	orig := newInvoker
	newInvoker = func(opts *options, _ *slog.Logger) (matrix.Invoker, func(), error) {
		seen = opts
		return inv, func() {}, nil
	}
	t.Cleanup(func() { newInvoker = orig })
	return &seen
}

// credentialFiles overrides platform support for keytab and ccache flags.
func credentialFiles(t *testing.T, supported bool) {
	t.Helper()
	orig := supportsCredentialFiles
	supportsCredentialFiles = func() bool { return supported }
	t.Cleanup(func() { supportsCredentialFiles = orig })
}

func TestRun_AllPassed(t *testing.T) {
	inv := healthy()
	seen := useInvoker(t, inv)
	var stdout, stderr bytes.Buffer

	code := run([]string{"vault1", "ns1/"}, &stdout, &stderr)

	assert.Equal(t, exitOK, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "TTL Feature Tests")
	assert.Contains(t, out, "Host: vault1.matrix.lan:8200")
	assert.Contains(t, out, "Namespace: ns1/")
	assert.Contains(t, out, "PASS: Custom TTL 1h")
	assert.True(t, strings.HasSuffix(out, "All TTL tests passed!\n"))

	require.Len(t, inv.requests, 5)
	for _, req := range inv.requests {
		assert.Equal(t, "vault1.matrix.lan:8200", req.Host)
		assert.Equal(t, "ns1/", req.Namespace)
	}
	require.NotNil(t, *seen)
	assert.Equal(t, 10*time.Second, (*seen).timeout)
}

func TestRun_SomeFailed(t *testing.T) {
	inv := healthy()
	inv.results["invalid"] = login.NewRejected(400, []string{"permission denied"})
	useInvoker(t, inv)
	var stdout, stderr bytes.Buffer

	code := run([]string{"vault1", ""}, &stdout, &stderr)

	assert.Equal(t, exitFail, code)
	assert.Contains(t, stdout.String(), "FAIL: Invalid TTL")
	assert.True(t, strings.HasSuffix(stdout.String(), "Some TTL tests failed!\n"))
	assert.Len(t, inv.requests, 5, "a failure does not stop the run")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no arguments", nil, "Usage: krbttl"},
		{"one argument", []string{"vault1"}, "expected <host-prefix> <namespace>"},
		{"three arguments", []string{"a", "b", "c"}, "expected <host-prefix> <namespace>"},
		{"bad report", []string{"--report", "xml", "vault1", ""}, "--report"},
		{"bad backend", []string{"--backend", "heimdal", "vault1", ""}, "unknown kerberos backend"},
		{"keytab without user", []string{"--keytab", "/etc/krb5.keytab", "vault1", ""}, "--keytab requires --user"},
		{"negative retries", []string{"--retries", "-1", "vault1", ""}, "--retries"},
		{"zero timeout", []string{"--timeout", "0s", "vault1", ""}, "--timeout"},
		{"bad log level", []string{"--loglevel", "loud", "vault1", ""}, "invalid log level"},
		{"unknown flag", []string{"--bogus", "vault1", ""}, "unknown flag"},
		{"proxy without scheme", []string{"--proxy", "proxy.matrix.lan:3128", "vault1", ""}, "--proxy"},
		{"unsupported proxy scheme", []string{"--proxy", "ftp://proxy.matrix.lan", "vault1", ""}, "invalid proxy"},
		{"bad sspi package", []string{"--sspi-package", "ntlm", "vault1", ""}, "unknown SSPI package"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credentialFiles(t, true)
			inv := healthy()
			useInvoker(t, inv)
			var stdout, stderr bytes.Buffer

			code := run(tt.args, &stdout, &stderr)

			assert.Equal(t, exitFail, code)
			assert.Contains(t, stderr.String(), tt.want)
			assert.Empty(t, inv.requests, "no scenario runs after a usage error")
		})
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"--help"}, &stdout, &stderr)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr.String(), "Usage: krbttl")
}

func TestRun_JSONReport(t *testing.T) {
	useInvoker(t, healthy())
	var stdout, stderr bytes.Buffer

	code := run([]string{"--report", "json", "vault1", "ns1/"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var report struct {
		AllPassed bool `json:"all_passed"`
		Scenarios []struct {
			Name string `json:"name"`
		} `json:"scenarios"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.True(t, report.AllPassed)
	assert.Len(t, report.Scenarios, 5)
	assert.Contains(t, stderr.String(), "TTL Feature Tests", "progress moves to stderr")
}

func TestRun_MatrixFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scenarios:
  - name: Custom TTL 30s
    ttl: 30s
    expect: {lease_duration: 30}
`), 0o600))
	inv := healthy()
	useInvoker(t, inv)
	var stdout, stderr bytes.Buffer

	code := run([]string{"--matrix", path, "vault1", ""}, &stdout, &stderr)

	assert.Equal(t, exitOK, code, stderr.String())
	require.Len(t, inv.requests, 1)
	assert.Equal(t, "30s", inv.requests[0].TTL)
}

func TestRun_BadMatrixFile(t *testing.T) {
	inv := healthy()
	useInvoker(t, inv)
	var stdout, stderr bytes.Buffer

	code := run([]string{"--matrix", filepath.Join(t.TempDir(), "missing.yaml"), "vault1", ""}, &stdout, &stderr)

	assert.Equal(t, exitFail, code)
	assert.Contains(t, stderr.String(), "matrix.LoadScenarios")
	assert.Empty(t, inv.requests)
}

func TestOptionsHost(t *testing.T) {
	tests := []struct {
		name string
		opts options
		want string
	}{
		{"defaults", options{prefix: "vault1", domain: "matrix.lan", port: 8200}, "vault1.matrix.lan:8200"},
		{"custom domain and port", options{prefix: "v", domain: "example.com", port: 443}, "v.example.com:443"},
		{"leading dot domain", options{prefix: "v", domain: ".example.com", port: 8200}, "v.example.com:8200"},
		{"no domain", options{prefix: "localhost", port: 8200}, "localhost:8200"},
		{"no port", options{prefix: "v", domain: "matrix.lan"}, "v.matrix.lan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.host())
		})
	}
}

func TestParseArgs_Flags(t *testing.T) {
	t.Setenv("KRBTTL_REALM", "MATRIX.LAN")
	credentialFiles(t, true)
	var stderr bytes.Buffer

	opts, err := parseArgs([]string{
		"--tls", "--port", "8201", "--domain", "lab.local", "--timeout", "3s", "--retries", "2",
		"--backend", "gokrb5", "--ccache", "FILE:/tmp/cc", "--sspi-package", "kerberos",
		"--proxy", "http://proxy.lab.local:3128", "--ca-cert", "/etc/ssl/lab-ca.pem", "vault2", "team/",
	}, &stderr)
	require.NoError(t, err)

	assert.Equal(t, "vault2.lab.local:8201", opts.host())
	assert.Equal(t, "team/", opts.namespace)
	assert.True(t, opts.useTLS)
	assert.Equal(t, 3*time.Second, opts.timeout)
	assert.Equal(t, 2, opts.retries)
	assert.Equal(t, "gokrb5", opts.backend)
	assert.Equal(t, "MATRIX.LAN", opts.realm, "realm falls back to KRBTTL_REALM")
	assert.Equal(t, "kerberos", opts.sspiPkg)
	assert.Equal(t, "http://proxy.lab.local:3128", opts.proxy)
	assert.Equal(t, "/etc/ssl/lab-ca.pem", opts.caCert)
}

func TestParseArgs_CredentialFilesUnsupported(t *testing.T) {
	credentialFiles(t, false)
	orig := readPassword
	readPassword = func() (string, error) {
		t.Fatal("a rejected command line must not prompt")
		return "", nil
	}
	t.Cleanup(func() { readPassword = orig })

	for _, args := range [][]string{
		{"--user", "svc", "--keytab", "C:\\svc.keytab", "vault1", ""},
		{"--ccache", "FILE:C:\\cc", "vault1", ""},
	} {
		var stderr bytes.Buffer
		_, err := parseArgs(args, &stderr)
		require.Error(t, err, args)
		assert.ErrorIs(t, err, errUsage)
		assert.Contains(t, err.Error(), "--keytab and --ccache are not supported")
	}

	var stdout, stderr bytes.Buffer
	inv := healthy()
	useInvoker(t, inv)
	code := run([]string{"--user", "svc", "--keytab", "svc.keytab", "vault1", ""}, &stdout, &stderr)
	assert.Equal(t, exitFail, code)
	assert.Empty(t, inv.requests)

	opts, err := parseArgs([]string{"--user", "svc", "vault1", ""}, &stderr)
	require.NoError(t, err, "password login stays available")
	assert.Equal(t, "svc", opts.user)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"":      slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseLevel("trace")
	assert.Error(t, err)
}

func TestKerberosConfig_PasswordFromEnv(t *testing.T) {
	t.Setenv("KRBTTL_PASSWORD", "hunter2")
	orig := readPassword
	readPassword = func() (string, error) {
		t.Fatal("prompt must not be used when KRBTTL_PASSWORD is set")
		return "", nil
	}
	t.Cleanup(func() { readPassword = orig })

	cfg, err := kerberosConfig(&options{user: "alice", realm: "MATRIX.LAN", backend: "go-krb5"})
	require.NoError(t, err)
	require.NotNil(t, cfg.Credentials)
	assert.Equal(t, "alice", cfg.Credentials.Username)
	assert.Equal(t, "hunter2", cfg.Credentials.Password)
	assert.Equal(t, spnego.BackendGoKRB5, cfg.Backend)
}

func TestKerberosConfig_PromptsForPassword(t *testing.T) {
	t.Setenv("KRBTTL_PASSWORD", "")
	orig := readPassword
	readPassword = func() (string, error) { return "typed", nil }
	t.Cleanup(func() { readPassword = orig })

	cfg, err := kerberosConfig(&options{user: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "typed", cfg.Credentials.Password)

	readPassword = func() (string, error) { return "", nil }
	_, err = kerberosConfig(&options{user: "alice"})
	assert.Error(t, err)
}

func TestKerberosConfig_KeytabSkipsPassword(t *testing.T) {
	orig := readPassword
	readPassword = func() (string, error) {
		t.Fatal("keytab login must not prompt")
		return "", nil
	}
	t.Cleanup(func() { readPassword = orig })

	cfg, err := kerberosConfig(&options{user: "svc", keytab: "/etc/krb5.keytab", backend: "gokrb5", spn: "HTTP/vault.matrix.lan"})
	require.NoError(t, err)
	assert.Equal(t, "/etc/krb5.keytab", cfg.KeytabPath)
	assert.Empty(t, cfg.Credentials.Password)
	assert.Equal(t, spnego.BackendGokrb5, cfg.Backend)
	assert.Equal(t, "HTTP/vault.matrix.lan", cfg.TargetSPN)
}

func TestKerberosConfig_SSPIPackage(t *testing.T) {
	cfg, err := kerberosConfig(&options{})
	require.NoError(t, err)
	assert.Equal(t, spnego.SSPIPackageNegotiate, cfg.SSPIPackage)

	cfg, err = kerberosConfig(&options{sspiPkg: "Kerberos"})
	require.NoError(t, err)
	assert.Equal(t, spnego.SSPIPackageKerberos, cfg.SSPIPackage)

	_, err = kerberosConfig(&options{sspiPkg: "digest"})
	assert.Error(t, err)
}

func TestKerberosConfig_TicketCache(t *testing.T) {
	cfg, err := kerberosConfig(&options{})
	require.NoError(t, err)
	assert.Nil(t, cfg.Credentials, "no user means the ticket cache is used")
}

func TestBuildInvoker(t *testing.T) {
	opts := &options{timeout: time.Second, retries: 2, backend: "go-krb5", proxy: "direct"}
	inv, cleanup, err := buildInvoker(opts, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer cleanup()
	_, ok := inv.(*login.Invoker)
	assert.True(t, ok)
}

func TestBuildInvoker_MissingCACert(t *testing.T) {
	opts := &options{timeout: time.Second, backend: "go-krb5", caCert: filepath.Join(t.TempDir(), "missing.pem")}
	_, _, err := buildInvoker(opts, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.pem")
}

func TestTransportOptions_InsecureWarnsThroughLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	httpOpts, err := transportOptions(&options{timeout: time.Second, proxy: "direct", insecure: true}, logger)
	require.NoError(t, err)
	assert.Len(t, httpOpts, 3)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "TLS certificate verification disabled")

	logs.Reset()
	_, err = transportOptions(&options{timeout: time.Second}, logger)
	require.NoError(t, err)
	assert.Empty(t, logs.String())
}

func TestTransportOptions_BadProxy(t *testing.T) {
	_, err := transportOptions(&options{timeout: time.Second, proxy: "socks5://"}, slog.New(slog.DiscardHandler))
	assert.ErrorIs(t, err, transport.ErrInvalidProxy)
}
