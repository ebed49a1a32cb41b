// Command krbttl runs the Kerberos login lease-TTL acceptance matrix against
// one server and namespace.
//
// Usage:
//
//	krbttl [flags] <host-prefix> <namespace>
//
// The target host is <host-prefix>.<domain>:<port>, by default
// <host-prefix>.matrix.lan:8200. The namespace is inserted into the login
// path verbatim, so pass "" for the root namespace and "ns1/" for a child.
//
// Credentials come from the Kerberos ticket cache unless --keytab or --user
// is given. A password for --user is read from KRBTTL_PASSWORD or prompted.
//
// The exit status is 0 when every scenario passed and 1 otherwise.
package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	krblog "github.com/smnsjas/go-krbttl/internal/log"
	"github.com/smnsjas/go-krbttl/login"
	"github.com/smnsjas/go-krbttl/matrix"
	"github.com/smnsjas/go-krbttl/spnego"
	"github.com/smnsjas/go-krbttl/transport"
)

const (
	exitOK   = 0
	exitFail = 1

	reportText = "text"
	reportJSON = "json"
)

var errUsage = errors.New("usage error")

// options are the parsed command line.
type options struct {
	prefix    string
	namespace string

	domain   string
	port     int
	useTLS   bool
	insecure bool
	proxy    string
	caCert   string
	timeout  time.Duration
	retries  int

	matrixPath string
	report     string
	logLevel   string

	backend  string
	realm    string
	user     string
	keytab   string
	ccache   string
	krb5Conf string
	spn      string
	sspiPkg  string
}

// host returns the login target as host:port.
func (o *options) host() string {
	h := o.prefix
	if o.domain != "" {
		h += "." + strings.TrimPrefix(o.domain, ".")
	}
	if o.port > 0 {
		h += ":" + strconv.Itoa(o.port)
	}
	return h
}

// newInvoker builds the login client; tests replace it with a fake.
var newInvoker = buildInvoker

// readPassword prompts on the terminal; tests replace it.
var readPassword = promptPassword

// supportsCredentialFiles is false on Windows, where SSPI ignores keytabs.
var supportsCredentialFiles = spnego.SupportsCredentialFiles

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFail
	}

	logger, err := newLogger(stderr, opts.logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFail
	}

	scenarios := matrix.DefaultScenarios()
	if opts.matrixPath != "" {
		scenarios, err = matrix.LoadScenarios(opts.matrixPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFail
		}
	}

	invoker, cleanup, err := newInvoker(opts, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFail
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Progress goes to stderr when stdout carries the JSON report.
	progress := stdout
	if opts.report == reportJSON {
		progress = stderr
	}

	host := opts.host()
	matrix.PrintBanner(progress, host, opts.namespace)

	eval := matrix.NewEvaluator(invoker, host, opts.namespace)
	runner := matrix.NewRunner(eval, matrix.WithOutput(progress), matrix.WithLogger(logger))
	summary := runner.Run(ctx, scenarios)

	if opts.report == reportJSON {
		if err := matrix.WriteJSON(stdout, summary); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFail
		}
		fmt.Fprintln(stderr, matrix.Verdict(summary))
	} else {
		matrix.PrintSummary(stdout, summary)
	}

	return summary.ExitCode()
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := pflag.NewFlagSet("krbttl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: krbttl [flags] <host-prefix> <namespace>")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Runs the login TTL acceptance matrix against <host-prefix>.<domain>:<port>.")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Flags:")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.domain, "domain", "matrix.lan", "DNS domain appended to the host prefix")
	fs.IntVar(&opts.port, "port", 8200, "Server port (0 to omit)")
	fs.BoolVar(&opts.useTLS, "tls", false, "Use HTTPS")
	fs.BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification")
	fs.StringVar(&opts.proxy, "proxy", "", "HTTP proxy URL (default: environment, \"direct\" for none)")
	fs.StringVar(&opts.caCert, "ca-cert", "", "PEM file with CA certificates to trust for --tls")
	fs.DurationVar(&opts.timeout, "timeout", transport.DefaultTimeout, "Per-request timeout")
	fs.IntVar(&opts.retries, "retries", 0, "Extra attempts after a transient transport failure")

	fs.StringVar(&opts.matrixPath, "matrix", "", "YAML file with an alternate scenario matrix")
	fs.StringVar(&opts.report, "report", reportText, "Report format: text or json")
	fs.StringVar(&opts.logLevel, "loglevel", "warn", "Log level: debug, info, warn, error")

	fs.StringVar(&opts.backend, "backend", string(spnego.BackendGoKRB5), "Kerberos backend: go-krb5 or gokrb5 (ignored on Windows)")
	fs.StringVar(&opts.realm, "realm", "", "Kerberos realm (default: $KRBTTL_REALM, then krb5.conf default_realm)")
	fs.StringVar(&opts.user, "user", "", "Kerberos principal name for keytab or password login")
	fs.StringVar(&opts.keytab, "keytab", "", "Keytab file (requires --user)")
	fs.StringVar(&opts.ccache, "ccache", "", "Credential cache (default: $KRB5CCNAME, then /tmp/krb5cc_<uid>)")
	fs.StringVar(&opts.krb5Conf, "krb5conf", "", "krb5.conf path (default: $KRB5_CONFIG, then /etc/krb5.conf)")
	fs.StringVar(&opts.spn, "spn", "", "Service principal override (default: HTTP/<host>)")
	fs.StringVar(&opts.sspiPkg, "sspi-package", spnego.SSPIPackageNegotiate, "Windows SSPI package: Negotiate or Kerberos")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) != 2 {
		fs.Usage()
		return nil, fmt.Errorf("%w: expected <host-prefix> <namespace>, got %d argument(s)", errUsage, len(rest))
	}
	opts.prefix, opts.namespace = rest[0], rest[1]

	if opts.prefix == "" {
		return nil, fmt.Errorf("%w: host prefix must not be empty", errUsage)
	}
	if opts.report != reportText && opts.report != reportJSON {
		return nil, fmt.Errorf("%w: --report must be %q or %q", errUsage, reportText, reportJSON)
	}
	if opts.timeout <= 0 {
		return nil, fmt.Errorf("%w: --timeout must be positive", errUsage)
	}
	if opts.retries < 0 {
		return nil, fmt.Errorf("%w: --retries must not be negative", errUsage)
	}
	if _, err := spnego.ParseBackend(opts.backend); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if _, err := spnego.ParseSSPIPackage(opts.sspiPkg); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if _, err := transport.ParseProxy(opts.proxy); err != nil {
		return nil, fmt.Errorf("%w: --proxy: %v", errUsage, err)
	}
	if !supportsCredentialFiles() && (opts.keytab != "" || opts.ccache != "") {
		return nil, fmt.Errorf("%w: --keytab and --ccache are not supported on this platform; use --user or the logged-on session", errUsage)
	}
	if opts.keytab != "" && opts.user == "" {
		return nil, fmt.Errorf("%w: --keytab requires --user", errUsage)
	}
	if opts.realm == "" {
		opts.realm = os.Getenv("KRBTTL_REALM")
	}
	return opts, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level '%s'. Valid values: debug, info, warn, error", s)
	}
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(krblog.NewRedactingHandler(handler)), nil
}

// kerberosConfig maps flags onto the provider configuration.
func kerberosConfig(opts *options) (spnego.KerberosProviderConfig, error) {
	backend, err := spnego.ParseBackend(opts.backend)
	if err != nil {
		return spnego.KerberosProviderConfig{}, err
	}
	sspiPkg, err := spnego.ParseSSPIPackage(opts.sspiPkg)
	if err != nil {
		return spnego.KerberosProviderConfig{}, err
	}
	cfg := spnego.KerberosProviderConfig{
		SSPIPackage:  sspiPkg,
		TargetSPN:    opts.spn,
		Backend:      backend,
		Realm:        opts.realm,
		Krb5ConfPath: opts.krb5Conf,
		KeytabPath:   opts.keytab,
		CCachePath:   opts.ccache,
	}

	if opts.user != "" {
		creds := &spnego.Credentials{Username: opts.user, Domain: opts.realm}
		if opts.keytab == "" && opts.ccache == "" {
			password, err := getPassword()
			if err != nil {
				return spnego.KerberosProviderConfig{}, err
			}
			creds.Password = password
		}
		cfg.Credentials = creds
	}
	return cfg, nil
}

func buildInvoker(opts *options, logger *slog.Logger) (matrix.Invoker, func(), error) {
	kcfg, err := kerberosConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("kerberos configuration",
		"backend", string(kcfg.Backend),
		"realm", kcfg.Realm,
		"user", opts.user,
		"spn_override", kcfg.TargetSPN,
		"sso", spnego.SupportsSSO())

	tokens := spnego.NewCredentialProvider(spnego.KerberosFactory(kcfg), spnego.WithLogger(logger))

	httpOpts, err := transportOptions(opts, logger)
	if err != nil {
		return nil, nil, err
	}
	tr := transport.NewHTTPTransport(httpOpts...)

	cfg := login.Config{UseTLS: opts.useTLS, Logger: logger}
	if opts.retries > 0 {
		policy := login.DefaultRetryPolicy()
		policy.MaxAttempts = opts.retries + 1
		cfg.Retry = policy
	}
	return login.New(tokens, tr, cfg), tr.CloseIdleConnections, nil
}

// transportOptions maps the TLS, proxy and timeout flags.
func transportOptions(opts *options, logger *slog.Logger) ([]transport.HTTPTransportOption, error) {
	proxy, err := transport.ParseProxy(opts.proxy)
	if err != nil {
		return nil, err
	}
	httpOpts := []transport.HTTPTransportOption{
		transport.WithTimeout(opts.timeout),
		transport.WithProxy(proxy),
	}

	if opts.caCert != "" {
		pool, err := transport.LoadCACertPool(opts.caCert)
		if err != nil {
			return nil, err
		}
		httpOpts = append(httpOpts, transport.WithTLSConfig(&tls.Config{RootCAs: pool}))
	}
	if opts.insecure {
		logger.Warn("TLS certificate verification disabled; use only for testing")
		httpOpts = append(httpOpts, transport.WithInsecureSkipVerify(true))
	}
	return httpOpts, nil
}

// getPassword returns the password from KRBTTL_PASSWORD or prompts for it.
func getPassword() (string, error) {
	if envPass := os.Getenv("KRBTTL_PASSWORD"); envPass != "" {
		return envPass, nil
	}
	password, err := readPassword()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if password == "" {
		return "", errors.New("empty password")
	}
	return password, nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		passBytes, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(passBytes), nil
	}

	// Not a terminal (piped input): read line
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
