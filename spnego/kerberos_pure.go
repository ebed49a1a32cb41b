package spnego

import (
	"context"
	"fmt"

	"github.com/go-krb5/krb5/client"
	"github.com/go-krb5/krb5/config"
	"github.com/go-krb5/krb5/credentials"
	"github.com/go-krb5/krb5/keytab"
	"github.com/go-krb5/krb5/spnego"
)

// PureKerberosProvider implements SecurityProvider using github.com/go-krb5/krb5.
type PureKerberosProvider struct {
	client       *client.Client
	spnegoClient *spnego.SPNEGO
	targetSPN    string
	isComplete   bool
}

// NewPureKerberosProvider creates a go-krb5 provider for targetSPN
// ("HTTP/host" form).
func NewPureKerberosProvider(cfg KerberosProviderConfig, targetSPN string) (*PureKerberosProvider, error) {
	r, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	conf, err := config.Load(r.Krb5ConfPath)
	if err != nil {
		return nil, fmt.Errorf("load krb5.conf from %s: %w", r.Krb5ConfPath, err)
	}
	realm := r.Realm
	if realm == "" {
		realm = conf.LibDefaults.DefaultRealm
	}

	var cl *client.Client
	switch r.source {
	case sourceKeytab:
		kt, err := keytab.Load(r.KeytabPath)
		if err != nil {
			return nil, fmt.Errorf("load keytab from %s: %w", r.KeytabPath, err)
		}
		cl = client.NewWithKeytab(r.Credentials.Username, realm, kt, conf, client.DisablePAFXFAST(true))
	case sourceCCache:
		cc, err := credentials.LoadCCache(r.CCachePath)
		if err != nil {
			return nil, fmt.Errorf("load ccache from %s: %w", r.CCachePath, err)
		}
		cl, err = client.NewFromCCache(cc, conf, client.DisablePAFXFAST(true))
		if err != nil {
			return nil, fmt.Errorf("create client from ccache: %w", err)
		}
	default:
		cl = client.NewWithPassword(
			r.Credentials.Username,
			realm,
			r.Credentials.Password,
			conf,
			client.DisablePAFXFAST(true),
		)
	}

	return &PureKerberosProvider{
		client:    cl,
		targetSPN: targetSPN,
	}, nil
}

// Step performs the initial SPNEGO step. A server token after completion is
// accepted without verification; mutual authentication is not modelled.
func (p *PureKerberosProvider) Step(ctx context.Context, inputToken []byte) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if len(inputToken) != 0 {
		if !p.isComplete {
			return nil, false, fmt.Errorf("received server token before client token was sent")
		}
		return nil, false, nil
	}

	if p.spnegoClient == nil {
		if err := p.client.Login(); err != nil {
			return nil, false, fmt.Errorf("kerberos login: %w", err)
		}
		p.spnegoClient = spnego.SPNEGOClient(p.client, p.targetSPN)
	}

	tkn, err := p.spnegoClient.InitSecContext()
	if err != nil {
		return nil, false, fmt.Errorf("init sec context for %s: %w", p.targetSPN, err)
	}
	token, err := tkn.Marshal()
	if err != nil {
		return nil, false, fmt.Errorf("marshal token: %w", err)
	}

	p.isComplete = true
	return token, false, nil
}

// Complete returns true once the initial token has been produced.
func (p *PureKerberosProvider) Complete() bool {
	return p.isComplete
}

// Close releases resources.
func (p *PureKerberosProvider) Close() error {
	p.client.Destroy()
	return nil
}
