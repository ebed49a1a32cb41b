package spnego

import (
	"context"
	"fmt"

	"github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/spnego"
)

// Gokrb5Provider implements SecurityProvider using github.com/jcmturner/gokrb5/v8.
type Gokrb5Provider struct {
	client       *client.Client
	spnegoClient *spnego.SPNEGO
	targetSPN    string
	isComplete   bool
}

// NewGokrb5Provider creates a gokrb5 provider for targetSPN ("HTTP/host" form).
func NewGokrb5Provider(cfg KerberosProviderConfig, targetSPN string) (*Gokrb5Provider, error) {
	r, err := cfg.resolve()
	if err != nil {
		return nil, err
	}

	conf, err := config.Load(r.Krb5ConfPath)
	if err != nil {
		return nil, fmt.Errorf("load krb5.conf: %w", err)
	}
	realm := r.Realm
	if realm == "" {
		realm = conf.LibDefaults.DefaultRealm
	}

	// Client options - disable FAST for compatibility with older KDCs
	clientOpts := []func(*client.Settings){
		client.DisablePAFXFAST(true),
	}

	var cl *client.Client
	switch r.source {
	case sourceKeytab:
		kt, err := keytab.Load(r.KeytabPath)
		if err != nil {
			return nil, fmt.Errorf("load keytab: %w", err)
		}
		cl = client.NewWithKeytab(r.Credentials.Username, realm, kt, conf, clientOpts...)
	case sourceCCache:
		cc, err := credentials.LoadCCache(r.CCachePath)
		if err != nil {
			return nil, fmt.Errorf("load ccache: %w", err)
		}
		cl, err = client.NewFromCCache(cc, conf, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("create client from ccache: %w", err)
		}
	default:
		cl = client.NewWithPassword(r.Credentials.Username, realm, r.Credentials.Password, conf, clientOpts...)
	}

	return &Gokrb5Provider{
		client:    cl,
		targetSPN: targetSPN,
	}, nil
}

// Step performs a GSS-API/SPNEGO step.
func (p *Gokrb5Provider) Step(ctx context.Context, inputToken []byte) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if p.spnegoClient == nil {
		if err := p.client.Login(); err != nil {
			return nil, false, fmt.Errorf("kerberos login: %w", err)
		}
		p.spnegoClient = spnego.SPNEGOClient(p.client, p.targetSPN)
	}

	// gokrb5 exposes no client-side continuation; standard Kerberos over
	// HTTP is one leg, so a server token is treated as the final reply.
	if len(inputToken) != 0 {
		return nil, false, nil
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

// Complete returns true if the context is established.
func (p *Gokrb5Provider) Complete() bool {
	return p.isComplete
}

// Close releases resources.
func (p *Gokrb5Provider) Close() error {
	p.client.Destroy()
	return nil
}
