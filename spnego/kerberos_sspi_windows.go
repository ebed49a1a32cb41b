//go:build windows

package spnego

import (
	"context"
	"fmt"

	"github.com/alexbrainman/sspi"
	"github.com/alexbrainman/sspi/kerberos"
	"github.com/alexbrainman/sspi/negotiate"
)

// SSPIConfig holds configuration for the SSPI provider.
type SSPIConfig struct {
	UseDefaultCreds bool
	Username        string
	Password        string
	Domain          string
	// PackageName is SSPIPackageNegotiate (default) or SSPIPackageKerberos.
	PackageName string
}

// sspiClientContext is the part of negotiate.ClientContext and
// kerberos.ClientContext the provider uses.
type sspiClientContext interface {
	Update(token []byte) (bool, []byte, error)
	Release() error
}

// SSPIProvider implements SecurityProvider using a Windows SSPI package.
type SSPIProvider struct {
	packageName string
	targetSPN   string
	complete    bool

	cred *sspi.Credentials
	ctx  sspiClientContext
}

// NewSSPIProvider acquires credentials for a new SSPI provider.
func NewSSPIProvider(cfg SSPIConfig, targetSPN string) (*SSPIProvider, error) {
	packageName, err := ParseSSPIPackage(cfg.PackageName)
	if err != nil {
		return nil, err
	}

	var cred *sspi.Credentials
	switch {
	case packageName == SSPIPackageKerberos && cfg.UseDefaultCreds:
		cred, err = kerberos.AcquireCurrentUserCredentials()
	case packageName == SSPIPackageKerberos:
		cred, err = kerberos.AcquireUserCredentials(cfg.Domain, cfg.Username, cfg.Password)
	case cfg.UseDefaultCreds:
		cred, err = negotiate.AcquireCurrentUserCredentials()
	default:
		cred, err = negotiate.AcquireUserCredentials(cfg.Domain, cfg.Username, cfg.Password)
	}
	if err != nil {
		return nil, fmt.Errorf("acquire SSPI %s credentials: %w", packageName, err)
	}

	return &SSPIProvider{
		packageName: packageName,
		targetSPN:   targetSPN,
		cred:        cred,
	}, nil
}

// Step creates the client context on the first call and feeds server
// tokens to it afterwards.
func (p *SSPIProvider) Step(ctx context.Context, inputToken []byte) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if p.ctx == nil {
		return p.initContext()
	}

	done, token, err := p.ctx.Update(inputToken)
	if err != nil {
		return nil, false, fmt.Errorf("update SSPI context: %w", err)
	}
	p.complete = done
	return token, !done, nil
}

func (p *SSPIProvider) initContext() ([]byte, bool, error) {
	if p.packageName == SSPIPackageKerberos {
		cc, done, token, err := kerberos.NewClientContext(p.cred, p.targetSPN)
		if err != nil {
			return nil, false, fmt.Errorf("initialize SSPI Kerberos context for %s: %w", p.targetSPN, err)
		}
		p.ctx = cc
		p.complete = done
		return token, !done, nil
	}

	cc, token, err := negotiate.NewClientContext(p.cred, p.targetSPN)
	if err != nil {
		return nil, false, fmt.Errorf("initialize SSPI Negotiate context for %s: %w", p.targetSPN, err)
	}
	p.ctx = cc
	return token, true, nil
}

// Complete returns true if the authentication exchange is complete.
func (p *SSPIProvider) Complete() bool {
	return p.complete
}

// Close releases the context and credential handles.
func (p *SSPIProvider) Close() error {
	var firstErr error
	if p.ctx != nil {
		if err := p.ctx.Release(); err != nil {
			firstErr = err
		}
		p.ctx = nil
	}
	if p.cred != nil {
		if err := p.cred.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.cred = nil
	}
	return firstErr
}
