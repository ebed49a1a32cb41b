package spnego

import (
	"net"
	"strings"
)

// serviceClass is the GSS-API service name used for HTTP Negotiate.
const serviceClass = "HTTP"

// ServicePrincipalName identifies the acceptor of a security context.
type ServicePrincipalName struct {
	host string
}

// NewServicePrincipalName returns the HTTP service principal for host. The
// host may carry a port; it is kept in the host-based form and dropped from
// the Kerberos principal.
func NewServicePrincipalName(host string) ServicePrincipalName {
	return ServicePrincipalName{host: host}
}

// Host returns the host the name was built from.
func (s ServicePrincipalName) Host() string {
	return s.host
}

// String returns the GSS-API host-based form, "HTTP@<host>".
func (s ServicePrincipalName) String() string {
	return serviceClass + "@" + s.host
}

// Principal returns the Kerberos principal form, "HTTP/<hostname>", which
// is what KDCs and SSPI expect.
func (s ServicePrincipalName) Principal() string {
	hostname := s.host
	if h, _, err := net.SplitHostPort(hostname); err == nil {
		hostname = h
	}
	return serviceClass + "/" + strings.ToLower(strings.TrimSuffix(hostname, "."))
}
