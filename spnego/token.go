package spnego

import "encoding/base64"

// Scheme is the HTTP authentication scheme label.
const Scheme = "Negotiate"

// AuthToken is the opaque output of one negotiation round.
type AuthToken []byte

// HeaderValue returns the Authorization header value for the token.
func (t AuthToken) HeaderValue() string {
	return Scheme + " " + base64.StdEncoding.EncodeToString(t)
}

// String keeps raw tokens out of formatted output.
func (t AuthToken) String() string {
	return "[REDACTED SPNEGO token]"
}
