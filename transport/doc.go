// Package transport provides the HTTP/TLS transport used to reach the login
// endpoint.
//
// The transport layer handles:
//   - HTTP/HTTPS connections and TLS configuration
//   - Proxy selection
//   - Request timeouts
//
// Unlike an API client it does not interpret status codes; callers receive
// the status and body of every response that arrived.
package transport
