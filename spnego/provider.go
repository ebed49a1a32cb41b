package spnego

import "context"

// SecurityProvider handles the low-level token exchange for one security
// context. It abstracts the differences between go-krb5, gokrb5 and SSPI.
//
// # Thread Safety
//
// SecurityProvider implementations are NOT safe for concurrent use. A
// provider holds the state of a single handshake and is discarded after it.
//
// # Authentication Flow
//
// This harness only drives the first leg:
//  1. Caller invokes Step(ctx, nil) -> initial token
//  2. Token is sent once as "Authorization: Negotiate <token>"
//
// Providers still report continueNeeded honestly so callers can log it.
type SecurityProvider interface {
	// Step processes an input token (challenge) and produces an output token.
	// On the first call, inputToken should be nil.
	Step(ctx context.Context, inputToken []byte) (outputToken []byte, continueNeeded bool, err error)

	// Complete returns true if the security context has been established.
	Complete() bool

	// Close releases any resources associated with the context.
	Close() error
}
