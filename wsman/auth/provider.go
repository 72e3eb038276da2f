package auth

import "context"

// SecurityProvider handles the low-level token exchange for SPNEGO
// authentication, abstracting the differences between Kerberos backends.
//
// # Thread safety
//
// A SecurityProvider is NOT safe for concurrent use; it holds handshake
// state for a single security context. Each goroutine (each *wsman.Client)
// should use its own provider instance.
//
// # Flow
//
//  1. Client calls Step(ctx, nil) -> initial token.
//  2. Client sends the token to the server as an Authorization: Negotiate header.
//  3. Server replies 401 with a WWW-Authenticate: Negotiate challenge token.
//  4. Client calls Step(ctx, challenge) -> response token.
//  5. Repeat until Complete() is true.
type SecurityProvider interface {
	// Step processes an input token (nil on the first call) and produces an
	// output token to send to the server.
	Step(ctx context.Context, inputToken []byte) (outputToken []byte, continueNeeded bool, err error)
	// Complete reports whether the security context has been established.
	Complete() bool
	// Close releases any resources held by the security context.
	Close() error
}
