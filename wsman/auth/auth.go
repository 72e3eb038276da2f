package auth

import "net/http"

// Authenticator wraps a base http.RoundTripper with an authentication
// scheme. It models the three transport-credential variants the session
// facade accepts (Kerberos, Plaintext/NTLM, TLS+Basic) as a single interface
// with three constructors, rather than a runtime tagged dispatch.
type Authenticator interface {
	// Transport wraps base with this scheme's authentication logic.
	Transport(base http.RoundTripper) http.RoundTripper
	// Name returns the authentication scheme name, for logging.
	Name() string
}

// Credentials holds username/password/domain credentials, shared by the
// Basic, NTLM, and password-based Kerberos providers.
type Credentials struct {
	Username string
	Password string
	// Domain is the optional NTLM domain.
	Domain string
}
