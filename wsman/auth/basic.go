package auth

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"sync"
)

// BasicAuth implements HTTP Basic authentication. It is meant to be used
// only over TLS - the session facade's TLS TransportCreds variant pairs it
// with an HTTPTransport whose endpoint is always https://.
type BasicAuth struct {
	creds Credentials
}

// NewBasicAuth creates a Basic authentication handler.
func NewBasicAuth(creds Credentials) *BasicAuth {
	return &BasicAuth{creds: creds}
}

// Name returns the scheme name.
func (a *BasicAuth) Name() string { return "Basic" }

// Transport wraps base with a Basic Authorization header.
func (a *BasicAuth) Transport(base http.RoundTripper) http.RoundTripper {
	return &basicTransport{base: base, creds: a.creds}
}

type basicTransport struct {
	base     http.RoundTripper
	creds    Credentials
	warnOnce sync.Once
}

func (t *basicTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		t.warnOnce.Do(func() {
			slog.Warn("basic auth over non-HTTPS connection; credentials are not encrypted", "host", req.URL.Host)
		})
	}

	reqCopy := req.Clone(req.Context())
	auth := t.creds.Username + ":" + t.creds.Password
	reqCopy.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	return t.base.RoundTrip(reqCopy)
}
