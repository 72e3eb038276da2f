package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnauthorized is returned when the server responds with 401
// Unauthorized. Use errors.Is(err, ErrUnauthorized) to check for it.
var ErrUnauthorized = errors.New("transport: authentication failed (401 Unauthorized)")

// ContentTypeSOAP is the content type required for WS-Management requests.
const ContentTypeSOAP = "application/soap+xml;charset=UTF-8"

// DefaultTimeout is the default HTTP client timeout.
const DefaultTimeout = 60 * time.Second

// HTTPTransport sends SOAP envelopes over HTTP(S) and returns the raw
// response body. Authentication is applied by wrapping the client's
// RoundTripper (see wsman/auth); this type only owns connection tuning
// and TLS configuration.
type HTTPTransport struct {
	client *http.Client
}

// Option configures an HTTPTransport.
type Option func(*HTTPTransport)

// New creates an HTTPTransport with sane WinRM defaults: TLS 1.2 minimum,
// keep-alives enabled (NTLM/Kerberos both rely on connection reuse for their
// handshake), and a generous idle-connection pool for concurrent commands.
func New(opts ...Option) *HTTPTransport {
	t := &HTTPTransport{
		client: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
				DisableKeepAlives:   false,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithTimeout overrides the HTTP client timeout. Callers should set this to
// at least the WSMan OperationTimeout plus slack so a dead socket is caught
// at the transport layer rather than hanging indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTPTransport) { t.client.Timeout = d }
}

// WithTLSConfig sets a custom TLS configuration (e.g. a CA pool for a
// private certificate authority). MinVersion is enforced to TLS 1.2.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(t *HTTPTransport) {
		if cfg.MinVersion < tls.VersionTLS12 {
			cfg.MinVersion = tls.VersionTLS12
		}
		if rt, ok := t.client.Transport.(*http.Transport); ok {
			rt.TLSClientConfig = cfg
		}
	}
}

// WithRoundTripper replaces the base RoundTripper, e.g. to layer an
// authenticator from wsman/auth on top of it.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(t *HTTPTransport) { t.client.Transport = rt }
}

// Post sends a SOAP request and returns the raw response body. HTTP-level
// failures (non-2xx, connection errors) are returned as a Go error, distinct
// from SOAP faults which are embedded in a 2xx/500 response body and parsed
// separately by the caller.
func (t *HTTPTransport) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", ContentTypeSOAP)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("transport: access denied (403 Forbidden)")
	case resp.StatusCode == http.StatusInternalServerError && !bytes.Contains(respBody, []byte("Fault")):
		return nil, fmt.Errorf("transport: HTTP %d: %s", resp.StatusCode, truncate(respBody, 3000))
	case resp.StatusCode >= 400 && resp.StatusCode != http.StatusInternalServerError:
		// WinRM uses 500 to carry SOAP Faults in-band; anything else in the
		// 4xx/5xx range with no fault body is a transport-level failure.
		return nil, fmt.Errorf("transport: HTTP %d: %s", resp.StatusCode, truncate(respBody, 3000))
	}

	return respBody, nil
}

// Client returns the underlying *http.Client for advanced configuration.
func (t *HTTPTransport) Client() *http.Client { return t.client }

// CloseIdleConnections closes idle connections, forcing a fresh handshake
// (NTLM/Kerberos) on the next request.
func (t *HTTPTransport) CloseIdleConnections() { t.client.CloseIdleConnections() }

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
