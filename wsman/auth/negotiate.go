package auth

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
)

// NegotiateAuth drives a SPNEGO/Negotiate 401 challenge-response handshake
// on top of a SecurityProvider (Kerberos today, pluggable for other GSSAPI
// backends later). Unlike the teacher's message-encryption variant, this
// implementation only authenticates the channel; it does not wrap request
// or response bodies in WinRM's encrypted multipart envelope. That is an
// MS-WSMV extension for message-level confidentiality over plaintext HTTP,
// outside this client's transport contract of authentication plus
// TLS-verified confidentiality.
type NegotiateAuth struct {
	newProvider func() (SecurityProvider, error)
}

// NewNegotiateAuth creates a Negotiate authentication handler. newProvider
// is called once per RoundTrip to obtain a fresh SecurityProvider, since a
// provider holds single-handshake state and cannot be reused across
// requests.
func NewNegotiateAuth(newProvider func() (SecurityProvider, error)) *NegotiateAuth {
	return &NegotiateAuth{newProvider: newProvider}
}

// Name returns the scheme name.
func (a *NegotiateAuth) Name() string { return "Negotiate" }

// Transport wraps base with the Negotiate handshake.
func (a *NegotiateAuth) Transport(base http.RoundTripper) http.RoundTripper {
	return &negotiateTransport{base: base, newProvider: a.newProvider}
}

type negotiateTransport struct {
	base        http.RoundTripper
	newProvider func() (SecurityProvider, error)
}

func (t *negotiateTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("auth: read request body for negotiate replay: %w", err)
		}
	}

	provider, err := t.newProvider()
	if err != nil {
		return nil, fmt.Errorf("auth: create security provider: %w", err)
	}
	defer provider.Close()

	reqCopy := cloneWithBody(req, bodyBytes)
	token, _, err := provider.Step(req.Context(), nil)
	if err != nil {
		return nil, fmt.Errorf("auth: negotiate initial step: %w", err)
	}
	reqCopy.Header.Set("Authorization", "Negotiate "+base64.StdEncoding.EncodeToString(token))

	resp, err := t.base.RoundTrip(reqCopy)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	challenge, ok := negotiateChallenge(resp)
	if !ok {
		// No negotiate challenge to continue from; the 401 stands as-is.
		return resp, nil
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	for !provider.Complete() {
		token, continueNeeded, err := provider.Step(req.Context(), challenge)
		if err != nil {
			return nil, fmt.Errorf("auth: negotiate step: %w", err)
		}

		reqCopy = cloneWithBody(req, bodyBytes)
		reqCopy.Header.Set("Authorization", "Negotiate "+base64.StdEncoding.EncodeToString(token))
		resp, err = t.base.RoundTrip(reqCopy)
		if err != nil {
			return nil, err
		}
		if !continueNeeded || resp.StatusCode != http.StatusUnauthorized {
			return resp, nil
		}

		next, ok := negotiateChallenge(resp)
		if !ok {
			return resp, nil
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		challenge = next
	}

	return resp, nil
}

func cloneWithBody(req *http.Request, body []byte) *http.Request {
	reqCopy := req.Clone(req.Context())
	if body != nil {
		reqCopy.Body = io.NopCloser(bytes.NewReader(body))
		reqCopy.ContentLength = int64(len(body))
	}
	return reqCopy
}

// negotiateChallenge extracts the base64 token from a WWW-Authenticate:
// Negotiate header, if present.
func negotiateChallenge(resp *http.Response) ([]byte, bool) {
	for _, v := range resp.Header.Values("WWW-Authenticate") {
		const prefix = "Negotiate"
		if len(v) < len(prefix) || v[:len(prefix)] != prefix {
			continue
		}
		rest := v[len(prefix):]
		for len(rest) > 0 && rest[0] == ' ' {
			rest = rest[1:]
		}
		if rest == "" {
			return nil, true
		}
		decoded, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			continue
		}
		return decoded, true
	}
	return nil, false
}
