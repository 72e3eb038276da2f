package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type mockSecurityProvider struct {
	stepFunc func(ctx context.Context, inputToken []byte) ([]byte, bool, error)
	complete bool
	closed   bool
}

func (m *mockSecurityProvider) Step(ctx context.Context, inputToken []byte) ([]byte, bool, error) {
	if m.stepFunc != nil {
		return m.stepFunc(ctx, inputToken)
	}
	m.complete = true
	return nil, false, nil
}

func (m *mockSecurityProvider) Complete() bool { return m.complete }

func (m *mockSecurityProvider) Close() error {
	m.closed = true
	return nil
}

type mockRoundTripper struct {
	fn func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) { return m.fn(req) }

func TestNegotiateAuth_Name(t *testing.T) {
	a := NewNegotiateAuth(func() (SecurityProvider, error) { return &mockSecurityProvider{}, nil })
	if a.Name() != "Negotiate" {
		t.Errorf("Name() = %q, want Negotiate", a.Name())
	}
}

func TestNegotiateRoundTrip_NoChallenge(t *testing.T) {
	provider := &mockSecurityProvider{
		stepFunc: func(ctx context.Context, inputToken []byte) ([]byte, bool, error) {
			return []byte("initial-token"), false, nil
		},
	}

	var gotAuth string
	base := &mockRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		gotAuth = req.Header.Get("Authorization")
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}}

	a := NewNegotiateAuth(func() (SecurityProvider, error) { return provider, nil })
	rt := a.Transport(base)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	want := "Negotiate " + base64.StdEncoding.EncodeToString([]byte("initial-token"))
	if gotAuth != want {
		t.Errorf("Authorization = %q, want %q", gotAuth, want)
	}
	if !provider.closed {
		t.Error("provider should be closed after the round trip completes")
	}
}

func TestNegotiateRoundTrip_ChallengeResponse(t *testing.T) {
	provider := &mockSecurityProvider{}

	requests := 0
	base := &mockRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		requests++
		auth := req.Header.Get("Authorization")
		switch requests {
		case 1:
			want := "Negotiate " + base64.StdEncoding.EncodeToString([]byte("client-token-1"))
			if auth != want {
				t.Errorf("request 1 auth = %q, want %q", auth, want)
			}
			return &http.Response{
				StatusCode: http.StatusUnauthorized,
				Header:     http.Header{"Www-Authenticate": []string{"Negotiate " + base64.StdEncoding.EncodeToString([]byte("server-challenge"))}},
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil
		case 2:
			want := "Negotiate " + base64.StdEncoding.EncodeToString([]byte("client-token-2"))
			if auth != want {
				t.Errorf("request 2 auth = %q, want %q", auth, want)
			}
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("success"))}, nil
		default:
			return nil, errors.New("unexpected request count")
		}
	}}

	after := 0
	provider.stepFunc = func(ctx context.Context, inputToken []byte) ([]byte, bool, error) {
		after++
		if after == 1 {
			return []byte("client-token-1"), true, nil
		}
		if string(inputToken) != "server-challenge" {
			t.Errorf("second Step call got input token %q, want server-challenge", inputToken)
		}
		provider.complete = true
		return []byte("client-token-2"), false, nil
	}

	a := NewNegotiateAuth(func() (SecurityProvider, error) { return provider, nil })
	rt := a.Transport(base)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", strings.NewReader("body"))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("final StatusCode = %d, want 200", resp.StatusCode)
	}
	if after != 2 {
		t.Errorf("Step called %d times, want 2", after)
	}
	if requests != 2 {
		t.Errorf("base RoundTrip called %d times, want 2", requests)
	}
}

func TestNegotiateRoundTrip_PreservesBodyAcrossChallenge(t *testing.T) {
	provider := &mockSecurityProvider{
		stepFunc: func(ctx context.Context, inputToken []byte) ([]byte, bool, error) {
			if inputToken == nil {
				return []byte("token"), true, nil
			}
			return []byte("token2"), false, nil
		},
	}

	requests := 0
	base := &mockRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		requests++
		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if string(body) != "request-body" {
			t.Errorf("request %d body = %q, want request-body", requests, body)
		}
		if requests == 1 {
			return &http.Response{
				StatusCode: http.StatusUnauthorized,
				Header:     http.Header{"Www-Authenticate": []string{"Negotiate"}},
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil
		}
		provider.complete = true
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}}

	a := NewNegotiateAuth(func() (SecurityProvider, error) { return provider, nil })
	rt := a.Transport(base)

	req := httptest.NewRequest(http.MethodPost, "http://example.com", strings.NewReader("request-body"))
	req.ContentLength = int64(len("request-body"))
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if requests != 2 {
		t.Errorf("base RoundTrip called %d times, want 2", requests)
	}
}

func TestNegotiateRoundTrip_UnauthorizedWithoutChallengeHeader(t *testing.T) {
	provider := &mockSecurityProvider{
		stepFunc: func(ctx context.Context, inputToken []byte) ([]byte, bool, error) {
			return []byte("token"), true, nil
		},
	}

	base := &mockRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusUnauthorized, Body: io.NopCloser(strings.NewReader(""))}, nil
	}}

	a := NewNegotiateAuth(func() (SecurityProvider, error) { return provider, nil })
	rt := a.Transport(base)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", resp.StatusCode)
	}
}

func TestNegotiateRoundTrip_ProviderCreationError(t *testing.T) {
	a := NewNegotiateAuth(func() (SecurityProvider, error) { return nil, errors.New("no KDC reachable") })
	rt := a.Transport(&mockRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		t.Fatal("base transport should not be invoked when provider creation fails")
		return nil, nil
	}})

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Error("expected an error when the provider factory fails")
	}
}
