package auth

import (
	"net/http"
	"testing"
)

func TestNTLMAuth_Name(t *testing.T) {
	creds := Credentials{Username: "user", Password: "pass", Domain: "domain"}
	a := NewNTLMAuth(creds)
	if a.Name() != "NTLM" {
		t.Errorf("Name() = %q, want NTLM", a.Name())
	}
}

func TestNTLMAuth_Transport_ReturnsRoundTripper(t *testing.T) {
	creds := Credentials{Username: "user", Password: "pass"}
	a := NewNTLMAuth(creds)
	base := &mockRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK}, nil
	}}

	if rt := a.Transport(base); rt == nil {
		t.Error("Transport() returned nil")
	}
}

func TestCredentialsRoundTripper_SetsBasicAuthWithDomain(t *testing.T) {
	creds := Credentials{Username: "user", Password: "pass", Domain: "domain"}

	base := &mockRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		u, p, ok := req.BasicAuth()
		if !ok {
			t.Fatal("Basic auth not set on request")
		}
		if u != `domain\user` {
			t.Errorf("Username = %q, want domain\\user", u)
		}
		if p != "pass" {
			t.Errorf("Password = %q, want pass", p)
		}
		return &http.Response{StatusCode: http.StatusOK}, nil
	}}

	wrapper := &credentialsRoundTripper{creds: creds, base: base}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if _, err := wrapper.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
}

func TestCredentialsRoundTripper_NoDomain(t *testing.T) {
	creds := Credentials{Username: "user", Password: "pass"}

	base := &mockRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		u, _, ok := req.BasicAuth()
		if !ok {
			t.Fatal("Basic auth not set on request")
		}
		if u != "user" {
			t.Errorf("Username = %q, want user", u)
		}
		return &http.Response{StatusCode: http.StatusOK}, nil
	}}

	wrapper := &credentialsRoundTripper{creds: creds, base: base}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if _, err := wrapper.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
}

func TestCredentialsRoundTripper_DoesNotMutateOriginalRequest(t *testing.T) {
	creds := Credentials{Username: "user", Password: "pass"}
	base := &mockRoundTripper{fn: func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK}, nil
	}}

	wrapper := &credentialsRoundTripper{creds: creds, base: base}
	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)
	if _, err := wrapper.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip failed: %v", err)
	}
	if _, _, ok := req.BasicAuth(); ok {
		t.Error("original request should not be mutated")
	}
}
