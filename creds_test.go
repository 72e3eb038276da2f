package winrm

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewAuthenticator_Kerberos(t *testing.T) {
	authenticator, opts, err := newAuthenticator(KerberosCreds{Realm: "EXAMPLE.COM", TargetSPN: "HTTP/host.example.com"})
	if err != nil {
		t.Fatalf("newAuthenticator failed: %v", err)
	}
	if authenticator.Name() != "Negotiate" {
		t.Errorf("Name() = %q, want Negotiate", authenticator.Name())
	}
	if opts != nil {
		t.Errorf("KerberosCreds should not imply any transport options, got %v", opts)
	}
}

func TestNewAuthenticator_Plaintext(t *testing.T) {
	authenticator, opts, err := newAuthenticator(PlaintextCreds{Username: "admin", Password: "x", Domain: "WORKGROUP"})
	if err != nil {
		t.Fatalf("newAuthenticator failed: %v", err)
	}
	if authenticator.Name() != "NTLM" {
		t.Errorf("Name() = %q, want NTLM", authenticator.Name())
	}
	if opts != nil {
		t.Errorf("PlaintextCreds should not imply any transport options, got %v", opts)
	}
}

func TestNewAuthenticator_TLS(t *testing.T) {
	authenticator, opts, err := newAuthenticator(TLSCreds{Username: "admin", Password: "x"})
	if err != nil {
		t.Fatalf("newAuthenticator failed: %v", err)
	}
	if authenticator.Name() != "Basic" {
		t.Errorf("Name() = %q, want Basic", authenticator.Name())
	}
	if len(opts) != 1 {
		t.Fatalf("TLSCreds should imply exactly one transport option, got %d", len(opts))
	}
}

func TestNewAuthenticator_TLS_InvalidCACertPath(t *testing.T) {
	_, _, err := newAuthenticator(TLSCreds{Username: "admin", Password: "x", CACertPath: "/nonexistent/ca.pem"})
	if err == nil {
		t.Error("expected an error for a missing CA bundle file")
	}
}

func TestNewAuthenticator_UnsupportedType(t *testing.T) {
	if _, _, err := newAuthenticator("a bare string is not a credential type"); err == nil {
		t.Error("expected an error for an unsupported credential type")
	}
}

func TestNewAuthenticator_TLS_LoadsValidCACertPool(t *testing.T) {
	path := writeSelfSignedCAPEM(t)
	_, opts, err := newAuthenticator(TLSCreds{Username: "admin", Password: "x", CACertPath: path})
	if err != nil {
		t.Fatalf("newAuthenticator failed: %v", err)
	}
	if len(opts) != 1 {
		t.Fatalf("expected exactly one transport option, got %d", len(opts))
	}
	if opts[0] == nil {
		t.Error("expected a non-nil transport.Option")
	}
}

func TestLoadCAPool_MissingFile(t *testing.T) {
	if _, err := loadCAPool(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadCAPool_InvalidPEM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pem")
	if err := os.WriteFile(path, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	if _, err := loadCAPool(path); err == nil {
		t.Error("expected an error for a file with no valid certificates")
	}
}

func TestLoadCAPool_ValidPEM(t *testing.T) {
	path := writeSelfSignedCAPEM(t)
	pool, err := loadCAPool(path)
	if err != nil {
		t.Fatalf("loadCAPool failed: %v", err)
	}
	if pool == nil {
		t.Fatal("expected a non-nil cert pool")
	}
}

// writeSelfSignedCAPEM generates a throwaway self-signed certificate and
// writes its PEM encoding to a temp file, returning the path.
func writeSelfSignedCAPEM(t *testing.T) string {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "ca.pem")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create PEM file: %v", err)
	}
	defer f.Close()
	if err := pem.Encode(f, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
		t.Fatalf("encode PEM: %v", err)
	}
	return path
}
