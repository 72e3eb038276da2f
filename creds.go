package winrm

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/cwb124/go-winrm/wsman/auth"
	"github.com/cwb124/go-winrm/wsman/transport"
)

// KerberosCreds describes the Kerberos/SPNEGO transport-credential
// variant: realm, target SPN, and either a keytab or password
// credentials.
type KerberosCreds struct {
	Realm        string
	TargetSPN    string
	Krb5ConfPath string
	KeytabPath   string
	CCachePath   string
	Username     string
	Password     string
}

// PlaintextCreds describes the NTLM transport-credential variant: the
// WinRM wire traffic is not TLS-wrapped, so this is typically paired with
// an http:// endpoint on a trusted network.
type PlaintextCreds struct {
	Username string
	Password string
	Domain   string
}

// TLSCreds describes the TLS+Basic transport-credential variant: an
// https:// endpoint authenticated with HTTP Basic, optionally verified
// against a custom CA bundle.
type TLSCreds struct {
	Username   string
	Password   string
	CACertPath string
	// InsecureSkipVerify disables certificate verification. Only ever set
	// this for testing against a self-signed lab endpoint.
	InsecureSkipVerify bool
}

// newAuthenticator builds the auth.Authenticator and any transport
// options implied by a credential variant.
func newAuthenticator(creds any) (auth.Authenticator, []transport.Option, error) {
	switch c := creds.(type) {
	case KerberosCreds:
		var kerbCreds *auth.Credentials
		if c.Username != "" {
			kerbCreds = &auth.Credentials{Username: c.Username, Password: c.Password}
		}
		cfg := auth.KerberosConfig{
			Realm:        c.Realm,
			TargetSPN:    c.TargetSPN,
			Krb5ConfPath: c.Krb5ConfPath,
			KeytabPath:   c.KeytabPath,
			CCachePath:   c.CCachePath,
			Credentials:  kerbCreds,
		}
		authenticator := auth.NewNegotiateAuth(func() (auth.SecurityProvider, error) {
			return auth.NewKerberosProvider(cfg)
		})
		return authenticator, nil, nil

	case PlaintextCreds:
		authenticator := auth.NewNTLMAuth(auth.Credentials{
			Username: c.Username,
			Password: c.Password,
			Domain:   c.Domain,
		})
		return authenticator, nil, nil

	case TLSCreds:
		authenticator := auth.NewBasicAuth(auth.Credentials{Username: c.Username, Password: c.Password})
		tlsConfig := &tls.Config{InsecureSkipVerify: c.InsecureSkipVerify}
		if c.CACertPath != "" {
			pool, err := loadCAPool(c.CACertPath)
			if err != nil {
				return nil, nil, err
			}
			tlsConfig.RootCAs = pool
		}
		return authenticator, []transport.Option{transport.WithTLSConfig(tlsConfig)}, nil

	default:
		return nil, nil, fmt.Errorf("winrm: unsupported credential type %T", creds)
	}
}

func loadCAPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("winrm: read CA bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("winrm: no certificates found in %s", path)
	}
	return pool, nil
}
