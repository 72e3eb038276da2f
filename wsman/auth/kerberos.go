package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/jcmturner/gokrb5/v8/client"
	"github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/spnego"
)

// KerberosConfig configures a Kerberos SecurityProvider, matching the
// Kerberos TransportCreds variant: realm, service principal, optional
// keytab path (falling back to password credentials).
type KerberosConfig struct {
	// Realm is the Kerberos realm, e.g. "EXAMPLE.COM".
	Realm string
	// TargetSPN is the target Service Principal Name, e.g.
	// "HTTP/winrm-host.example.com".
	TargetSPN string
	// Krb5ConfPath is the path to krb5.conf. Defaults to $KRB5_CONFIG, then
	// /etc/krb5.conf.
	Krb5ConfPath string
	// KeytabPath, if set, authenticates from a keytab instead of a password.
	KeytabPath string
	// CCachePath, if set (and KeytabPath is empty), authenticates from an
	// existing credential cache (e.g. one populated by kinit) instead of a
	// keytab or password.
	CCachePath string
	// Credentials supplies username/password when neither KeytabPath nor
	// CCachePath is set.
	Credentials *Credentials
}

// KerberosProvider implements SecurityProvider using the pure-Go gokrb5
// library, the SPNEGO/GSSAPI backend named in the purpose & scope section.
type KerberosProvider struct {
	client       *client.Client
	spnegoClient *spnego.SPNEGO
	targetSPN    string
	complete     bool
}

// NewKerberosProvider creates a Kerberos SecurityProvider from cfg.
func NewKerberosProvider(cfg KerberosConfig) (*KerberosProvider, error) {
	krb5ConfPath := cfg.Krb5ConfPath
	if krb5ConfPath == "" {
		krb5ConfPath = os.Getenv("KRB5_CONFIG")
	}
	if krb5ConfPath == "" {
		krb5ConfPath = "/etc/krb5.conf"
	}
	conf, err := config.Load(krb5ConfPath)
	if err != nil {
		return nil, fmt.Errorf("auth: load krb5.conf: %w", err)
	}

	var cl *client.Client
	switch {
	case cfg.KeytabPath != "":
		if cfg.Credentials == nil || cfg.Credentials.Username == "" {
			return nil, fmt.Errorf("auth: keytab authentication requires a username")
		}
		kt, err := keytab.Load(cfg.KeytabPath)
		if err != nil {
			return nil, fmt.Errorf("auth: load keytab: %w", err)
		}
		cl = client.NewWithKeytab(cfg.Credentials.Username, cfg.Realm, kt, conf)
	case cfg.CCachePath != "":
		cc, err := credentials.LoadCCache(cfg.CCachePath)
		if err != nil {
			return nil, fmt.Errorf("auth: load credential cache: %w", err)
		}
		cl, err = client.NewFromCCache(cc, conf)
		if err != nil {
			return nil, fmt.Errorf("auth: create client from credential cache: %w", err)
		}
	case cfg.Credentials != nil:
		cl = client.NewWithPassword(cfg.Credentials.Username, cfg.Realm, cfg.Credentials.Password, conf)
	default:
		return nil, fmt.Errorf("auth: kerberos requires a keytab path, a credential cache path, or username/password credentials")
	}

	return &KerberosProvider{client: cl, targetSPN: cfg.TargetSPN}, nil
}

// Step performs one leg of the SPNEGO handshake.
func (p *KerberosProvider) Step(_ context.Context, inputToken []byte) ([]byte, bool, error) {
	if p.spnegoClient == nil {
		if err := p.client.Login(); err != nil {
			return nil, false, fmt.Errorf("auth: kerberos login: %w", err)
		}
		p.spnegoClient = spnego.SPNEGOClient(p.client, p.targetSPN)
	}

	if len(inputToken) != 0 {
		// Standard Kerberos HTTP negotiation is a single client-initiated
		// leg; a server challenge at this point is a mutual-auth token we
		// don't need to act on to consider the context established.
		p.complete = true
		return nil, false, nil
	}

	tkn, err := p.spnegoClient.InitSecContext()
	if err != nil {
		return nil, false, fmt.Errorf("auth: kerberos init security context: %w", err)
	}
	token, err := tkn.Marshal()
	if err != nil {
		return nil, false, fmt.Errorf("auth: marshal spnego token: %w", err)
	}
	p.complete = true
	return token, false, nil
}

// Complete reports whether the security context is established.
func (p *KerberosProvider) Complete() bool { return p.complete }

// Close releases the underlying Kerberos client.
func (p *KerberosProvider) Close() error {
	p.client.Destroy()
	return nil
}
