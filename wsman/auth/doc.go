// Package auth provides authentication handlers for WSMan connections.
//
// # Supported authentication methods
//
//   - Basic: HTTP Basic authentication, intended for use over TLS (the TLS
//     TransportCreds variant in the root package).
//   - NTLM: NT LAN Manager authentication via github.com/Azure/go-ntlmssp,
//     the "plaintext" TransportCreds variant.
//   - Negotiate: SPNEGO authentication backed by a pluggable SecurityProvider,
//     with a Kerberos provider built on github.com/jcmturner/gokrb5.
//
// # Usage
//
// NTLM authentication:
//
//	a := auth.NewNTLMAuth(auth.Credentials{Username: "administrator", Password: "secret", Domain: "CORP"})
//
// Kerberos authentication:
//
//	a := auth.NewNegotiateAuth(func() (auth.SecurityProvider, error) {
//	    return auth.NewKerberosProvider(auth.KerberosConfig{
//	        Realm:       "EXAMPLE.COM",
//	        TargetSPN:   "HTTP/winrm-host.example.com",
//	        Credentials: &auth.Credentials{Username: "user", Password: "pass"},
//	    })
//	})
package auth
