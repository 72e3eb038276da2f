// Package winrm is a client library for Microsoft's WS-Management (WinRM)
// protocol: opening a remote Windows command shell over HTTP(S), running
// commands or PowerShell scripts, streaming their output back, and issuing
// WQL queries against WMI.
//
// The protocol engine lives in wsman (envelope construction, the WSMan
// operations, fault parsing) and winrs (shell/command lifecycle, the
// output pump); this package is the session facade tying them together
// with authentication, resilience, and the composite run-to-completion
// flows most callers want.
//
//	sess, err := winrm.NewSession("https://host:5986/wsman",
//		winrm.TLSCreds{Username: "admin", Password: "hunter2"},
//	)
//	if err != nil {
//		return err
//	}
//	out, err := sess.RunCmd(ctx, "ipconfig", "/all")
package winrm
