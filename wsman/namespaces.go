// Package wsman implements a WS-Management (WSMan) client for communicating
// with WinRM endpoints.
//
// It provides the SOAP 1.2 envelope construction, WS-Addressing/WS-Management
// header assembly, and the core WSMan operations needed to drive a remote
// cmd.exe shell: Create, Delete, Command, Receive, Signal, and Enumerate
// (for WQL queries against WMI).
//
// # Subpackages
//
//   - auth: authentication handlers (Basic, NTLM, Kerberos/SPNEGO)
//   - transport: HTTP/TLS transport layer
package wsman

// XML namespace URIs used in WS-Management SOAP envelopes.
const (
	// NsSoap is the SOAP 1.2 envelope namespace.
	NsSoap = "http://www.w3.org/2003/05/soap-envelope"

	// NsAddressing is the WS-Addressing namespace.
	NsAddressing = "http://schemas.xmlsoap.org/ws/2004/08/addressing"

	// NsWsman is the DMTF WS-Management namespace.
	NsWsman = "http://schemas.dmtf.org/wbem/wsman/1/wsman.xsd"

	// NsWsmanMicrosoft is the Microsoft WS-Management namespace extension.
	NsWsmanMicrosoft = "http://schemas.microsoft.com/wbem/wsman/1/wsman.xsd"

	// NsShell is the Windows Remote Shell namespace.
	NsShell = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell"

	// NsTransfer is the WS-Transfer namespace.
	NsTransfer = "http://schemas.xmlsoap.org/ws/2004/09/transfer"

	// NsEnumeration is the WS-Enumeration namespace.
	NsEnumeration = "http://schemas.xmlsoap.org/ws/2004/09/enumeration"

	// NsCimBinding is the DMTF CIM binding namespace.
	NsCimBinding = "http://schemas.dmtf.org/wbem/wsman/1/cimbinding.xsd"
)

// AddressAnonymous is the WS-Addressing anonymous reply address.
const AddressAnonymous = "http://schemas.xmlsoap.org/ws/2004/08/addressing/role/anonymous"

// WS-Man action URIs. Every one of these carries mustUnderstand=true when
// placed in a header.
const (
	ActionCreate  = "http://schemas.xmlsoap.org/ws/2004/09/transfer/Create"
	ActionDelete  = "http://schemas.xmlsoap.org/ws/2004/09/transfer/Delete"
	ActionCommand = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/Command"
	ActionReceive = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/Receive"
	ActionSignal  = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/Signal"

	ActionEnumerate = "http://schemas.xmlsoap.org/ws/2004/09/enumeration/Enumerate"
)

// SignalTerminate is the Signal code that terminates a running command.
const SignalTerminate = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/signal/terminate"

// ResourceURICmd is the resource URI for a plain cmd.exe WinRS shell.
const ResourceURICmd = "http://schemas.microsoft.com/wbem/wsman/1/windows/shell/cmd"

// ResourceURIWMI returns the resource URI for a WMI namespace. An empty
// namespace defaults to root/cimv2/*.
func ResourceURIWMI(namespace string) string {
	if namespace == "" {
		namespace = "root/cimv2/*"
	}
	return "http://schemas.microsoft.com/wbem/wsman/1/wmi/" + namespace
}

// DialectWQL is the WS-Management Filter dialect for WQL queries.
const DialectWQL = "http://schemas.microsoft.com/wbem/wsman/1/WQL"
