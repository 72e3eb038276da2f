package wsman

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cwb124/go-winrm/wsman/transport"
)

// Client is a WSMan client for communicating with WinRM endpoints. Every
// call builds a fresh envelope (fresh MessageID) against the operation
// parameters handed to it; it holds no shell/command state of its own -
// that is the job of the winrs package and the root Session facade.
type Client struct {
	endpoint  string
	transport *transport.HTTPTransport

	maxEnvelopeSize  int
	operationTimeout string
	locale           string
}

// NewClient creates a new WSMan client bound to endpoint.
func NewClient(endpoint string, tr *transport.HTTPTransport) *Client {
	return &Client{
		endpoint:         endpoint,
		transport:        tr,
		maxEnvelopeSize:  153600,
		operationTimeout: OperationTimeout(60),
		locale:           "en-US",
	}
}

// SetMaxEnvelopeSize overrides the w:MaxEnvelopeSize header used on
// subsequent operations.
func (c *Client) SetMaxEnvelopeSize(size int) { c.maxEnvelopeSize = size }

// SetOperationTimeoutSeconds overrides the w:OperationTimeout header used on
// subsequent operations.
func (c *Client) SetOperationTimeoutSeconds(seconds int) {
	c.operationTimeout = OperationTimeout(seconds)
}

// SetLocale overrides the w:Locale / p:DataLocale header used on subsequent
// operations.
func (c *Client) SetLocale(locale string) { c.locale = locale }

func freshMessageID() string {
	return "uuid:" + strings.ToUpper(uuid.New().String())
}

func (c *Client) baseEnvelope(action, resourceURI string) *Envelope {
	return NewEnvelope().
		WithAction(action).
		WithTo(c.endpoint).
		WithResourceURI(resourceURI).
		WithMessageID(freshMessageID()).
		WithReplyTo(AddressAnonymous).
		WithMaxEnvelopeSize(c.maxEnvelopeSize).
		WithOperationTimeout(c.operationTimeout).
		WithLocale(c.locale).
		WithDataLocale(c.locale)
}

// ReceiveResult contains the result of a single Receive round.
type ReceiveResult struct {
	Stdout       []byte
	Stderr       []byte
	CommandState string
	ExitCode     int
	Done         bool
	// Chunks preserves the exact arrival order of decoded stream fragments
	// in this round, tagged stdout/stderr, for streaming sinks.
	Chunks []Chunk
}

// Create opens a new shell (cmd resource by default) and returns its
// endpoint reference, whose ShellId selector identifies the shell for every
// later operation.
func (c *Client) Create(ctx context.Context, resourceURI string, options map[string]string, inputStreams, outputStreams string) (*EndpointReference, error) {
	if resourceURI == "" {
		resourceURI = ResourceURICmd
	}
	if inputStreams == "" {
		inputStreams = "stdin"
	}
	if outputStreams == "" {
		outputStreams = "stdout stderr"
	}

	env := c.baseEnvelope(ActionCreate, resourceURI).WithShellNamespace()
	for name, value := range options {
		env.WithOption(name, value)
	}

	body := `<rsp:Shell xmlns:rsp="` + NsShell + `">` +
		`<rsp:InputStreams>` + inputStreams + `</rsp:InputStreams>` +
		`<rsp:OutputStreams>` + outputStreams + `</rsp:OutputStreams>` +
		`</rsp:Shell>`
	env.WithBody([]byte(body))

	respBody, err := c.sendEnvelope(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("wsman: create shell: %w", err)
	}

	var resp createResponse
	if err := xml.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("wsman: parse create response: %w", err)
	}

	epr := &EndpointReference{
		Address:     resp.Body.ResourceCreated.Address,
		ResourceURI: resp.Body.ResourceCreated.ReferenceParameters.ResourceURI,
		Selectors:   resp.Body.ResourceCreated.ReferenceParameters.SelectorSet.Selectors,
	}
	if epr.ResourceURI == "" {
		epr.ResourceURI = resourceURI
	}
	if epr.ShellID() == "" {
		return nil, fmt.Errorf("wsman: create response did not contain a ShellId selector")
	}
	return epr, nil
}

// Command creates a new command (process) in the shell and returns its
// CommandId. command is placed verbatim, double-quoted, in rsp:Command;
// each element of args becomes its own rsp:Arguments element.
func (c *Client) Command(ctx context.Context, epr *EndpointReference, command string, args []string) (string, error) {
	env := c.baseEnvelope(ActionCommand, epr.ResourceURI).WithShellNamespace()
	for _, s := range epr.Selectors {
		env.WithSelector(s.Name, s.Value)
	}
	env.WithOption("WINRS_CONSOLEMODE_STDIN", "TRUE")
	env.WithOption("WINRS_SKIP_CMD_SHELL", "FALSE")

	var b strings.Builder
	b.WriteString(`<rsp:CommandLine xmlns:rsp="` + NsShell + `">`)
	b.WriteString(`<rsp:Command>"` + xmlEscape(command) + `"</rsp:Command>`)
	for _, a := range args {
		b.WriteString(`<rsp:Arguments>` + xmlEscape(a) + `</rsp:Arguments>`)
	}
	b.WriteString(`</rsp:CommandLine>`)
	env.WithBody([]byte(b.String()))

	respBody, err := c.sendEnvelope(ctx, env)
	if err != nil {
		return "", fmt.Errorf("wsman: create command: %w", err)
	}

	var resp commandResponse
	if err := xml.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("wsman: parse command response: %w", err)
	}
	if resp.Body.CommandResponse.CommandID == "" {
		return "", fmt.Errorf("wsman: command response did not contain a CommandId")
	}
	return resp.Body.CommandResponse.CommandID, nil
}

// Receive retrieves one round of output from a command's stdout/stderr
// streams. The caller loops until the result is Done.
func (c *Client) Receive(ctx context.Context, epr *EndpointReference, commandID string) (*ReceiveResult, error) {
	env := c.baseEnvelope(ActionReceive, epr.ResourceURI).WithShellNamespace()
	for _, s := range epr.Selectors {
		env.WithSelector(s.Name, s.Value)
	}

	body := `<rsp:Receive xmlns:rsp="` + NsShell + `">` +
		`<rsp:DesiredStream CommandId="` + commandID + `">stdout stderr</rsp:DesiredStream>` +
		`</rsp:Receive>`
	env.WithBody([]byte(body))

	respBody, err := c.sendEnvelope(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("wsman: receive: %w", err)
	}

	var resp receiveResponse
	if err := xml.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("wsman: parse receive response: %w", err)
	}

	result := &ReceiveResult{}
	for _, stream := range resp.Body.ReceiveResponse.Streams {
		if stream.Content == "" {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(stream.Content)
		if err != nil {
			continue
		}
		chunk := Chunk{Name: stream.Name, Data: decoded}
		result.Chunks = append(result.Chunks, chunk)
		switch stream.Name {
		case "stdout":
			result.Stdout = append(result.Stdout, decoded...)
		case "stderr":
			result.Stderr = append(result.Stderr, decoded...)
		}
	}

	result.CommandState = resp.Body.ReceiveResponse.CommandState.State
	if strings.HasSuffix(result.CommandState, "/Done") {
		result.Done = true
		if resp.Body.ReceiveResponse.CommandState.ExitCode != nil {
			result.ExitCode = *resp.Body.ReceiveResponse.CommandState.ExitCode
		}
	}
	return result, nil
}

// Signal sends a signal (e.g. SignalTerminate) to a command.
func (c *Client) Signal(ctx context.Context, epr *EndpointReference, commandID, code string) error {
	env := c.baseEnvelope(ActionSignal, epr.ResourceURI).WithShellNamespace()
	for _, s := range epr.Selectors {
		env.WithSelector(s.Name, s.Value)
	}
	body := `<rsp:Signal xmlns:rsp="` + NsShell + `" CommandId="` + commandID + `">` +
		`<rsp:Code>` + code + `</rsp:Code>` +
		`</rsp:Signal>`
	env.WithBody([]byte(body))

	_, err := c.sendEnvelope(ctx, env)
	if err != nil {
		return fmt.Errorf("wsman: signal: %w", err)
	}
	return nil
}

// Delete destroys a shell (the Delete action, empty body).
func (c *Client) Delete(ctx context.Context, epr *EndpointReference) error {
	env := c.baseEnvelope(ActionDelete, epr.ResourceURI)
	for _, s := range epr.Selectors {
		env.WithSelector(s.Name, s.Value)
	}
	_, err := c.sendEnvelope(ctx, env)
	if err != nil {
		return fmt.Errorf("wsman: delete shell: %w", err)
	}
	return nil
}

// sendEnvelope marshals and POSTs an envelope, returning the raw response
// body after checking it for a SOAP fault.
func (c *Client) sendEnvelope(ctx context.Context, env *Envelope) ([]byte, error) {
	body, err := env.Marshal()
	if err != nil {
		return nil, fmt.Errorf("wsman: marshal envelope: %w", err)
	}

	respBody, err := c.transport.Post(ctx, c.endpoint, body)
	if err != nil {
		return nil, err
	}

	if err := CheckFault(respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// CloseIdleConnections closes any idle connections held by the underlying
// transport, forcing a fresh handshake (e.g. NTLM) on the next request.
func (c *Client) CloseIdleConnections() {
	c.transport.CloseIdleConnections()
}

func xmlEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}

// Response types for typed XML parsing. The shape of these responses is
// fixed by the protocol, so (unlike the WQL/Enumerate response, see wql.go)
// a typed struct is the more idiomatic choice than a generic map.

type createResponse struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		ResourceCreated struct {
			Address             string `xml:"Address"`
			ReferenceParameters struct {
				ResourceURI string `xml:"ResourceURI"`
				SelectorSet struct {
					Selectors []Selector `xml:"Selector"`
				} `xml:"SelectorSet"`
			} `xml:"ReferenceParameters"`
		} `xml:"ResourceCreated"`
	} `xml:"Body"`
}

type commandResponse struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		CommandResponse struct {
			CommandID string `xml:"CommandId"`
		} `xml:"CommandResponse"`
	} `xml:"Body"`
}

type receiveResponse struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		ReceiveResponse struct {
			Streams []struct {
				Name      string `xml:"Name,attr"`
				CommandID string `xml:"CommandId,attr"`
				Content   string `xml:",chardata"`
			} `xml:"Stream"`
			CommandState struct {
				State    string `xml:"State,attr"`
				ExitCode *int   `xml:"ExitCode"`
			} `xml:"CommandState"`
		} `xml:"ReceiveResponse"`
	} `xml:"Body"`
}
