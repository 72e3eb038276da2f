package wsman

import "encoding/xml"

// Envelope represents a SOAP 1.2 envelope for WS-Management messages.
type Envelope struct {
	XMLName xml.Name `xml:"s:Envelope"`

	NsSoap  string `xml:"xmlns:s,attr"`
	NsAddr  string `xml:"xmlns:a,attr"`
	NsWsman string `xml:"xmlns:w,attr"`
	NsMsWsman string `xml:"xmlns:p,attr,omitempty"`
	NsShellNs string `xml:"xmlns:rsp,attr,omitempty"`
	NsEnum    string `xml:"xmlns:n,attr,omitempty"`

	Header *Header `xml:"s:Header"`
	Body   *Body   `xml:"s:Body"`
}

// Header represents the SOAP header containing WS-Addressing and
// WS-Management headers. Because this is a typed tree rather than a pair of
// maps joined through an attribute side-channel, there is no separate
// "merge" step: composing two operations' headers is ordinary struct
// construction, and a mustUnderstand flag can never be silently dropped.
type Header struct {
	Action    *ActionHeader `xml:"a:Action,omitempty"`
	To        string        `xml:"a:To,omitempty"`
	MessageID string        `xml:"a:MessageID,omitempty"`
	ReplyTo   *ReplyTo      `xml:"a:ReplyTo,omitempty"`

	ResourceURI      *ResourceURIHeader     `xml:"w:ResourceURI,omitempty"`
	MaxEnvelopeSize  *MaxEnvelopeSizeHeader `xml:"w:MaxEnvelopeSize,omitempty"`
	OperationTimeout string                 `xml:"w:OperationTimeout,omitempty"`
	Locale           *Locale                `xml:"w:Locale,omitempty"`
	DataLocale       *DataLocale            `xml:"p:DataLocale,omitempty"`

	SelectorSet *SelectorSet `xml:"w:SelectorSet,omitempty"`
	OptionSet   *OptionSet   `xml:"w:OptionSet,omitempty"`
}

// ActionHeader is the a:Action element with its mustUnderstand attribute.
type ActionHeader struct {
	MustUnderstand string `xml:"s:mustUnderstand,attr,omitempty"`
	Value          string `xml:",chardata"`
}

// ResourceURIHeader is the w:ResourceURI element with mustUnderstand.
type ResourceURIHeader struct {
	MustUnderstand string `xml:"s:mustUnderstand,attr,omitempty"`
	Value          string `xml:",chardata"`
}

// MaxEnvelopeSizeHeader is the w:MaxEnvelopeSize element with mustUnderstand.
type MaxEnvelopeSizeHeader struct {
	MustUnderstand string `xml:"s:mustUnderstand,attr,omitempty"`
	Value          int    `xml:",chardata"`
}

// Locale represents the w:Locale empty element with xml:lang.
type Locale struct {
	MustUnderstand string `xml:"s:mustUnderstand,attr,omitempty"`
	Lang           string `xml:"xml:lang,attr,omitempty"`
}

// DataLocale represents the p:DataLocale empty element with xml:lang.
type DataLocale struct {
	MustUnderstand string `xml:"s:mustUnderstand,attr,omitempty"`
	Lang           string `xml:"xml:lang,attr,omitempty"`
}

// ReplyTo represents the WS-Addressing a:ReplyTo element.
type ReplyTo struct {
	Address *AddressHeader `xml:"a:Address"`
}

// AddressHeader is the a:Address element with mustUnderstand.
type AddressHeader struct {
	MustUnderstand string `xml:"s:mustUnderstand,attr,omitempty"`
	Value          string `xml:",chardata"`
}

// SelectorSet holds the w:Selector elements that target a specific resource.
type SelectorSet struct {
	Selectors []Selector `xml:"w:Selector"`
}

// OptionSet holds w:Option elements for an operation.
type OptionSet struct {
	MustUnderstand string   `xml:"s:mustUnderstand,attr,omitempty"`
	Options        []Option `xml:"w:Option"`
}

// Option represents a single w:Option element.
type Option struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

// Body represents the SOAP body. Content is the already-serialized
// operation-specific inner XML (Shell, CommandLine, Signal, Receive, ...).
type Body struct {
	Content []byte `xml:",innerxml"`
}

// NewEnvelope creates a new SOAP 1.2 envelope with the standard namespace
// declarations.
func NewEnvelope() *Envelope {
	return &Envelope{
		NsSoap:    NsSoap,
		NsAddr:    NsAddressing,
		NsWsman:   NsWsman,
		NsMsWsman: NsWsmanMicrosoft,
		Header:    &Header{},
		Body:      &Body{},
	}
}

func (e *Envelope) WithAction(action string) *Envelope {
	e.Header.Action = &ActionHeader{MustUnderstand: "true", Value: action}
	return e
}

func (e *Envelope) WithTo(to string) *Envelope {
	e.Header.To = to
	return e
}

func (e *Envelope) WithMessageID(messageID string) *Envelope {
	e.Header.MessageID = messageID
	return e
}

func (e *Envelope) WithReplyTo(address string) *Envelope {
	e.Header.ReplyTo = &ReplyTo{Address: &AddressHeader{MustUnderstand: "true", Value: address}}
	return e
}

func (e *Envelope) WithResourceURI(uri string) *Envelope {
	e.Header.ResourceURI = &ResourceURIHeader{MustUnderstand: "true", Value: uri}
	return e
}

func (e *Envelope) WithMaxEnvelopeSize(size int) *Envelope {
	e.Header.MaxEnvelopeSize = &MaxEnvelopeSizeHeader{MustUnderstand: "true", Value: size}
	return e
}

// WithOperationTimeout sets the WS-Management OperationTimeout header. The
// value must already be an ISO-8601 duration literal; use OperationTimeout
// to produce one from a number of seconds.
func (e *Envelope) WithOperationTimeout(timeout string) *Envelope {
	e.Header.OperationTimeout = timeout
	return e
}

// WithShellNamespace declares the rsp: (Windows Shell) namespace prefix,
// needed whenever the body contains rsp:Shell/CommandLine/Signal/Receive.
func (e *Envelope) WithShellNamespace() *Envelope {
	e.NsShellNs = NsShell
	return e
}

// WithEnumerationNamespace declares the n: (WS-Enumeration) namespace prefix.
func (e *Envelope) WithEnumerationNamespace() *Envelope {
	e.NsEnum = NsEnumeration
	return e
}

func (e *Envelope) WithSelector(name, value string) *Envelope {
	if e.Header.SelectorSet == nil {
		e.Header.SelectorSet = &SelectorSet{}
	}
	e.Header.SelectorSet.Selectors = append(e.Header.SelectorSet.Selectors, Selector{Name: name, Value: value})
	return e
}

func (e *Envelope) WithOption(name, value string) *Envelope {
	if e.Header.OptionSet == nil {
		e.Header.OptionSet = &OptionSet{MustUnderstand: "true"}
	}
	e.Header.OptionSet.Options = append(e.Header.OptionSet.Options, Option{Name: name, Value: value})
	return e
}

func (e *Envelope) WithLocale(lang string) *Envelope {
	e.Header.Locale = &Locale{Lang: lang}
	return e
}

func (e *Envelope) WithDataLocale(lang string) *Envelope {
	e.Header.DataLocale = &DataLocale{Lang: lang}
	return e
}

func (e *Envelope) WithBody(content []byte) *Envelope {
	e.Body.Content = content
	return e
}

// Marshal serializes the envelope to XML.
func (e *Envelope) Marshal() ([]byte, error) {
	return xml.Marshal(e)
}
