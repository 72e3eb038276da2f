package wsman

// EndpointReference identifies a server-side resource created by a Create
// operation (a Shell). It carries everything a later Command/Receive/
// Signal/Delete needs to address the same resource.
type EndpointReference struct {
	Address     string
	ResourceURI string
	Selectors   []Selector
}

// ShellID returns the value of the "ShellId" selector, or "" if absent.
func (e *EndpointReference) ShellID() string {
	for _, s := range e.Selectors {
		if s.Name == "ShellId" {
			return s.Value
		}
	}
	return ""
}

// Selector represents a WS-Management w:Selector element.
type Selector struct {
	Name  string `xml:"Name,attr"`
	Value string `xml:",chardata"`
}

// Chunk is a single decoded stream fragment delivered by a Receive call.
type Chunk struct {
	// Name is "stdout" or "stderr".
	Name string
	// Data is the decoded (non-base64) bytes.
	Data []byte
}

// OutputSink receives stream chunks in arrival order as the command-output
// pump drains them. It replaces a block/yield callback idiom with a plain
// function value.
type OutputSink func(Chunk)

// Record is a normalized WQL/Enumerate result item: its XML attributes and
// its own text content, both flattened to strings.
type Record struct {
	Attributes map[string]string
	Text       string
	// Children holds any nested element text, keyed by local element name,
	// for records whose CIM properties are themselves structured.
	Children map[string]string
}
