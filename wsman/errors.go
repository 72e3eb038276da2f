package wsman

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// Fault represents a WSMan SOAP fault.
type Fault struct {
	// Code is the SOAP fault code (e.g., "s:Sender", "s:Receiver").
	Code string
	// Subcode is the WSMan-specific subcode (e.g., "w:InvalidSelectors").
	Subcode string
	// Reason is the human-readable fault reason.
	Reason string
	// WSManCode is the numeric WSMan error code.
	WSManCode int
	// Machine is the machine that generated the fault.
	Machine string
	// Message is the WSMan fault message.
	Message string
}

func (f *Fault) Error() string {
	var parts []string
	if f.Code != "" {
		parts = append(parts, f.Code)
	}
	if f.Subcode != "" {
		parts = append(parts, f.Subcode)
	}
	if f.Reason != "" {
		parts = append(parts, f.Reason)
	}
	if f.WSManCode != 0 {
		parts = append(parts, fmt.Sprintf("code=%d", f.WSManCode))
	}
	return "wsman fault: " + strings.Join(parts, ": ")
}

// IsFault reports whether err is (or wraps) a *Fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

// accessDeniedWSManCode is the WSManFault code Windows returns for
// ERROR_ACCESS_DENIED (0x5).
const accessDeniedWSManCode = 5

// IsAccessDenied reports whether the fault represents an authorization
// failure rather than a protocol or argument error, so callers can
// distinguish "retry with different creds" from "fix the request".
func (f *Fault) IsAccessDenied() bool {
	return f.WSManCode == accessDeniedWSManCode || strings.Contains(f.Subcode, "AccessDenied")
}

// ParseFault parses a SOAP response and returns a Fault if the body
// contains one. It returns (nil, nil) when there is no fault.
func ParseFault(data []byte) (*Fault, error) {
	if !strings.Contains(string(data), "Fault") {
		return nil, nil
	}

	var env faultEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("wsman: parse fault: %w", err)
	}

	if env.Body.Fault.Code.Value == "" {
		return nil, nil
	}

	return &Fault{
		Code:      env.Body.Fault.Code.Value,
		Subcode:   env.Body.Fault.Code.Subcode.Value,
		Reason:    env.Body.Fault.Reason.Text,
		WSManCode: env.Body.Fault.Detail.WSManFault.Code,
		Machine:   env.Body.Fault.Detail.WSManFault.Machine,
		Message:   env.Body.Fault.Detail.WSManFault.Message,
	}, nil
}

// CheckFault parses a response and returns a non-nil error (a *Fault) if it
// contains a SOAP fault.
func CheckFault(data []byte) error {
	fault, err := ParseFault(data)
	if err != nil {
		return err
	}
	if fault != nil {
		return fault
	}
	return nil
}

type faultEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault struct {
			Code struct {
				Value   string `xml:"Value"`
				Subcode struct {
					Value string `xml:"Value"`
				} `xml:"Subcode"`
			} `xml:"Code"`
			Reason struct {
				Text string `xml:"Text"`
			} `xml:"Reason"`
			Detail struct {
				WSManFault struct {
					Code    int    `xml:"Code,attr"`
					Machine string `xml:"Machine,attr"`
					Message string `xml:"Message"`
				} `xml:"WSManFault"`
			} `xml:"Detail"`
		} `xml:"Fault"`
	} `xml:"Body"`
}
