// Package transport provides the HTTP(S) transport used to POST WS-Management
// SOAP envelopes to a WinRM listener. It owns connection pooling, TLS
// configuration, and the distinction between HTTP-level failure (returned as
// a Go error) and SOAP-level faults (left for the caller to parse out of the
// response body).
package transport
