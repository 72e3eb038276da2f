package winrs

import (
	"context"
	"fmt"

	"github.com/cwb124/go-winrm/wsman"
)

// fakeTransport is a scripted, in-memory Transport for exercising Shell and
// Process without a live WinRM endpoint.
type fakeTransport struct {
	createErr error
	createEPR *wsman.EndpointReference

	commandErr error
	commandID  string
	lastCommand string
	lastArgs    []string
	lastOptions map[string]string

	receiveResults []*wsman.ReceiveResult
	receiveErr     error
	receiveCalls   int

	signalErr  error
	lastSignal string

	deleteErr   error
	deleteCalls int
}

func (f *fakeTransport) Create(ctx context.Context, resourceURI string, options map[string]string, inputStreams, outputStreams string) (*wsman.EndpointReference, error) {
	f.lastOptions = options
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createEPR != nil {
		return f.createEPR, nil
	}
	return &wsman.EndpointReference{
		ResourceURI: resourceURI,
		Selectors:   []wsman.Selector{{Name: "ShellId", Value: "shell-1"}},
	}, nil
}

func (f *fakeTransport) Command(ctx context.Context, epr *wsman.EndpointReference, command string, args []string) (string, error) {
	f.lastCommand = command
	f.lastArgs = args
	if f.commandErr != nil {
		return "", f.commandErr
	}
	if f.commandID == "" {
		return "cmd-1", nil
	}
	return f.commandID, nil
}

func (f *fakeTransport) Receive(ctx context.Context, epr *wsman.EndpointReference, commandID string) (*wsman.ReceiveResult, error) {
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	if f.receiveCalls >= len(f.receiveResults) {
		return nil, fmt.Errorf("fakeTransport: unexpected Receive call #%d", f.receiveCalls+1)
	}
	result := f.receiveResults[f.receiveCalls]
	f.receiveCalls++
	return result, nil
}

func (f *fakeTransport) Signal(ctx context.Context, epr *wsman.EndpointReference, commandID, code string) error {
	f.lastSignal = code
	return f.signalErr
}

func (f *fakeTransport) Delete(ctx context.Context, epr *wsman.EndpointReference) error {
	f.deleteCalls++
	return f.deleteErr
}
