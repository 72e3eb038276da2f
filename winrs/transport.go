package winrs

import (
	"context"

	"github.com/cwb124/go-winrm/wsman"
)

// Transport abstracts the WSMan operations a Shell needs, so tests can
// substitute a mock without standing up an HTTP server.
type Transport interface {
	Create(ctx context.Context, resourceURI string, options map[string]string, inputStreams, outputStreams string) (*wsman.EndpointReference, error)
	Command(ctx context.Context, epr *wsman.EndpointReference, command string, args []string) (string, error)
	Receive(ctx context.Context, epr *wsman.EndpointReference, commandID string) (*wsman.ReceiveResult, error)
	Signal(ctx context.Context, epr *wsman.EndpointReference, commandID, code string) error
	Delete(ctx context.Context, epr *wsman.EndpointReference) error
}

// Ensure *wsman.Client implements Transport.
var _ Transport = (*wsman.Client)(nil)
