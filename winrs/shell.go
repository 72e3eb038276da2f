package winrs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cwb124/go-winrm/wsman"
)

// shellConfig holds the configuration for a Shell.
type shellConfig struct {
	resourceURI string
	workingDir  string
	environment map[string]string
	idleTimeout time.Duration
	codepage    int
	noProfile   bool
}

// ShellOption configures a Shell at creation time.
type ShellOption func(*shellConfig)

// WithResourceURI overrides the resource URI used for Create, for targeting
// a resource other than the default cmd shell (e.g. a custom plugin).
func WithResourceURI(uri string) ShellOption {
	return func(c *shellConfig) { c.resourceURI = uri }
}

// WithWorkingDirectory sets the shell's initial working directory.
func WithWorkingDirectory(dir string) ShellOption {
	return func(c *shellConfig) { c.workingDir = dir }
}

// WithEnvironment sets environment variables for the shell.
func WithEnvironment(env map[string]string) ShellOption {
	return func(c *shellConfig) { c.environment = env }
}

// WithIdleTimeout sets the shell idle timeout. If the shell is idle for
// this duration, the server may close it out from under the client.
func WithIdleTimeout(d time.Duration) ShellOption {
	return func(c *shellConfig) { c.idleTimeout = d }
}

// WithCodepage sets the console codepage. Common values: 437 (OEM/DOS),
// 65001 (UTF-8).
func WithCodepage(cp int) ShellOption {
	return func(c *shellConfig) { c.codepage = cp }
}

// WithNoProfile prevents loading the user profile on shell creation.
func WithNoProfile() ShellOption {
	return func(c *shellConfig) { c.noProfile = true }
}

// Shell represents one open WinRS shell resource on the remote host. A
// Shell is safe for concurrent Start calls; each returned Process tracks
// its own output independently. Nothing serialises Receive calls for one
// CommandId: concurrent Pump calls on the same command each send their
// own Receive requests.
type Shell struct {
	transport Transport
	epr       *wsman.EndpointReference
	config    shellConfig
	closed    bool
	mu        sync.Mutex
}

// Open creates a new shell on the remote host.
func Open(ctx context.Context, transport Transport, opts ...ShellOption) (*Shell, error) {
	if transport == nil {
		return nil, fmt.Errorf("winrs: transport is nil")
	}

	cfg := shellConfig{
		resourceURI: wsman.ResourceURICmd,
		idleTimeout: 30 * time.Minute,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	// WINRS_NOPROFILE and WINRS_CODEPAGE are always present in the
	// OptionSet; WithNoProfile/WithCodepage override the defaults rather
	// than adding options the server would otherwise not see.
	options := map[string]string{
		"WINRS_NOPROFILE": "FALSE",
		"WINRS_CODEPAGE":  "437",
	}
	if cfg.noProfile {
		options["WINRS_NOPROFILE"] = "TRUE"
	}
	if cfg.codepage > 0 {
		options["WINRS_CODEPAGE"] = fmt.Sprintf("%d", cfg.codepage)
	}
	if cfg.idleTimeout > 0 {
		options["IdleTimeout"] = formatDuration(cfg.idleTimeout)
	}
	if cfg.workingDir != "" {
		options["WINRS_STARTUPDIRECTORY"] = cfg.workingDir
	}
	if len(cfg.environment) > 0 {
		options["WINRS_ENVIRONMENT"] = encodeEnvironment(cfg.environment)
	}

	epr, err := transport.Create(ctx, cfg.resourceURI, options, "stdin", "stdout stderr")
	if err != nil {
		return nil, fmt.Errorf("winrs: create shell: %w", err)
	}

	return &Shell{
		transport: transport,
		epr:       epr,
		config:    cfg,
	}, nil
}

// Rehydrate reconstructs a Shell value around an endpoint reference the
// caller already holds (typically just a ShellId selector), without
// issuing a Create call. This is how a stateless session facade turns a
// caller-held ShellId string back into something Start/Close can use.
func Rehydrate(transport Transport, epr *wsman.EndpointReference) *Shell {
	return &Shell{transport: transport, epr: epr}
}

// ID returns the shell ID.
func (s *Shell) ID() string {
	return s.epr.ShellID()
}

// EPR returns the shell's endpoint reference for low-level operations.
func (s *Shell) EPR() *wsman.EndpointReference {
	return s.epr
}

// Close terminates the shell. Close is idempotent; calling it twice is a
// no-op.
func (s *Shell) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.transport.Delete(ctx, s.epr); err != nil {
		return fmt.Errorf("winrs: close shell: %w", err)
	}
	return nil
}

func (s *Shell) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// formatDuration converts a time.Duration to an ISO 8601 duration string
// (PTnS); WinRS IdleTimeout does not carry sub-second precision.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("PT%dS", int(d.Seconds()))
}

// encodeEnvironment builds the WINRS_ENVIRONMENT option value, a
// semicolon-joined list of NAME=VALUE pairs.
func encodeEnvironment(env map[string]string) string {
	s := ""
	for k, v := range env {
		if s != "" {
			s += ";"
		}
		s += k + "=" + v
	}
	return s
}
