package winrm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	winrmlog "github.com/cwb124/go-winrm/internal/log"
	"github.com/cwb124/go-winrm/wsman"
	"github.com/cwb124/go-winrm/wsman/transport"
	"github.com/cwb124/go-winrm/winrs"
)

// ShellOption re-exports winrs.ShellOption so callers don't need to
// import winrs directly for the common case.
type ShellOption = winrs.ShellOption

// WQLOptions configures a RunWQL call.
type WQLOptions = wsman.WQLOptions

// Record is one normalized WQL/Enumerate result item.
type Record = wsman.Record

// Chunk is one decoded stdout/stderr fragment, in server arrival order.
type Chunk = wsman.Chunk

// OutputSink receives command output chunks as they are pumped from the
// server, in arrival order.
type OutputSink = wsman.OutputSink

// Session is the facade over wsman/winrs: a stateless set of operations
// keyed by caller-held ShellId/CommandId strings, plus the composite
// RunCmd/RunPowerShell flows. A Session is safe to share across
// goroutines for distinct shells; see winrs.Shell's doc comment for the
// per-shell concurrency caveat.
type Session struct {
	endpoint string
	wsc      *wsman.Client
	tr       *transport.HTTPTransport
	logger   *slog.Logger

	breaker *CircuitBreaker
	retry   *RetryPolicy

	mu sync.Mutex
}

// SessionOption configures a Session at construction time.
type SessionOption func(*Session)

// WithLogger sets the structured logger used for this session. Defaults
// to slog.Default() wrapped in a RedactingHandler.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithLogFile routes this session's logging to a size-rotated file instead
// of slog.Default(), still wrapped in a RedactingHandler so credentials
// and auth tokens never land on disk. Long-running hosts (a service that
// holds a Session open for repeated RunCmd/RunPowerShell calls) can use
// this rather than an unbounded default logger. The file handler records
// Debug level and above.
func WithLogFile(path string, maxSizeBytes int64, maxBackups int) SessionOption {
	return func(s *Session) {
		rf, err := winrmlog.NewRotatingFile(path, maxSizeBytes, maxBackups)
		if err != nil {
			// Fall back to the default handler rather than failing session
			// construction over a logging sink; the next WithLogFile call
			// (or a restart) can retry.
			return
		}
		s.logger = slog.New(winrmlog.NewRedactingHandler(slog.NewTextHandler(rf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
}

// WithCircuitBreaker overrides the default circuit breaker policy.
func WithCircuitBreaker(policy *CircuitBreakerPolicy) SessionOption {
	return func(s *Session) { s.breaker = NewCircuitBreaker(policy) }
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy *RetryPolicy) SessionOption {
	return func(s *Session) { s.retry = policy }
}

// NewSession creates a Session against endpoint, authenticated with
// creds (one of KerberosCreds, PlaintextCreds, or TLSCreds).
func NewSession(endpoint string, creds any, opts ...SessionOption) (*Session, error) {
	if endpoint == "" {
		return nil, &BadArgument{Arg: "endpoint", Message: "must not be empty"}
	}

	authenticator, transportOpts, err := newAuthenticator(creds)
	if err != nil {
		return nil, err
	}

	base := transport.New(transportOpts...)
	allOpts := append(append([]transport.Option{}, transportOpts...),
		transport.WithRoundTripper(authenticator.Transport(base.Client().Transport)))
	tr := transport.New(allOpts...)

	sess := &Session{
		endpoint: endpoint,
		wsc:      wsman.NewClient(endpoint, tr),
		tr:       tr,
		breaker:  NewCircuitBreaker(DefaultCircuitBreakerPolicy()),
		retry:    DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(sess)
	}
	if sess.logger == nil {
		sess.logger = slog.New(winrmlog.NewRedactingHandler(slog.Default().Handler()))
	}
	sess.logger.Debug("session created", "endpoint", endpoint, "auth", authenticator.Name())
	return sess, nil
}

// SetOperationTimeout overrides the w:OperationTimeout header sent with
// every subsequent operation.
func (s *Session) SetOperationTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wsc.SetOperationTimeoutSeconds(int(d.Seconds()))
}

// SetMaxEnvelopeSize overrides the w:MaxEnvelopeSize header.
func (s *Session) SetMaxEnvelopeSize(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wsc.SetMaxEnvelopeSize(size)
}

// SetLocale overrides the w:Locale / p:DataLocale headers.
func (s *Session) SetLocale(locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wsc.SetLocale(locale)
}

// Close releases idle transport connections.
func (s *Session) Close() {
	s.wsc.CloseIdleConnections()
}

// OpenShell creates a new shell on the remote host and returns its
// ShellId.
func (s *Session) OpenShell(ctx context.Context, opts ...ShellOption) (string, error) {
	var shell *winrs.Shell
	err := s.send(ctx, func() error {
		var openErr error
		shell, openErr = winrs.Open(ctx, s.wsc, opts...)
		return openErr
	})
	if err != nil {
		return "", s.classify("open shell", err)
	}
	if shell.ID() == "" {
		return "", &ProtocolError{Op: "open shell", Message: "create response contained no ShellId"}
	}
	return shell.ID(), nil
}

// RunCommand starts a command inside the shell identified by shellID and
// returns its CommandId. It does not wait for completion; use
// GetCommandOutput to drain it.
func (s *Session) RunCommand(ctx context.Context, shellID, command string, args []string) (string, error) {
	if command == "" {
		return "", &BadArgument{Arg: "command", Message: "must not be empty"}
	}
	shell := s.rehydrateShell(shellID)

	var commandID string
	err := s.send(ctx, func() error {
		proc, startErr := shell.Start(ctx, command, args...)
		if startErr != nil {
			return startErr
		}
		commandID = proc.CommandID()
		return nil
	})
	if err != nil {
		return "", s.classify("run command", err)
	}
	return commandID, nil
}

// CommandOutput is the aggregate result of draining a command to
// completion.
type CommandOutput struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// GetCommandOutput drains shellID/commandID to completion, invoking sink
// for every chunk in arrival order if non-nil, and returns the aggregate
// result. Retries do not apply here: a Receive round that partially
// streamed output cannot be safely replayed without risking duplicated
// chunks, so only OpenShell/RunCommand/SignalTerminate/CloseShell/RunWQL
// go through the retry-and-breaker path.
func (s *Session) GetCommandOutput(ctx context.Context, shellID, commandID string, sink OutputSink) (*CommandOutput, error) {
	shell := s.rehydrateShell(shellID)
	proc, err := attachProcess(shell, commandID)
	if err != nil {
		return nil, err
	}

	if err := proc.Pump(ctx, sink); err != nil {
		return nil, s.classify("get command output", err)
	}
	if !proc.Done() {
		return nil, &ProtocolError{Op: "get command output", Message: "pump returned before CommandState reached Done"}
	}

	return &CommandOutput{
		Stdout:   proc.Stdout(),
		Stderr:   proc.Stderr(),
		ExitCode: proc.ExitCode(),
	}, nil
}

// SignalTerminate sends the terminate signal to a running command.
func (s *Session) SignalTerminate(ctx context.Context, shellID, commandID string) error {
	shell := s.rehydrateShell(shellID)
	proc, err := attachProcess(shell, commandID)
	if err != nil {
		return err
	}
	return s.classify("signal terminate", s.send(ctx, func() error {
		return proc.Signal(ctx, wsman.SignalTerminate)
	}))
}

// CloseShell deletes the shell identified by shellID.
func (s *Session) CloseShell(ctx context.Context, shellID string) error {
	shell := s.rehydrateShell(shellID)
	return s.classify("close shell", s.send(ctx, func() error {
		return shell.Close(ctx)
	}))
}

// RunWQL issues a WQL query via Enumerate and returns the normalized
// result set, keyed by CIM class element name.
func (s *Session) RunWQL(ctx context.Context, wql string, opts WQLOptions) (map[string][]Record, error) {
	var result map[string][]Record
	err := s.send(ctx, func() error {
		var wqlErr error
		result, wqlErr = s.wsc.RunWQL(ctx, wql, opts)
		return wqlErr
	})
	if err != nil {
		return nil, s.classify("run wql", err)
	}
	return result, nil
}

// rehydrateShell reconstructs a winrs.Shell value around a caller-held
// ShellId. Session operations are intentionally stateless between calls
// (per the data model, ShellId/CommandId are the durable handles a
// caller keeps), so every method rebuilds the thin Shell/Process wrapper
// rather than tracking a live map of open shells itself.
func (s *Session) rehydrateShell(shellID string) *winrs.Shell {
	epr := &wsman.EndpointReference{
		ResourceURI: wsman.ResourceURICmd,
		Selectors:   []wsman.Selector{{Name: "ShellId", Value: shellID}},
	}
	return winrs.Rehydrate(s.wsc, epr)
}

// attachProcess reconstructs a winrs.Process around a caller-held
// CommandId.
func attachProcess(shell *winrs.Shell, commandID string) (*winrs.Process, error) {
	if commandID == "" {
		return nil, &BadArgument{Arg: "commandID", Message: "must not be empty"}
	}
	return winrs.Attach(shell, commandID), nil
}

// classify wraps transport-layer errors as TransportError for
// errors.As-friendly handling, leaving SOAP faults and protocol errors as
// returned by the lower layers unchanged.
func (s *Session) classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if wsman.IsFault(err) {
		return err
	}
	switch err.(type) {
	case *ProtocolError, *BadArgument:
		return err
	}
	return &TransportError{Op: op, Cause: err}
}

// send wraps a single operation with circuit-breaker and retry
// classification, per the resilience layer named in the system overview.
func (s *Session) send(ctx context.Context, fn func() error) error {
	attempts := 1
	if s.retry != nil && s.retry.Enabled {
		attempts = s.retry.MaxAttempts
		if attempts < 1 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = s.breaker.Execute(fn)
		if lastErr == nil {
			return nil
		}
		if !isRetryableError(lastErr) || attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(calculateRetryBackoff(attempt, s.retry)):
		}
	}
	return lastErr
}
