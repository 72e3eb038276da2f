package winrs

import (
	"context"
	"fmt"
	"sync"

	"github.com/cwb124/go-winrm/wsman"
)

// Process represents a command running inside a Shell.
type Process struct {
	shell     *Shell
	commandID string
	stdout    []byte
	stderr    []byte
	exitCode  int
	done      bool
	mu        sync.Mutex
}

// Start creates a command in the shell without waiting for it to
// complete. Use Pump or Wait to drive it to completion.
func (s *Shell) Start(ctx context.Context, command string, args ...string) (*Process, error) {
	if s.isClosed() {
		return nil, ErrShellClosed
	}
	if command == "" {
		return nil, ErrInvalidExecutable
	}

	commandID, err := s.transport.Command(ctx, s.epr, command, args)
	if err != nil {
		return nil, fmt.Errorf("winrs: start command: %w", err)
	}

	return &Process{shell: s, commandID: commandID}, nil
}

// Run starts a command and pumps its output to completion, discarding
// per-chunk ordering (use Pump to preserve it). It is the no-frills
// one-shot path for callers holding a Shell directly.
func (s *Shell) Run(ctx context.Context, command string, args ...string) (*Process, error) {
	proc, err := s.Start(ctx, command, args...)
	if err != nil {
		return nil, err
	}
	if err := proc.Wait(ctx); err != nil {
		return nil, err
	}
	return proc, nil
}

// Attach reconstructs a Process value around a caller-held CommandId,
// without issuing a Command call. Its stdout/stderr/exitCode start empty;
// the first Pump/Wait call fills them in from the next Receive round.
func Attach(shell *Shell, commandID string) *Process {
	return &Process{shell: shell, commandID: commandID}
}

// CommandID returns the command's CommandId.
func (p *Process) CommandID() string { return p.commandID }

// Done reports whether the process has completed.
func (p *Process) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Stdout returns the captured standard output accumulated so far. Safe to
// call after Wait/Pump completes, or mid-flight for a partial snapshot.
func (p *Process) Stdout() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stdout
}

// Stderr returns the captured standard error accumulated so far.
func (p *Process) Stderr() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stderr
}

// ExitCode returns the process exit code. Only meaningful once Done is
// true.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Signal sends a signal (e.g. wsman.SignalTerminate) to the command.
func (p *Process) Signal(ctx context.Context, code string) error {
	if err := p.shell.transport.Signal(ctx, p.shell.epr, p.commandID, code); err != nil {
		return fmt.Errorf("winrs: signal: %w", err)
	}
	return nil
}

// Wait loops Receive until the server reports the command done,
// accumulating stdout/stderr internally. It does not preserve interleave
// ordering between the two streams; use Pump with an OutputSink for that.
func (p *Process) Wait(ctx context.Context) error {
	return p.Pump(ctx, nil)
}

// Pump loops Receive calls until the command finishes, invoking sink (if
// non-nil) for every decoded chunk in the exact order the server returned
// it. This is the building block both Wait and the session facade's
// GetCommandOutput use; sink lets a caller observe
// output live instead of waiting for the aggregate result.
func (p *Process) Pump(ctx context.Context, sink wsman.OutputSink) error {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := p.shell.transport.Receive(ctx, p.shell.epr, p.commandID)
		if err != nil {
			return fmt.Errorf("winrs: receive output: %w", err)
		}

		for _, chunk := range result.Chunks {
			if sink != nil {
				sink(chunk)
			}
		}

		p.mu.Lock()
		p.stdout = append(p.stdout, result.Stdout...)
		p.stderr = append(p.stderr, result.Stderr...)
		p.exitCode = result.ExitCode
		if result.Done {
			p.done = true
			p.mu.Unlock()
			return nil
		}
		p.mu.Unlock()
	}
}
