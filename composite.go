package winrm

import (
	"context"
	"errors"
	"time"
)

// cleanupTimeout bounds the best-effort SignalTerminate+CloseShell pair
// run during composite-flow teardown, so a hung server can't also hang
// the caller's deferred cleanup.
const cleanupTimeout = 10 * time.Second

// RunCmd opens a shell, runs command to completion, and tears the shell
// back down, guaranteeing SignalTerminate then CloseShell run on every
// exit path via defer (scoped acquisition rather than exception
// unwinding). A cleanup fault is returned only when the command itself
// succeeded; a failure from RunCommand or the pump always takes precedence.
func (s *Session) RunCmd(ctx context.Context, command string, args ...string) (out *CommandOutput, err error) {
	if command == "" {
		return nil, &BadArgument{Arg: "command", Message: "must not be empty"}
	}

	shellID, err := s.OpenShell(ctx)
	if err != nil {
		return nil, err
	}
	var commandID string
	defer func() {
		err = s.cleanup(shellID, commandID, err)
	}()

	commandID, err = s.RunCommand(ctx, shellID, command, args)
	if err != nil {
		return nil, err
	}

	out, err = s.GetCommandOutput(ctx, shellID, commandID, nil)
	return out, err
}

// RunCmdStreaming is RunCmd with a sink invoked for every output chunk in
// arrival order as the command runs, rather than only once it finishes.
func (s *Session) RunCmdStreaming(ctx context.Context, sink OutputSink, command string, args ...string) (out *CommandOutput, err error) {
	if command == "" {
		return nil, &BadArgument{Arg: "command", Message: "must not be empty"}
	}

	shellID, err := s.OpenShell(ctx)
	if err != nil {
		return nil, err
	}
	var commandID string
	defer func() {
		err = s.cleanup(shellID, commandID, err)
	}()

	commandID, err = s.RunCommand(ctx, shellID, command, args)
	if err != nil {
		return nil, err
	}

	out, err = s.GetCommandOutput(ctx, shellID, commandID, sink)
	return out, err
}

// RunPowerShell opens a shell, runs script as an encoded PowerShell
// command, and tears the shell back down. The script is always
// UTF-16LE-encoded and base64-wrapped into a single "powershell
// -encodedCommand <b64>" command string with no separate arguments; there
// is exactly one encoding path, no branch on an "encode capability".
func (s *Session) RunPowerShell(ctx context.Context, script string) (*CommandOutput, error) {
	if script == "" {
		return nil, &BadArgument{Arg: "script", Message: "must not be empty"}
	}
	encoded := encodePowerShellCommand(script)
	return s.RunCmd(ctx, "powershell -encodedCommand "+encoded)
}

// RunPowerShellStreaming is RunPowerShell with a sink invoked per chunk.
func (s *Session) RunPowerShellStreaming(ctx context.Context, sink OutputSink, script string) (*CommandOutput, error) {
	if script == "" {
		return nil, &BadArgument{Arg: "script", Message: "must not be empty"}
	}
	encoded := encodePowerShellCommand(script)
	return s.RunCmdStreaming(ctx, sink, "powershell -encodedCommand "+encoded)
}

// cleanup runs SignalTerminate (if commandID is set) then CloseShell
// against shellID with a short-lived context, independent of the
// caller's ctx so teardown still happens after a cancellation. primary is
// the error already in flight from the operation that triggered cleanup;
// it always wins over anything cleanup itself returns.
func (s *Session) cleanup(shellID, commandID string, primary error) error {
	cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	var cleanupErr error
	if commandID != "" {
		if err := s.SignalTerminate(cleanupCtx, shellID, commandID); err != nil {
			cleanupErr = err
		}
	}
	if err := s.CloseShell(cleanupCtx, shellID); err != nil {
		cleanupErr = errors.Join(cleanupErr, err)
	}

	if primary != nil {
		return primary
	}
	return cleanupErr
}
