package winrs

import "errors"

// Sentinel errors for WinRS shell/command operations.
var (
	// ErrShellClosed indicates the shell has already been closed.
	ErrShellClosed = errors.New("winrs: shell is closed")

	// ErrProcessDone indicates the process has already completed.
	ErrProcessDone = errors.New("winrs: process already completed")

	// ErrInvalidExecutable indicates the executable path is empty.
	ErrInvalidExecutable = errors.New("winrs: invalid executable")
)
