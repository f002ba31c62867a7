package fsjail

import (
	"errors"

	"github.com/fsjail/fsjail/platform"
)

// Sentinel errors returned by the fsjail package.
var (
	// ErrUnsupportedPlatform indicates the current OS/architecture cannot
	// run the seccomp+ptrace sandbox.
	ErrUnsupportedPlatform = errors.New("fsjail: unsupported platform")

	// ErrConfigInvalid indicates the provided configuration failed validation.
	ErrConfigInvalid = errors.New("fsjail: invalid configuration")

	// ErrSetupFailed indicates the sandbox could not be established before
	// the target program ran (trap-set resolution, spawn, or handshake
	// failure). The target never executes when this error is returned.
	ErrSetupFailed = platform.ErrSetupFailed

	// ErrTraceProtocol indicates the ptrace stop/continue protocol broke
	// (register read/write failure, unexpected wait result). The tracee is
	// terminated rather than resumed in an unknown state.
	ErrTraceProtocol = platform.ErrTraceProtocol
)
