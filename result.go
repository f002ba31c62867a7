package fsjail

import (
	"time"

	"github.com/fsjail/fsjail/platform"
)

// Denial records one syscall blocked by policy during a run.
// It is an alias for platform.Denial.
type Denial = platform.Denial

// Result holds the outcome of a sandboxed execution.
type Result struct {
	// ExitCode is the tracee's real exit status, passed through. If the
	// tracee died from a signal, ExitCode is 128 plus the signal number.
	ExitCode int

	// Duration is the wall-clock time from spawn to exit.
	Duration time.Duration

	// Denials lists every syscall blocked by policy, in occurrence order.
	// A denial is a normal outcome, not an error: the tracee saw the
	// configured errno and kept running.
	Denials []Denial
}

// Denied reports whether any syscall was blocked during the run.
func (r *Result) Denied() bool {
	return len(r.Denials) > 0
}
