package platform

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"syscall"
)

var (
	// ErrNotSupported is returned by platforms that cannot trace on the
	// current operating system.
	ErrNotSupported = errors.New("platform: sandbox not supported on this operating system")

	// ErrSetupFailed indicates the sandbox could not be established before
	// the target program ran. The target never executes when a Run returns
	// this error.
	ErrSetupFailed = errors.New("platform: sandbox setup failed")

	// ErrTraceProtocol indicates the stop/continue protocol with the
	// tracee broke. The tracee is terminated rather than resumed in an
	// unknown state.
	ErrTraceProtocol = errors.New("platform: trace protocol failure")
)

// Platform is an OS-specific implementation of the filter-and-trace sandbox.
// The only real implementation lives in platform/linux; every other GOOS
// gets an unsupported stub.
type Platform interface {
	// Name returns a human-readable identifier for this platform
	// (e.g. "linux-seccomp-ptrace").
	Name() string

	// Available reports whether this platform's tracing mechanism is
	// functional on the current system.
	Available() bool

	// CheckDependencies inspects the system for the kernel facilities the
	// platform needs (seccomp filter mode, the trace action, ptrace).
	CheckDependencies() *DependencyCheck

	// Run launches the program described by spec under the sandbox,
	// supervises it until it exits, and returns its exit status together
	// with the record of denied syscalls. Run never returns before the
	// tracee has fully terminated.
	Run(ctx context.Context, spec *RunSpec) (*RunResult, error)
}

// DependencyCheck holds the result of a platform dependency inspection.
type DependencyCheck struct {
	// Errors lists critical missing facilities that prevent sandboxing.
	Errors []string

	// Warnings lists non-critical issues that may degrade functionality.
	Warnings []string
}

// OK returns true if no critical dependency errors were found.
func (d *DependencyCheck) OK() bool {
	return len(d.Errors) == 0
}

// Decision is the policy verdict for a single extracted path. It is
// produced by the RunSpec's CheckPath callback and consumed immediately by
// the tracer: Deny triggers errno injection, anything else resumes the
// syscall untouched.
type Decision struct {
	// Deny indicates the syscall must not execute.
	Deny bool

	// Errno is the error code injected into the tracee on Deny, as a
	// positive errno value (the tracer negates it).
	Errno syscall.Errno

	// Rule identifies the policy rule that produced this decision, if any.
	Rule string
}

// Denial records one syscall that was blocked during a run.
type Denial struct {
	// Syscall is the name of the blocked syscall (e.g. "openat").
	Syscall string

	// Path is the path argument the policy rejected.
	Path string

	// Errno is the error code the tracee observed.
	Errno syscall.Errno

	// Rule identifies the policy rule that matched.
	Rule string
}

// RunSpec describes a single sandboxed execution. The policy itself stays
// in the caller: the tracer only sees the CheckPath callback, so the
// platform layer remains policy-agnostic.
type RunSpec struct {
	// Program is the resolved path of the binary to execute.
	Program string

	// Args is the argument list, not including the program name.
	Args []string

	// Stdin, Stdout and Stderr are wired to the tracee. Nil values fall
	// back to the parent's standard streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Syscalls lists the syscall names routed to the tracer for
	// inspection. Empty means the platform default trap set.
	Syscalls []string

	// CheckPath evaluates one path argument of a trapped syscall. It must
	// be non-nil, fast, and free of side effects; it is invoked once per
	// path per trap while the tracee is stopped.
	CheckPath func(path string) Decision

	// Logger receives trace-loop diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// RunResult holds the outcome of a supervised execution.
type RunResult struct {
	// ExitCode is the tracee's real exit status. If the tracee died from a
	// signal, ExitCode is 128 plus the signal number.
	ExitCode int

	// Denials lists every syscall blocked by policy, in occurrence order.
	Denials []Denial
}

// Detect returns the Platform for the current operating system.
func Detect() Platform {
	return detectPlatform()
}
