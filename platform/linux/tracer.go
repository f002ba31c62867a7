//go:build linux

package linux

import (
	"fmt"
	"log/slog"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/fsjail/fsjail/platform"
)

// traceState tracks where the supervisor is in the stop/continue protocol.
type traceState int

const (
	// stateWaitingForChildStop: the child has been spawned and the
	// supervisor is waiting for its setup self-stop.
	stateWaitingForChildStop traceState = iota

	// stateResumed: the tracee is running; the supervisor is blocked in wait.
	stateResumed

	// stateAtTrap: the tracee is stopped at a filter trap and its
	// registers and memory are safe to inspect.
	stateAtTrap

	// stateChildExited: terminal state.
	stateChildExited
)

// String returns the state name for logs.
func (s traceState) String() string {
	switch s {
	case stateWaitingForChildStop:
		return "waiting-for-child-stop"
	case stateResumed:
		return "resumed"
	case stateAtTrap:
		return "at-trap"
	case stateChildExited:
		return "child-exited"
	default:
		return "unknown"
	}
}

// traceOptions are applied once at the child's setup stop: deliver a
// distinct event on filter match, kill the tracee if the tracer dies so no
// unsandboxed orphan survives, and tag ptrace-induced SIGTRAPs so they are
// distinguishable from real ones.
const traceOptions = unix.PTRACE_O_TRACESECCOMP |
	unix.PTRACE_O_EXITKILL |
	unix.PTRACE_O_TRACESYSGOOD

// sysGoodBit is OR-ed into the stop signal of ptrace syscall-stops when
// PTRACE_O_TRACESYSGOOD is set.
const sysGoodBit = 0x80

// stopKind classifies one wait result.
type stopKind int

const (
	stopFilterTrap stopKind = iota
	stopOtherSignal
	stopExited
)

// stopEvent is the supervisor's view of one wait result.
type stopEvent struct {
	kind     stopKind
	signal   syscall.Signal // stopOtherSignal: signal to re-deliver (0 = none)
	exitCode int            // stopExited
}

// classifyStop maps a raw wait status onto the supervisor's event set. A
// signal-death maps to the shell convention of 128+signo.
func classifyStop(ws syscall.WaitStatus) stopEvent {
	switch {
	case ws.Exited():
		return stopEvent{kind: stopExited, exitCode: ws.ExitStatus()}
	case ws.Signaled():
		return stopEvent{kind: stopExited, exitCode: 128 + int(ws.Signal())}
	default:
		sig := ws.StopSignal()
		if sig == syscall.SIGTRAP && ws.TrapCause() == unix.PTRACE_EVENT_SECCOMP {
			return stopEvent{kind: stopFilterTrap}
		}
		if sig&sysGoodBit != 0 || sig == syscall.SIGTRAP {
			// Ptrace-induced stop; nothing to deliver to the tracee.
			return stopEvent{kind: stopOtherSignal, signal: 0}
		}
		return stopEvent{kind: stopOtherSignal, signal: sig}
	}
}

// Function variables for the parent-side ptrace operations, overridden in
// tests to drive the state machine with synthetic events.
var (
	ptraceSetOptionsFn = syscall.PtraceSetOptions
	ptraceContFn       = syscall.PtraceCont
	wait4Fn            = syscall.Wait4
	killFn             = syscall.Kill
)

// supervisor owns the parent side of the trace protocol for exactly one
// tracee. It is driven from a single OS-thread-locked goroutine; the
// tracee's registers and memory are only touched while it is provably
// stopped, so no locking is needed.
type supervisor struct {
	pid     int
	state   traceState
	table   *TrapTable
	spec    *platform.RunSpec
	logger  *slog.Logger
	denials []platform.Denial
}

func newSupervisor(pid int, table *TrapTable, spec *platform.RunSpec, logger *slog.Logger) *supervisor {
	return &supervisor{
		pid:    pid,
		state:  stateWaitingForChildStop,
		table:  table,
		spec:   spec,
		logger: logger,
	}
}

// awaitSetupStop blocks until the tracee delivers its setup SIGSTOP, then
// applies the tracing options. Anything other than that stop means the
// handshake broke and the launch is aborted.
func (s *supervisor) awaitSetupStop() error {
	var ws syscall.WaitStatus
	if _, err := wait4Fn(s.pid, &ws, 0, nil); err != nil {
		return fmt.Errorf("wait for tracee setup stop: %w", err)
	}
	if ws.Exited() || ws.Signaled() {
		return fmt.Errorf("tracee died during setup (status 0x%x)", uint32(ws))
	}
	if ws.StopSignal() != syscall.SIGSTOP {
		return fmt.Errorf("unexpected setup stop signal %v", ws.StopSignal())
	}
	if err := ptraceSetOptionsFn(s.pid, traceOptions); err != nil {
		return fmt.Errorf("set trace options: %w", err)
	}
	return nil
}

// supervise runs the resume/wait loop until the tracee exits and returns
// its exit code. The blocking wait is the only suspension point: the
// supervisor is strictly serialized with the tracee, and a hung tracee
// hangs the supervisor by design.
func (s *supervisor) supervise() (int, error) {
	deliver := 0
	for {
		if err := ptraceContFn(s.pid, deliver); err != nil {
			s.kill()
			return 0, fmt.Errorf("%w: resume tracee: %v", platform.ErrTraceProtocol, err)
		}
		deliver = 0
		s.state = stateResumed

		var ws syscall.WaitStatus
		if _, err := wait4Fn(s.pid, &ws, syscall.WALL, nil); err != nil {
			s.kill()
			return 0, fmt.Errorf("%w: wait: %v", platform.ErrTraceProtocol, err)
		}

		ev := classifyStop(ws)
		switch ev.kind {
		case stopExited:
			s.state = stateChildExited
			return ev.exitCode, nil

		case stopOtherSignal:
			// The tracer does not interpose on ordinary signals; hand the
			// signal back on the next resume.
			deliver = int(ev.signal)

		case stopFilterTrap:
			s.state = stateAtTrap
			if err := s.handleTrap(); err != nil {
				// A half-patched tracee is a security hazard, not merely a
				// bug: terminate it rather than resume in an unknown state.
				s.kill()
				return 0, fmt.Errorf("%w: %v", platform.ErrTraceProtocol, err)
			}
		}
	}
}

// handleTrap inspects the trapped syscall while the tracee is stopped,
// reads the path argument(s) fresh from tracee memory, and injects the
// policy errno on deny. Returning an error aborts the whole trace.
func (s *supervisor) handleTrap() error {
	rv, err := loadRegs(s.pid)
	if err != nil {
		return err
	}

	nr := rv.syscallNr()
	spec, ok := s.table.Lookup(nr)
	if !ok {
		// The filter and the table are compiled from the same trap set, so
		// a trap outside the table should not happen; resume rather than
		// guess at argument layout.
		s.logger.Warn("trap for syscall outside trap table", "nr", nr)
		return nil
	}

	for _, argIdx := range spec.PathArgs {
		path, err := rv.readString(uintptr(rv.arg(argIdx)))
		if err != nil {
			return fmt.Errorf("%s: %w", spec.Name, err)
		}

		d := s.spec.CheckPath(path)
		if !d.Deny {
			continue
		}
		if err := rv.denySyscall(d.Errno); err != nil {
			return fmt.Errorf("%s: %w", spec.Name, err)
		}
		s.denials = append(s.denials, platform.Denial{
			Syscall: spec.Name,
			Path:    path,
			Errno:   d.Errno,
			Rule:    d.Rule,
		})
		s.logger.Info("syscall denied",
			"syscall", spec.Name, "path", path, "errno", uint64(d.Errno), "rule", d.Rule)
		// The syscall is already skipped; no need to check further paths.
		break
	}
	return nil
}

// kill terminates the tracee and reaps it. Used when the protocol broke
// and resuming would be unsafe.
func (s *supervisor) kill() {
	_ = killFn(s.pid, syscall.SIGKILL)
	var ws syscall.WaitStatus
	_, _ = wait4Fn(s.pid, &ws, 0, nil)
	s.state = stateChildExited
}
