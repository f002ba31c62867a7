//go:build linux

package linux

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"syscall"

	"github.com/fsjail/fsjail/platform"
)

// platformName identifies the Linux seccomp+ptrace platform.
const platformName = "linux-seccomp-ptrace"

// osExecutableFn is a function variable for locating the current binary to
// re-execute as the tracee helper. Overridden in tests.
var osExecutableFn = os.Executable

// Platform implements platform.Platform using a seccomp BPF filter
// installed in the tracee and a ptrace supervisor in the parent.
type Platform struct {
	seccomp SeccompSupport
}

// New creates the Linux platform, probing kernel seccomp support at
// construction time.
func New() *Platform {
	return &Platform{seccomp: DetectSeccomp()}
}

// Name returns the platform identifier.
func (l *Platform) Name() string { return platformName }

// Available reports whether the kernel and architecture can run the
// filter-and-trace sandbox.
func (l *Platform) Available() bool {
	return nativeArchSupported() && l.seccomp.FilterMode && l.seccomp.TraceAction
}

// CheckDependencies inspects the system for the facilities the sandbox
// needs.
func (l *Platform) CheckDependencies() *platform.DependencyCheck {
	check := &platform.DependencyCheck{}
	if !nativeArchSupported() {
		check.Errors = append(check.Errors,
			fmt.Sprintf("architecture %s: no register view or audit arch support", runtime.GOARCH))
	}
	if !l.seccomp.FilterMode {
		check.Errors = append(check.Errors, "kernel does not support seccomp filter mode")
	}
	if !l.seccomp.TraceAction {
		check.Errors = append(check.Errors, "kernel does not support SECCOMP_RET_TRACE")
	}
	return check
}

// Run launches spec.Program as a traced, filtered child and supervises it
// until it exits. The child is this same binary re-executed in tracee-init
// mode; it installs the filter on itself and execs the target, so the
// filter is in place before the target's first instruction.
//
// Run blocks on the goroutine that calls it for the tracee's whole
// lifetime. Cancelling ctx kills the tracee.
func (l *Platform) Run(ctx context.Context, spec *platform.RunSpec) (*platform.RunResult, error) {
	if spec == nil || spec.Program == "" {
		return nil, fmt.Errorf("%w: no program to run", platform.ErrSetupFailed)
	}
	if spec.CheckPath == nil {
		return nil, fmt.Errorf("%w: RunSpec.CheckPath must not be nil", platform.ErrSetupFailed)
	}
	logger := spec.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// The parent resolves the trap table too: the tracer needs syscall
	// numbers to interpret traps, and resolving early fails fast on a bad
	// trap set before anything is spawned.
	table, err := ResolveTrapTable(spec.Syscalls)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", platform.ErrSetupFailed, err)
	}

	// All ptrace requests must come from the thread that forked the
	// tracee; pin this goroutine for the duration of the trace.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pid, err := l.spawnTracee(spec, table)
	if err != nil {
		return nil, fmt.Errorf("%w: spawn tracee: %v", platform.ErrSetupFailed, err)
	}

	sup := newSupervisor(pid, table, spec, logger)
	if err := sup.awaitSetupStop(); err != nil {
		sup.kill()
		return nil, fmt.Errorf("%w: %v", platform.ErrSetupFailed, err)
	}
	logger.Debug("tracee configured", "pid", pid, "syscalls", table.Names())

	// PTRACE_O_EXITKILL covers tracer death; ctx cancellation is handled
	// by killing the tracee, which unblocks the supervisor's wait.
	done := make(chan struct{})
	defer close(done)
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = killFn(pid, syscall.SIGKILL)
			case <-done:
			}
		}()
	}

	code, err := sup.supervise()
	if err != nil {
		return nil, err
	}
	if ctx != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return &platform.RunResult{ExitCode: code, Denials: sup.denials}, nil
}

// spawnTracee re-executes the current binary in tracee-init mode, passing
// the target program and trap set over a pipe. The helper calls
// PTRACE_TRACEME itself, so no SysProcAttr tracing flags are needed here.
func (l *Platform) spawnTracee(spec *platform.RunSpec, table *TrapTable) (int, error) {
	self, err := osExecutableFn()
	if err != nil {
		return 0, fmt.Errorf("locate own binary: %w", err)
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return 0, fmt.Errorf("config pipe: %w", err)
	}
	defer func() { _ = pr.Close() }()

	cmd := exec.Command(self)
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	// ExtraFiles[0] becomes fd 3 in the child.
	cmd.ExtraFiles = []*os.File{pr}
	cmd.Env = append(os.Environ(), initEnvKey+"=3")

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return 0, err
	}

	cfg := traceeConfig{
		Program:  spec.Program,
		Args:     spec.Args,
		Syscalls: table.Names(),
	}
	encErr := json.NewEncoder(pw).Encode(&cfg)
	_ = pw.Close()
	if encErr != nil {
		_ = cmd.Process.Kill()
		var ws syscall.WaitStatus
		_, _ = wait4Fn(cmd.Process.Pid, &ws, 0, nil)
		return 0, fmt.Errorf("send tracee config: %w", encErr)
	}

	// The supervisor reaps the child with wait4 directly; cmd.Wait must
	// never be called on this command.
	return cmd.Process.Pid, nil
}
