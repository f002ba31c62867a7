//go:build linux

package linux

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"syscall"
)

// initEnvKey is the environment variable that marks the process as a
// re-executed tracee helper. Its value is the file descriptor number of
// the pipe carrying the serialized traceeConfig.
const initEnvKey = "_FSJAIL_TRACEE"

// traceeSetupExitCode is the exit status the helper uses when sandbox
// setup fails before the target image is in place.
const traceeSetupExitCode = 125

// traceeConfig is passed from the tracer to the re-exec helper via a pipe.
type traceeConfig struct {
	Program  string   `json:"program"`
	Args     []string `json:"args"`
	Syscalls []string `json:"syscalls"`
}

// Function variables for the raw process-control syscalls the tracee
// helper performs, overridden in tests (TRACEME and seccomp install are
// irreversible for the calling process).
var (
	ptraceTraceMeFn = func() error {
		if _, _, errno := syscall.Syscall6(syscall.SYS_PTRACE, syscall.PTRACE_TRACEME, 0, 0, 0, 0, 0); errno != 0 {
			return errno
		}
		return nil
	}
	noNewPrivsFn = func() error {
		// PR_SET_NO_NEW_PRIVS lets an unprivileged process install a
		// seccomp filter.
		const prSetNoNewPrivs = 38
		if _, _, errno := syscall.Syscall6(syscall.SYS_PRCTL, prSetNoNewPrivs, 1, 0, 0, 0, 0); errno != 0 {
			return errno
		}
		return nil
	}
	installFilterFn = installTrapFilter
	selfStopFn      = func() error { return syscall.Kill(os.Getpid(), syscall.SIGSTOP) }
	execFn          = syscall.Exec
	osExitFn        = os.Exit
)

// MaybeTraceeInit checks whether the current process was re-executed as
// the sandbox tracee helper. If so it runs the filter-install sequence and
// never returns (the process either becomes the target program or exits).
// Call it at the very beginning of main().
func MaybeTraceeInit() bool {
	fdStr := os.Getenv(initEnvKey)
	if fdStr == "" {
		return false
	}
	osExitFn(traceeInit(fdStr))
	return true // unreachable, but satisfies the compiler
}

// traceeInit performs the tracee side of the sandbox handshake, strictly
// in this order: mark the process traced by its parent, set no-new-privs,
// install the filter program, stop so the parent can configure tracing
// options, and finally replace the process image with the target. Every
// step aborts the launch on error; a partially sandboxed exec must never
// happen.
func traceeInit(fdStr string) int {
	// ptrace, prctl and seccomp are per-thread; pin and never unpin, the
	// process will exec or exit.
	runtime.LockOSThread()

	fd, err := strconv.Atoi(fdStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsjail: invalid config fd %q: %v\n", fdStr, err)
		return traceeSetupExitCode
	}
	configFile := os.NewFile(uintptr(fd), "config-pipe")
	if configFile == nil {
		fmt.Fprintf(os.Stderr, "fsjail: cannot open config fd %d\n", fd)
		return traceeSetupExitCode
	}
	defer func() { _ = configFile.Close() }()

	var cfg traceeConfig
	if err := json.NewDecoder(configFile).Decode(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "fsjail: decode tracee config: %v\n", err)
		return traceeSetupExitCode
	}

	table, err := ResolveTrapTable(cfg.Syscalls)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsjail: resolve trap set: %v\n", err)
		return traceeSetupExitCode
	}

	if err := ptraceTraceMeFn(); err != nil {
		fmt.Fprintf(os.Stderr, "fsjail: ptrace(PTRACE_TRACEME): %v\n", err)
		return traceeSetupExitCode
	}

	if err := noNewPrivsFn(); err != nil {
		fmt.Fprintf(os.Stderr, "fsjail: prctl(PR_SET_NO_NEW_PRIVS): %v\n", err)
		return traceeSetupExitCode
	}

	if err := installFilterFn(table.Numbers()); err != nil {
		fmt.Fprintf(os.Stderr, "fsjail: install seccomp filter: %v\n", err)
		return traceeSetupExitCode
	}

	// Stop here so the parent can apply its PTRACE_SETOPTIONS before the
	// target executes anything. The parent resumes us.
	if err := selfStopFn(); err != nil {
		fmt.Fprintf(os.Stderr, "fsjail: self stop: %v\n", err)
		return traceeSetupExitCode
	}

	_ = os.Unsetenv(initEnvKey)

	argv := append([]string{cfg.Program}, cfg.Args...)
	if err := execFn(cfg.Program, argv, os.Environ()); err != nil {
		// Image replacement failed; this is the sandbox's own failure.
		fmt.Fprintf(os.Stderr, "fsjail: exec %s: %v\n", cfg.Program, err)
		return traceeSetupExitCode
	}
	return 0 // unreachable
}
