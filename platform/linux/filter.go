//go:build linux

package linux

import (
	"errors"
	"fmt"
	"runtime"
	"syscall"
	"unsafe"
)

// BPF instruction constants for the seccomp filter.
const (
	bpfLD  = 0x00
	bpfJMP = 0x05
	bpfRET = 0x06
	bpfW   = 0x00
	bpfABS = 0x20
	bpfJEQ = 0x10
	bpfK   = 0x00

	// seccomp constants.
	seccompModeFilter = 2          // SECCOMP_MODE_FILTER
	seccompRetAllow   = 0x7fff0000 // SECCOMP_RET_ALLOW
	seccompRetTrace   = 0x7ff00000 // SECCOMP_RET_TRACE
	seccompRetKill    = 0x00000000 // SECCOMP_RET_KILL

	// Audit architecture constants.
	auditArchX86_64  = 0xc000003e
	auditArchAarch64 = 0xc00000b7

	// Offsets into struct seccomp_data. Classification never reads
	// anything else, so adding trapped syscalls needs no new offsets.
	seccompDataNrOffset   = 0
	seccompDataArchOffset = 4
)

// sockFprog is the BPF program structure for seccomp.
type sockFprog struct {
	len    uint16
	_      [6]byte // padding
	filter unsafe.Pointer
}

// sockFilter is a single BPF instruction.
type sockFilter struct {
	code uint16
	jt   uint8
	jf   uint8
	k    uint32
}

// auditArchFor returns the audit architecture constant for a GOARCH string.
func auditArchFor(goarch string) (uint32, error) {
	switch goarch {
	case "amd64":
		return auditArchX86_64, nil
	case "arm64":
		return auditArchAarch64, nil
	default:
		return 0, fmt.Errorf("unsupported architecture for seccomp: %s", goarch)
	}
}

// buildTrapFilter constructs the classification program: every syscall in
// nrs yields SECCOMP_RET_TRACE (stop the tracee, notify the tracer), every
// other syscall — including ones added in future kernels — falls through
// to SECCOMP_RET_ALLOW with no tracer involvement. Only an architecture
// mismatch kills. The program is immutable once installed; with
// no-new-privs set the tracee cannot widen it.
//
// Instruction layout for n trapped syscalls:
//
//	[0]     load arch
//	[1]     arch == auditArch ? fall through : jump KILL
//	[2]     load syscall nr
//	[3+i]   nr == nrs[i] ? jump TRACE : fall through
//	[3+n]   RET ALLOW
//	[3+n+1] RET TRACE
//	[3+n+2] RET KILL
func buildTrapFilter(auditArch uint32, nrs []uint32) ([]sockFilter, error) {
	n := len(nrs)
	if n == 0 {
		return nil, errors.New("empty trap set")
	}
	if n > 200 {
		// BPF conditional jumps carry 8-bit offsets.
		return nil, fmt.Errorf("trap set too large: %d syscalls", n)
	}

	allowIdx := 3 + n
	traceIdx := 3 + n + 1
	killIdx := 3 + n + 2

	filter := make([]sockFilter, 0, killIdx+1)

	// [0] Load architecture.
	filter = append(filter, sockFilter{code: bpfLD | bpfW | bpfABS, k: seccompDataArchOffset})
	// [1] Kill on architecture mismatch. Jump offset = target - current - 1.
	filter = append(filter, sockFilter{code: bpfJMP | bpfJEQ | bpfK, jt: 0, jf: uint8(killIdx - 1 - 1), k: auditArch}) //nolint:gosec
	// [2] Load syscall number.
	filter = append(filter, sockFilter{code: bpfLD | bpfW | bpfABS, k: seccompDataNrOffset})
	// [3..3+n-1] Trapped syscall checks.
	for i, nr := range nrs {
		idx := 3 + i
		filter = append(filter, sockFilter{code: bpfJMP | bpfJEQ | bpfK, jt: uint8(traceIdx - idx - 1), jf: 0, k: nr}) //nolint:gosec
	}
	// [3+n] ALLOW — syscall is not in the trapped set.
	filter = append(filter, sockFilter{code: bpfRET | bpfK, k: seccompRetAllow})
	// [3+n+1] TRACE — suspend the tracee and notify the tracer.
	filter = append(filter, sockFilter{code: bpfRET | bpfK, k: seccompRetTrace})
	// [3+n+2] KILL — architecture mismatch.
	filter = append(filter, sockFilter{code: bpfRET | bpfK, k: seccompRetKill})

	return filter, nil
}

// seccompPrctlFn is a function variable for the prctl syscall used to
// install seccomp filters. Tests override this to avoid irreversibly
// filtering the test process.
var seccompPrctlFn = syscall.Syscall

// installTrapFilter compiles the trap set for the running architecture and
// installs it via prctl(PR_SET_SECCOMP, SECCOMP_MODE_FILTER). Must run on
// the thread that will exec the target, after no-new-privs is set.
func installTrapFilter(nrs []uint32) error {
	arch, err := auditArchFor(runtime.GOARCH)
	if err != nil {
		return err
	}
	filter, err := buildTrapFilter(arch, nrs)
	if err != nil {
		return err
	}

	prog := sockFprog{
		len:    uint16(len(filter)), //nolint:gosec // bounded by buildTrapFilter
		filter: unsafe.Pointer(&filter[0]),
	}

	if _, _, errno := seccompPrctlFn(
		syscall.SYS_PRCTL,
		syscall.PR_SET_SECCOMP,
		uintptr(seccompModeFilter),
		uintptr(unsafe.Pointer(&prog)),
	); errno != 0 {
		return fmt.Errorf("prctl(PR_SET_SECCOMP): %w", errno)
	}

	return nil
}
