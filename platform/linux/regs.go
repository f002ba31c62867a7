//go:build linux

package linux

import (
	"errors"
	"fmt"
	"syscall"
)

const (
	// maxPathBytes caps string reads out of tracee memory. Linux itself
	// refuses paths longer than PATH_MAX, so a longer read means the
	// pointer is garbage; the cap keeps a corrupted address from turning
	// into an unbounded peek loop.
	maxPathBytes = 4096

	// wordSize is the granularity of ptrace memory peeks. General-purpose
	// peeking operates on machine words, not bytes.
	wordSize = 8
)

// Function variables for ptrace register and memory access, overridden in
// tests to drive the tracer against synthetic processes.
var (
	ptraceGetRegsFn  = syscall.PtraceGetRegs
	ptraceSetRegsFn  = syscall.PtraceSetRegs
	ptracePeekDataFn = syscall.PtracePeekData
)

// regView is a typed view over a stopped tracee's register file. It
// isolates the architecture-specific register layout: the accessors
// (syscallNr, arg, setReturn, advancePC) live in regs_GOARCH.go and
// everything else in the tracer is architecture-agnostic.
//
// A regView is only valid while the tracee is stopped. The tracer creates
// one per trap and discards it before resuming.
type regView struct {
	pid  int
	regs syscall.PtraceRegs
}

// loadRegs snapshots the register file of a stopped tracee.
func loadRegs(pid int) (*regView, error) {
	rv := &regView{pid: pid}
	if err := ptraceGetRegsFn(pid, &rv.regs); err != nil {
		return nil, fmt.Errorf("read registers of pid %d: %w", pid, err)
	}
	return rv, nil
}

// readString reconstructs the null-terminated string at addr in the
// tracee's address space, one machine word at a time. Any failed read is a
// hard error: it means the traced memory view is inconsistent, not that
// the path is illegal.
func (r *regView) readString(addr uintptr) (string, error) {
	if addr == 0 {
		return "", errors.New("null path pointer")
	}

	buf := make([]byte, 0, 64)
	var word [wordSize]byte
	for len(buf) < maxPathBytes {
		n, err := ptracePeekDataFn(r.pid, addr+uintptr(len(buf)), word[:])
		if err != nil {
			return "", fmt.Errorf("peek tracee memory at 0x%x: %w", addr+uintptr(len(buf)), err)
		}
		if n == 0 {
			return "", fmt.Errorf("empty peek at 0x%x", addr+uintptr(len(buf)))
		}
		for i := 0; i < n; i++ {
			if word[i] == 0 {
				return string(buf), nil
			}
			buf = append(buf, word[i])
		}
	}
	return "", fmt.Errorf("string at 0x%x exceeds %d bytes", addr, maxPathBytes)
}

// denySyscall rewrites the stopped tracee so that, from its point of view,
// the trapped syscall returned -errno without ever running: the return
// register gets the negated error code and the instruction pointer is
// advanced past the syscall instruction. The write-back is atomic with
// respect to the tracee, which stays stopped throughout the trap.
func (r *regView) denySyscall(errno syscall.Errno) error {
	r.setReturn(uint64(-int64(errno)))
	r.advancePC()
	if err := ptraceSetRegsFn(r.pid, &r.regs); err != nil {
		return fmt.Errorf("write registers of pid %d: %w", r.pid, err)
	}
	return nil
}
