//go:build linux && amd64

package linux

// syscallInsnLen is the length in bytes of the x86-64 syscall instruction
// (0f 05). Skipping a trapped syscall means advancing RIP by exactly this
// much. Programs entering the kernel via the legacy int 0x80 path would
// not be skipped correctly; the seccomp arch check kills those first.
const syscallInsnLen = 2

// syscallNr returns the trapped syscall's number. ORIG_RAX preserves it
// after the kernel clobbers RAX on entry.
func (r *regView) syscallNr() uint64 { return r.regs.Orig_rax }

// arg returns the n-th syscall argument per the x86-64 syscall convention
// (rdi, rsi, rdx, r10, r8, r9).
func (r *regView) arg(n int) uint64 {
	switch n {
	case 0:
		return r.regs.Rdi
	case 1:
		return r.regs.Rsi
	case 2:
		return r.regs.Rdx
	case 3:
		return r.regs.R10
	case 4:
		return r.regs.R8
	case 5:
		return r.regs.R9
	default:
		return 0
	}
}

func (r *regView) setReturn(v uint64) { r.regs.Rax = v }

func (r *regView) returnValue() uint64 { return r.regs.Rax }

func (r *regView) advancePC() { r.regs.Rip += syscallInsnLen }

func (r *regView) instructionPointer() uint64 { return r.regs.Rip }
