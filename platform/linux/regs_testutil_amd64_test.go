//go:build linux && amd64

package linux

import "syscall"

// fillSyscallRegs populates a register file as the kernel would present it
// at a trap on this architecture.
func fillSyscallRegs(regs *syscall.PtraceRegs, nr uint64, args [6]uint64, pc uint64) {
	regs.Orig_rax = nr
	regs.Rdi = args[0]
	regs.Rsi = args[1]
	regs.Rdx = args[2]
	regs.R10 = args[3]
	regs.R8 = args[4]
	regs.R9 = args[5]
	regs.Rip = pc
}
