//go:build linux && arm64

package linux

import "syscall"

// fillSyscallRegs populates a register file as the kernel would present it
// at a trap on this architecture.
func fillSyscallRegs(regs *syscall.PtraceRegs, nr uint64, args [6]uint64, pc uint64) {
	regs.Regs[8] = nr
	for i := 0; i < 6; i++ {
		regs.Regs[i] = args[i]
	}
	regs.Pc = pc
}
