//go:build linux && arm64

package linux

// syscallInsnLen is the length in bytes of the arm64 svc instruction.
const syscallInsnLen = 4

// syscallNr returns the trapped syscall's number, held in x8 on arm64.
func (r *regView) syscallNr() uint64 { return r.regs.Regs[8] }

// arg returns the n-th syscall argument; arm64 passes them in x0-x5.
func (r *regView) arg(n int) uint64 {
	if n < 0 || n > 5 {
		return 0
	}
	return r.regs.Regs[n]
}

func (r *regView) setReturn(v uint64) { r.regs.Regs[0] = v }

func (r *regView) returnValue() uint64 { return r.regs.Regs[0] }

func (r *regView) advancePC() { r.regs.Pc += syscallInsnLen }

func (r *regView) instructionPointer() uint64 { return r.regs.Pc }
