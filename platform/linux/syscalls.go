//go:build linux

package linux

import (
	"fmt"

	seccomp "github.com/seccomp/libseccomp-golang"
)

// SyscallSpec describes how to pull the pathname argument(s) out of one
// trapped syscall. Making a syscall inspectable is a matter of adding a
// table entry; the tracer itself never changes.
type SyscallSpec struct {
	// Name is the syscall name as known to libseccomp (e.g. "openat").
	Name string

	// PathArgs lists the argument indices (0-based, syscall argument
	// order) that carry a pathname pointer. Rename-style calls list both
	// the source and destination indices.
	PathArgs []int
}

// pathSyscalls is the full set of syscalls the sandbox knows how to
// inspect, keyed by name. The *at variants take the path in the argument
// after the directory fd.
var pathSyscalls = map[string]SyscallSpec{
	"open":     {Name: "open", PathArgs: []int{0}},
	"openat":   {Name: "openat", PathArgs: []int{1}},
	"creat":    {Name: "creat", PathArgs: []int{0}},
	"truncate": {Name: "truncate", PathArgs: []int{0}},
	"unlink":   {Name: "unlink", PathArgs: []int{0}},
	"unlinkat": {Name: "unlinkat", PathArgs: []int{1}},
	"mkdir":    {Name: "mkdir", PathArgs: []int{0}},
	"mkdirat":  {Name: "mkdirat", PathArgs: []int{1}},
	"rename":   {Name: "rename", PathArgs: []int{0, 1}},
	"renameat": {Name: "renameat", PathArgs: []int{1, 3}},
}

// defaultTrapNames is the trap set used when the caller does not narrow it.
// Ordered for readable logs and deterministic filter programs.
var defaultTrapNames = []string{
	"open", "openat", "creat", "truncate",
	"unlink", "unlinkat", "mkdir", "mkdirat",
	"rename", "renameat",
}

// DefaultTrapSyscalls returns the names of the syscalls trapped by default.
func DefaultTrapSyscalls() []string {
	return append([]string(nil), defaultTrapNames...)
}

// resolveSyscallNrFn resolves a syscall name to its number on the running
// architecture via libseccomp. Overridden in tests.
var resolveSyscallNrFn = func(name string) (int32, error) {
	nr, err := seccomp.GetSyscallFromName(name)
	if err != nil {
		return 0, err
	}
	return int32(nr), nil
}

// TrapTable maps resolved syscall numbers to their argument descriptors.
// It is built once per run and immutable afterwards, mirroring the filter
// program it is compiled alongside.
type TrapTable struct {
	specs map[uint32]SyscallSpec
	nrs   []uint32
}

// ResolveTrapTable resolves the given syscall names for the current
// architecture. An empty name list selects the default trap set. Names not
// present in the descriptor table are a configuration error; names that do
// not exist on this architecture (e.g. "open" on arm64, which only has
// openat) are skipped silently.
func ResolveTrapTable(names []string) (*TrapTable, error) {
	if len(names) == 0 {
		names = defaultTrapNames
	}
	t := &TrapTable{specs: make(map[uint32]SyscallSpec, len(names))}
	for _, name := range names {
		spec, ok := pathSyscalls[name]
		if !ok {
			return nil, fmt.Errorf("no argument descriptor for syscall %q", name)
		}
		nr, err := resolveSyscallNrFn(name)
		if err != nil {
			return nil, fmt.Errorf("resolve syscall %q: %w", name, err)
		}
		if nr < 0 {
			// Pseudo syscall number: not present on this architecture.
			continue
		}
		if _, dup := t.specs[uint32(nr)]; dup {
			continue
		}
		t.specs[uint32(nr)] = spec
		t.nrs = append(t.nrs, uint32(nr))
	}
	if len(t.nrs) == 0 {
		return nil, fmt.Errorf("trap set %v resolves to no syscalls on this architecture", names)
	}
	return t, nil
}

// Numbers returns the resolved syscall numbers in resolution order, for
// compilation into the filter program.
func (t *TrapTable) Numbers() []uint32 {
	return append([]uint32(nil), t.nrs...)
}

// Lookup returns the descriptor for a trapped syscall number.
func (t *TrapTable) Lookup(nr uint64) (SyscallSpec, bool) {
	spec, ok := t.specs[uint32(nr)]
	return spec, ok
}

// Names returns the names of the resolved syscalls, for the tracee config.
func (t *TrapTable) Names() []string {
	names := make([]string, 0, len(t.nrs))
	for _, nr := range t.nrs {
		names = append(names, t.specs[nr].Name)
	}
	return names
}
