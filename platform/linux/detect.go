//go:build linux

package linux

import (
	"os"
	"runtime"
	"strings"
)

// actionsAvailPath lists the seccomp return actions the running kernel
// supports, space-separated. The file appeared in kernel 4.14.
const actionsAvailPath = "/proc/sys/kernel/seccomp/actions_avail"

// readActionsAvail is a function variable so tests can simulate kernels
// with and without the trace action.
var readActionsAvail = func() ([]byte, error) {
	return os.ReadFile(actionsAvailPath)
}

// SeccompSupport describes the kernel seccomp capabilities the sandbox
// depends on.
type SeccompSupport struct {
	// FilterMode indicates SECCOMP_MODE_FILTER is available.
	FilterMode bool

	// TraceAction indicates SECCOMP_RET_TRACE is available, i.e. the
	// kernel can hand trapped syscalls to a ptrace tracer.
	TraceAction bool
}

// DetectSeccomp inspects the kernel's advertised seccomp actions.
// SECCOMP_RET_TRACE predates the actions_avail file by several years, so a
// missing file is treated as supported rather than as absence.
func DetectSeccomp() SeccompSupport {
	data, err := readActionsAvail()
	if err != nil {
		return SeccompSupport{FilterMode: true, TraceAction: true}
	}
	var s SeccompSupport
	for _, action := range strings.Fields(string(data)) {
		switch action {
		case "allow":
			s.FilterMode = true
		case "trace":
			s.TraceAction = true
		}
	}
	return s
}

// archSupported reports whether the register view and filter builder know
// the given GOARCH.
func archSupported(goarch string) bool {
	_, err := auditArchFor(goarch)
	return err == nil
}

// nativeArchSupported reports whether the running architecture is
// supported. Split out for tests.
var nativeArchSupported = func() bool {
	return archSupported(runtime.GOARCH)
}
