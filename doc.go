// Package fsjail provides a process-level filesystem-access sandbox for
// Linux built on seccomp BPF filters and ptrace.
//
// A seccomp filter installed in the traced child routes selected
// path-taking syscalls (open, openat, unlink, rename, ...) to the
// supervising tracer via SECCOMP_RET_TRACE. At each trap the tracer reads
// the path argument out of the tracee's registers and memory, evaluates it
// against an ordered blacklist/whitelist rule set, and either resumes the
// syscall untouched or injects a synthetic negative errno so the kernel
// never performs the operation.
//
// The sandbox relies on re-executing its own binary to set up the tracee,
// so main() must call MaybeTraceeInit first:
//
//	func main() {
//	    if fsjail.MaybeTraceeInit() {
//	        return
//	    }
//	    cfg := fsjail.DefaultConfig()
//	    cfg.Deny = []string{"zzz"}
//	    result, err := fsjail.Run(context.Background(), cfg, "cat", []string{"/tmp/zzz-secret.txt"})
//	    ...
//	}
//
// Known limitation: policy matching is purely path-based. A symlink whose
// name passes the rules can point at a file the rules would deny; the
// sandbox does not resolve symlinks at trap time.
package fsjail
