//go:build linux

package fsjail

import (
	"github.com/fsjail/fsjail/platform"
	"github.com/fsjail/fsjail/platform/linux"
)

func init() {
	detectPlatformFn = func() platform.Platform { return linux.New() }
}

// MaybeTraceeInit must be the first call in main of any binary that uses
// this package. In the parent process it is a no-op returning false. In
// the re-executed child it installs the syscall filter, execs the target
// program, and never returns.
func MaybeTraceeInit() bool {
	return linux.MaybeTraceeInit()
}
