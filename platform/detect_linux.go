//go:build linux

package platform

import "context"

// detectPlatform returns the built-in Linux platform stub. The top-level
// fsjail package replaces this with the real platform/linux implementation
// via an init hook; the indirection avoids an import cycle between this
// package and platform/linux.
func detectPlatform() Platform {
	return &builtinLinuxPlatform{}
}

// builtinLinuxPlatform is a minimal Linux platform returned by Detect().
// It never runs anything; use the platform/linux sub-package directly if
// you are not going through the fsjail package.
type builtinLinuxPlatform struct{}

func (p *builtinLinuxPlatform) Name() string { return "linux-seccomp-ptrace" }

func (p *builtinLinuxPlatform) Available() bool { return false }

func (p *builtinLinuxPlatform) CheckDependencies() *DependencyCheck {
	return &DependencyCheck{
		Warnings: []string{"built-in stub: use the platform/linux package for full tracing support"},
	}
}

func (p *builtinLinuxPlatform) Run(_ context.Context, _ *RunSpec) (*RunResult, error) {
	return nil, ErrNotSupported
}
