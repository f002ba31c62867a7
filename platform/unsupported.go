package platform

import "context"

// unsupportedName is the name returned by the unsupported platform stub.
const unsupportedName = "unsupported"

// unsupportedPlatform is returned on operating systems without seccomp and
// ptrace. Every Run attempt fails; availability is always false.
type unsupportedPlatform struct{}

func (p *unsupportedPlatform) Name() string { return unsupportedName }

func (p *unsupportedPlatform) Available() bool { return false }

func (p *unsupportedPlatform) CheckDependencies() *DependencyCheck {
	return &DependencyCheck{
		Errors: []string{"seccomp/ptrace sandboxing requires Linux"},
	}
}

func (p *unsupportedPlatform) Run(_ context.Context, _ *RunSpec) (*RunResult, error) {
	return nil, ErrNotSupported
}

// NewUnsupportedPlatform returns a Platform that always reports as
// unavailable. Useful for tests.
func NewUnsupportedPlatform() Platform {
	return &unsupportedPlatform{}
}
