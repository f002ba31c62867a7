//go:build linux

package linux

import (
	"context"
	"errors"
	"testing"

	"github.com/fsjail/fsjail/platform"
)

func fakeNativeArch(t *testing.T, supported bool) {
	t.Helper()
	orig := nativeArchSupported
	nativeArchSupported = func() bool { return supported }
	t.Cleanup(func() { nativeArchSupported = orig })
}

func TestPlatformName(t *testing.T) {
	l := &Platform{}
	if got := l.Name(); got != platformName {
		t.Errorf("Name: got %q, want %q", got, platformName)
	}
}

func TestAvailable(t *testing.T) {
	tests := []struct {
		name    string
		arch    bool
		seccomp SeccompSupport
		want    bool
	}{
		{"all present", true, SeccompSupport{FilterMode: true, TraceAction: true}, true},
		{"no trace action", true, SeccompSupport{FilterMode: true}, false},
		{"no filter mode", true, SeccompSupport{TraceAction: true}, false},
		{"unsupported arch", false, SeccompSupport{FilterMode: true, TraceAction: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeNativeArch(t, tt.arch)
			l := &Platform{seccomp: tt.seccomp}
			if got := l.Available(); got != tt.want {
				t.Errorf("Available: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckDependencies(t *testing.T) {
	fakeNativeArch(t, true)
	l := &Platform{seccomp: SeccompSupport{FilterMode: true, TraceAction: true}}
	if check := l.CheckDependencies(); !check.OK() {
		t.Errorf("CheckDependencies: got errors %v, want none", check.Errors)
	}

	l = &Platform{seccomp: SeccompSupport{FilterMode: true}}
	check := l.CheckDependencies()
	if check.OK() {
		t.Fatal("CheckDependencies: got OK, want trace-action error")
	}
	if len(check.Errors) != 1 {
		t.Errorf("Errors: got %v, want exactly one", check.Errors)
	}

	fakeNativeArch(t, false)
	l = &Platform{}
	if check := l.CheckDependencies(); len(check.Errors) != 3 {
		t.Errorf("Errors: got %v, want three", check.Errors)
	}
}

func TestRunRejectsBadSpec(t *testing.T) {
	l := New()

	_, err := l.Run(context.Background(), nil)
	if !errors.Is(err, platform.ErrSetupFailed) {
		t.Errorf("Run(nil): got %v, want ErrSetupFailed", err)
	}

	_, err = l.Run(context.Background(), &platform.RunSpec{Program: "/bin/true"})
	if !errors.Is(err, platform.ErrSetupFailed) {
		t.Errorf("Run without CheckPath: got %v, want ErrSetupFailed", err)
	}
}

func TestRunBadTrapSet(t *testing.T) {
	fakeResolver(t, map[string]int32{"openat": 257})
	l := New()

	_, err := l.Run(context.Background(), &platform.RunSpec{
		Program:   "/bin/true",
		Syscalls:  []string{"clone"},
		CheckPath: func(string) platform.Decision { return platform.Decision{} },
	})
	if !errors.Is(err, platform.ErrSetupFailed) {
		t.Errorf("Run: got %v, want ErrSetupFailed", err)
	}
}

func TestSpawnTraceeBinaryLookupFailure(t *testing.T) {
	orig := osExecutableFn
	osExecutableFn = func() (string, error) { return "", errors.New("no proc") }
	t.Cleanup(func() { osExecutableFn = orig })

	l := New()
	_, err := l.spawnTracee(&platform.RunSpec{Program: "/bin/true"}, testTable())
	if err == nil {
		t.Fatal("spawnTracee: got nil, want error")
	}
}
