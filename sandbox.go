package fsjail

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/fsjail/fsjail/internal/pathutil"
	"github.com/fsjail/fsjail/platform"
)

// detectPlatformFn is the function used to detect the tracing platform.
// It defaults to platform.Detect and is replaced by an init hook on Linux
// with the real platform/linux implementation; tests override it with
// fakes.
var detectPlatformFn = platform.Detect

// lookPathFn resolves a program name against PATH. Overridden in tests.
var lookPathFn = exec.LookPath

// Sandbox compiles a Config into an immutable policy and runs programs
// under it. A Sandbox is safe for sequential reuse; each Run supervises
// exactly one tracee and blocks until it exits.
type Sandbox struct {
	cfg    Config
	rules  *RuleSet
	plat   platform.Platform
	logger *slog.Logger
}

// New creates a Sandbox from cfg. The configuration is validated and
// deep-copied; later mutation of cfg has no effect on the Sandbox.
//
// If the platform cannot sandbox, New returns ErrUnsupportedPlatform.
// There is no degraded mode: running the target without the filter would
// silently void every guarantee the caller asked for.
func New(cfg *Config) (*Sandbox, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config must not be nil", ErrConfigInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfgCopy := deepCopyConfig(cfg)

	logger := cfgCopy.Logger
	if logger == nil {
		logger = slog.Default()
	}

	plat := detectPlatformFn()
	if !plat.Available() {
		return nil, ErrUnsupportedPlatform
	}

	return &Sandbox{
		cfg:    cfgCopy,
		rules:  NewRuleSet(cfgCopy.Deny, cfgCopy.Allow, cfgCopy.denyErrno()),
		plat:   plat,
		logger: logger,
	}, nil
}

// Platform returns the detected tracing platform, for dependency checks.
func (s *Sandbox) Platform() platform.Platform {
	return s.plat
}

// Run resolves program against PATH, executes it with args under the
// sandbox, and blocks until it exits. The returned Result carries the
// tracee's real exit status; policy denials are recorded on the Result,
// never returned as errors.
func (s *Sandbox) Run(ctx context.Context, program string, args []string, opts ...Option) (*Result, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	resolved, err := lookPathFn(program)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %q: %v", ErrSetupFailed, program, err)
	}

	rules := s.rules
	if len(o.extraDeny) > 0 || len(o.extraAllow) > 0 {
		rules = NewRuleSet(
			append(append([]string(nil), s.cfg.Deny...), o.extraDeny...),
			append(append([]string(nil), s.cfg.Allow...), o.extraAllow...),
			s.cfg.denyErrno(),
		)
	}

	roots := s.cfg.Roots
	checkPath := func(path string) platform.Decision {
		// Paths outside every sandboxed root are not policy-checked at
		// all; the external orchestrator controls that boundary.
		if len(roots) > 0 && !pathutil.UnderAny(path, roots) {
			return platform.Decision{}
		}
		return rules.Evaluate(path)
	}

	spec := &platform.RunSpec{
		Program:   resolved,
		Args:      args,
		Stdin:     o.stdin,
		Stdout:    o.stdout,
		Stderr:    o.stderr,
		Syscalls:  s.cfg.Syscalls,
		CheckPath: checkPath,
		Logger:    s.logger,
	}

	start := time.Now()
	rr, err := s.plat.Run(ctx, spec)
	if err != nil {
		return nil, err
	}
	return &Result{
		ExitCode: rr.ExitCode,
		Duration: time.Since(start),
		Denials:  rr.Denials,
	}, nil
}

// Run is a convenience that creates a one-shot Sandbox from cfg and runs
// program under it.
func Run(ctx context.Context, cfg *Config, program string, args []string, opts ...Option) (*Result, error) {
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, program, args, opts...)
}
