package fsjail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/fsjail/fsjail/internal/pathutil"
)

// Config holds the complete policy and tracing configuration for a Sandbox.
// It is immutable once a Sandbox has been created from it: the rules
// supplied here are compiled before the tracee starts and never mutated
// during tracing.
type Config struct {
	// Deny lists blacklist patterns. A trapped path matching any entry is
	// refused with DenyErrno unless an Allow entry also matches.
	Deny []string

	// Allow lists whitelist patterns. Allow overrides Deny, so
	// "deny everything under /etc except /etc/ld.so.cache" is
	// Deny=["/etc"], Allow=["/etc/ld.so.cache"].
	Allow []string

	// Roots lists the sandboxed directories supplied by the build
	// orchestrator. When non-empty, only paths under one of these roots
	// are evaluated against the rules; everything else passes through as
	// allowed. Empty means every trapped path is evaluated.
	Roots []string

	// DenyErrno names the error code injected on denial, e.g. "EPERM" or
	// "ENOENT". Empty means EPERM, matching what the kernel itself
	// returns for a permission refusal.
	DenyErrno string

	// Syscalls narrows or extends the trapped syscall set by name. Empty
	// means the platform default (open, openat, unlink, rename, ...).
	Syscalls []string

	// Logger is the structured logger for trace diagnostics and denial
	// records. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultConfig returns a Config that traps the default syscall set and
// denies with EPERM. With no Deny patterns it blocks nothing.
func DefaultConfig() *Config {
	return &Config{DenyErrno: "EPERM"}
}

// errnoByName maps the supported errno spellings to their values. These
// are the codes a filesystem refusal can plausibly surface.
var errnoByName = map[string]syscall.Errno{
	"EPERM":  syscall.EPERM,
	"EACCES": syscall.EACCES,
	"ENOENT": syscall.ENOENT,
	"EIO":    syscall.EIO,
	"ENOSPC": syscall.ENOSPC,
	"EROFS":  syscall.EROFS,
}

// denyErrno returns the configured errno value. Call only after Validate.
func (c *Config) denyErrno() syscall.Errno {
	if c.DenyErrno == "" {
		return syscall.EPERM
	}
	return errnoByName[c.DenyErrno]
}

// Validate checks the configuration and returns a descriptive error if
// any field is invalid. The returned error wraps ErrConfigInvalid.
func (c *Config) Validate() error {
	var errs []string

	for i, p := range c.Deny {
		if p == "" {
			errs = append(errs, fmt.Sprintf("Deny[%d]: must not be empty", i))
		} else if pathutil.ContainsNullByte(p) {
			errs = append(errs, fmt.Sprintf("Deny[%d]: must not contain null bytes", i))
		}
	}
	for i, p := range c.Allow {
		if p == "" {
			errs = append(errs, fmt.Sprintf("Allow[%d]: must not be empty", i))
		} else if pathutil.ContainsNullByte(p) {
			errs = append(errs, fmt.Sprintf("Allow[%d]: must not contain null bytes", i))
		}
	}
	for i, root := range c.Roots {
		switch {
		case root == "":
			errs = append(errs, fmt.Sprintf("Roots[%d]: must not be empty", i))
		case pathutil.ContainsNullByte(root):
			errs = append(errs, fmt.Sprintf("Roots[%d]: must not contain null bytes", i))
		case !filepath.IsAbs(root):
			errs = append(errs, fmt.Sprintf("Roots[%d]: %q must be an absolute path", i, root))
		}
	}
	if c.DenyErrno != "" {
		if _, ok := errnoByName[c.DenyErrno]; !ok {
			errs = append(errs, fmt.Sprintf("DenyErrno: unknown errno %q", c.DenyErrno))
		}
	}
	for i, name := range c.Syscalls {
		if name == "" {
			errs = append(errs, fmt.Sprintf("Syscalls[%d]: must not be empty", i))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// deepCopyConfig returns a copy of cfg with all slice fields deep-copied
// to prevent aliasing. The Logger is shared by reference intentionally.
func deepCopyConfig(cfg *Config) Config {
	cfgCopy := *cfg
	cfgCopy.Deny = append([]string(nil), cfg.Deny...)
	cfgCopy.Allow = append([]string(nil), cfg.Allow...)
	cfgCopy.Roots = append([]string(nil), cfg.Roots...)
	cfgCopy.Syscalls = append([]string(nil), cfg.Syscalls...)
	return cfgCopy
}

// policyFile is the YAML shape of an on-disk policy document.
type policyFile struct {
	Deny     []string `yaml:"deny"`
	Allow    []string `yaml:"allow"`
	Roots    []string `yaml:"roots"`
	Errno    string   `yaml:"errno"`
	Syscalls []string `yaml:"syscalls"`
}

// LoadPolicy reads a YAML policy document into a Config. The document may
// specify any subset of deny, allow, roots, errno and syscalls; omitted
// fields take their defaults. The result is validated.
func LoadPolicy(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("%w: parse policy %s: %v", ErrConfigInvalid, path, err)
	}

	cfg := DefaultConfig()
	cfg.Deny = pf.Deny
	cfg.Allow = pf.Allow
	cfg.Roots = pf.Roots
	cfg.Syscalls = pf.Syscalls
	if pf.Errno != "" {
		cfg.DenyErrno = pf.Errno
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	return cfg, nil
}
