// Command fsjail runs a program under a filesystem-access sandbox.
//
// Path arguments of trapped syscalls are checked against deny and allow
// patterns; denied calls fail with a configurable errno instead of
// reaching the filesystem.
//
// Usage:
//
//	fsjail [flags] -- <program> [args...]
//
// Exit status is the sandboxed program's own exit status. Exit 2 means
// the command line or policy file was invalid; exit 125 means the
// sandbox could not be set up.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/fsjail/fsjail"
)

const setupExitCode = 125

func main() {
	if fsjail.MaybeTraceeInit() {
		return
	}
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	flags := pflag.NewFlagSet("fsjail", pflag.ContinueOnError)
	flags.SetInterspersed(false)

	var (
		deny    = flags.StringArrayP("deny", "d", nil, "deny paths matching `pattern` (repeatable)")
		allow   = flags.StringArrayP("allow", "a", nil, "allow paths matching `pattern` even if denied (repeatable)")
		roots   = flags.StringArray("root", nil, "only police paths under `dir`; others pass through (repeatable)")
		errno   = flags.String("errno", "EPERM", "errno `name` returned for denied calls")
		traps   = flags.StringArray("trap", nil, "trap `syscall` instead of the default set (repeatable)")
		policy  = flags.String("policy", "", "load rules from YAML `file` (flags add to it)")
		verbose = flags.BoolP("verbose", "v", false, "log every policy denial")
	)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fsjail [flags] -- <program> [args...]\n\nFlags:\n%s", flags.FlagUsages())
	}

	if err := flags.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "fsjail: %v\n", err)
		return 2
	}
	args := flags.Args()
	if len(args) == 0 {
		flags.Usage()
		return 2
	}

	cfg := fsjail.DefaultConfig()
	if *policy != "" {
		loaded, err := fsjail.LoadPolicy(*policy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fsjail: %v\n", err)
			return 2
		}
		cfg = loaded
	}
	cfg.Deny = append(cfg.Deny, *deny...)
	cfg.Allow = append(cfg.Allow, *allow...)
	cfg.Roots = append(cfg.Roots, *roots...)
	if flags.Changed("errno") || cfg.DenyErrno == "" {
		cfg.DenyErrno = *errno
	}
	cfg.Syscalls = append(cfg.Syscalls, *traps...)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sb, err := fsjail.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsjail: %v\n", err)
		if errors.Is(err, fsjail.ErrConfigInvalid) {
			return 2
		}
		return setupExitCode
	}

	result, err := sb.Run(context.Background(), args[0], args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "fsjail: %v\n", err)
		return setupExitCode
	}
	if *verbose && result.Denied() {
		fmt.Fprintf(os.Stderr, "fsjail: %d call(s) denied\n", len(result.Denials))
	}
	return result.ExitCode
}
