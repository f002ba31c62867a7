package fsjail

import "io"

// Option configures a single Run call.
type Option func(*runOptions)

// runOptions holds per-call configuration applied via Option functions.
type runOptions struct {
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	extraDeny  []string
	extraAllow []string
}

// WithStdin redirects the tracee's standard input for a single call.
// The default is the parent's stdin.
func WithStdin(r io.Reader) Option {
	return func(o *runOptions) { o.stdin = r }
}

// WithStdout redirects the tracee's standard output for a single call.
func WithStdout(w io.Writer) Option {
	return func(o *runOptions) { o.stdout = w }
}

// WithStderr redirects the tracee's standard error for a single call.
func WithStderr(w io.Writer) Option {
	return func(o *runOptions) { o.stderr = w }
}

// WithDeny appends blacklist patterns for a single call. The patterns are
// evaluated after the Sandbox's configured Deny list.
func WithDeny(patterns ...string) Option {
	cpy := append([]string(nil), patterns...)
	return func(o *runOptions) { o.extraDeny = append(o.extraDeny, cpy...) }
}

// WithAllow appends whitelist patterns for a single call. The patterns are
// evaluated after the Sandbox's configured Allow list.
func WithAllow(patterns ...string) Option {
	cpy := append([]string(nil), patterns...)
	return func(o *runOptions) { o.extraAllow = append(o.extraAllow, cpy...) }
}
