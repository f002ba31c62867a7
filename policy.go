package fsjail

import (
	"strings"
	"syscall"

	"github.com/fsjail/fsjail/internal/pathutil"
	"github.com/fsjail/fsjail/platform"
)

// matchKind selects how a rule pattern is compared against a path.
type matchKind int

const (
	matchSubstring matchKind = iota
	matchPrefix
)

// Rule is a single access-control entry. A pattern beginning with '/'
// matches as a path prefix on directory component boundaries; any other
// pattern matches as a substring of the full path, which is the original
// blacklist behavior ("zzz" denies /tmp/zzz-secret.txt).
type Rule struct {
	// Pattern is the raw pattern as supplied in configuration.
	Pattern string

	kind matchKind
}

// NewRule builds a Rule, classifying the pattern as prefix or substring.
func NewRule(pattern string) Rule {
	kind := matchSubstring
	if strings.HasPrefix(pattern, "/") {
		kind = matchPrefix
	}
	return Rule{Pattern: pattern, kind: kind}
}

// Matches reports whether the rule applies to path.
func (r Rule) Matches(path string) bool {
	if r.kind == matchPrefix {
		return pathutil.HasPathPrefix(path, r.Pattern)
	}
	return strings.Contains(path, r.Pattern)
}

// RuleSet is the immutable ordered policy evaluated at every filter trap.
//
// Precedence: whitelist entries override blacklist entries, and within
// each list the first match wins. A path matching no rule at all is
// allowed. Evaluation is pure — the same path always yields the same
// Decision.
//
// Matching is purely textual. A symlink whose own path passes the rules
// can alias a file the rules would deny; the sandbox does not resolve
// links at trap time. This is a known, deliberate limitation.
type RuleSet struct {
	allow []Rule
	deny  []Rule
	errno syscall.Errno
}

// NewRuleSet compiles the deny and allow pattern lists. errno is the code
// injected into the tracee when a deny rule fires.
func NewRuleSet(deny, allow []string, errno syscall.Errno) *RuleSet {
	rs := &RuleSet{errno: errno}
	for _, p := range deny {
		rs.deny = append(rs.deny, NewRule(p))
	}
	for _, p := range allow {
		rs.allow = append(rs.allow, NewRule(p))
	}
	return rs
}

// Evaluate applies the rule set to one path and returns the verdict.
func (rs *RuleSet) Evaluate(path string) platform.Decision {
	for _, r := range rs.allow {
		if r.Matches(path) {
			return platform.Decision{Rule: "allow:" + r.Pattern}
		}
	}
	for _, r := range rs.deny {
		if r.Matches(path) {
			return platform.Decision{Deny: true, Errno: rs.errno, Rule: "deny:" + r.Pattern}
		}
	}
	return platform.Decision{}
}
