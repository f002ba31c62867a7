package fsjail

import (
	"syscall"
	"testing"
)

func TestNewRuleClassification(t *testing.T) {
	if r := NewRule("/etc"); r.kind != matchPrefix {
		t.Errorf("kind for %q: got %v, want matchPrefix", r.Pattern, r.kind)
	}
	if r := NewRule("secret"); r.kind != matchSubstring {
		t.Errorf("kind for %q: got %v, want matchSubstring", r.Pattern, r.kind)
	}
}

func TestRuleMatchesPrefix(t *testing.T) {
	r := NewRule("/etc")

	tests := []struct {
		path string
		want bool
	}{
		{"/etc", true},
		{"/etc/passwd", true},
		{"/etc/ssl/certs", true},
		{"/etcetera", false},
		{"/var/etc", false},
		{"/", false},
	}
	for _, tt := range tests {
		if got := r.Matches(tt.path); got != tt.want {
			t.Errorf("Matches(%q): got %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRuleMatchesSubstring(t *testing.T) {
	r := NewRule("zzz")

	tests := []struct {
		path string
		want bool
	}{
		{"/tmp/zzz-secret.txt", true},
		{"/home/user/zzz", true},
		{"zzz", true},
		{"/tmp/zz-public.txt", false},
	}
	for _, tt := range tests {
		if got := r.Matches(tt.path); got != tt.want {
			t.Errorf("Matches(%q): got %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestEvaluateAllowOverridesDeny(t *testing.T) {
	rs := NewRuleSet([]string{"/etc"}, []string{"/etc/ld.so.cache"}, syscall.EPERM)

	d := rs.Evaluate("/etc/ld.so.cache")
	if d.Deny {
		t.Fatalf("Evaluate(/etc/ld.so.cache): denied by %s, want allowed", d.Rule)
	}
	if d.Rule != "allow:/etc/ld.so.cache" {
		t.Errorf("Rule: got %q, want %q", d.Rule, "allow:/etc/ld.so.cache")
	}

	d = rs.Evaluate("/etc/passwd")
	if !d.Deny {
		t.Fatal("Evaluate(/etc/passwd): allowed, want denied")
	}
	if d.Errno != syscall.EPERM {
		t.Errorf("Errno: got %v, want EPERM", d.Errno)
	}
	if d.Rule != "deny:/etc" {
		t.Errorf("Rule: got %q, want %q", d.Rule, "deny:/etc")
	}
}

func TestEvaluateFirstMatchWins(t *testing.T) {
	rs := NewRuleSet([]string{"/data/private", "/data"}, nil, syscall.EACCES)

	d := rs.Evaluate("/data/private/key")
	if !d.Deny {
		t.Fatal("Evaluate: allowed, want denied")
	}
	if d.Rule != "deny:/data/private" {
		t.Errorf("Rule: got %q, want %q", d.Rule, "deny:/data/private")
	}
}

func TestEvaluateNoMatchAllows(t *testing.T) {
	rs := NewRuleSet([]string{"/etc"}, nil, syscall.EPERM)

	d := rs.Evaluate("/home/user/file")
	if d.Deny {
		t.Fatalf("Evaluate: denied by %s, want allowed", d.Rule)
	}
	if d.Rule != "" {
		t.Errorf("Rule: got %q, want empty", d.Rule)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	rs := NewRuleSet([]string{"secret"}, []string{"/ok"}, syscall.ENOENT)

	first := rs.Evaluate("/tmp/secret")
	for i := 0; i < 3; i++ {
		if got := rs.Evaluate("/tmp/secret"); got != first {
			t.Fatalf("Evaluate not stable: got %+v, want %+v", got, first)
		}
	}
}

func TestEvaluateConfiguredErrno(t *testing.T) {
	rs := NewRuleSet([]string{"/etc"}, nil, syscall.ENOENT)

	d := rs.Evaluate("/etc/shadow")
	if d.Errno != syscall.ENOENT {
		t.Errorf("Errno: got %v, want ENOENT", d.Errno)
	}
}

// Matching is textual, so a path that passes the rules can still alias a
// denied file through a symlink. Pin that behavior down.
func TestEvaluateDoesNotResolveSymlinks(t *testing.T) {
	rs := NewRuleSet([]string{"/etc/shadow"}, nil, syscall.EPERM)

	if d := rs.Evaluate("/tmp/link-to-shadow"); d.Deny {
		t.Fatal("Evaluate(/tmp/link-to-shadow): denied, want allowed (textual matching)")
	}
}
