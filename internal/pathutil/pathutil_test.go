package pathutil

import "testing"

// TestContainsNullByte verifies null byte detection.
func TestContainsNullByte(t *testing.T) {
	if ContainsNullByte("/tmp/ok") {
		t.Error("ContainsNullByte(\"/tmp/ok\") = true, want false")
	}
	if !ContainsNullByte("/tmp/\x00evil") {
		t.Error("ContainsNullByte with embedded null = false, want true")
	}
}

// TestHasPathPrefix verifies component-boundary prefix matching.
func TestHasPathPrefix(t *testing.T) {
	tests := []struct {
		path, prefix string
		want         bool
	}{
		{"/tmp/foo", "/tmp/foo", true},
		{"/tmp/foo/bar", "/tmp/foo", true},
		{"/tmp/foobar", "/tmp/foo", false},
		{"/tmp/foo/../bar", "/tmp/foo", false},
		{"/anything/at/all", "/", true},
		{"/tmp", "/tmp/foo", false},
		{"/tmp/foo/", "/tmp/foo", true},
	}
	for _, tt := range tests {
		if got := HasPathPrefix(tt.path, tt.prefix); got != tt.want {
			t.Errorf("HasPathPrefix(%q, %q) = %v, want %v", tt.path, tt.prefix, got, tt.want)
		}
	}
}

// TestUnderAny verifies matching against a root list.
func TestUnderAny(t *testing.T) {
	roots := []string{"/build/out", "/tmp/work"}
	if !UnderAny("/tmp/work/a.o", roots) {
		t.Error("UnderAny(/tmp/work/a.o) = false, want true")
	}
	if UnderAny("/etc/passwd", roots) {
		t.Error("UnderAny(/etc/passwd) = true, want false")
	}
	if UnderAny("/etc/passwd", nil) {
		t.Error("UnderAny with no roots = true, want false")
	}
}
