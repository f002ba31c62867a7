// Package pathutil provides small path helpers shared by the policy engine
// and the sandbox configuration layer.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ContainsNullByte reports whether the string contains a null byte.
// Paths read out of a tracee's memory stop at the first null, but patterns
// supplied through configuration must be rejected if they embed one.
func ContainsNullByte(s string) bool {
	return strings.ContainsRune(s, '\x00')
}

// HasPathPrefix reports whether path is prefix itself or lies underneath
// prefix as a directory component boundary. Unlike strings.HasPrefix it will
// not match "/tmp/foobar" against the prefix "/tmp/foo".
func HasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)
	if path == prefix {
		return true
	}
	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}

// UnderAny reports whether path lies under (or is) any of the given roots.
func UnderAny(path string, roots []string) bool {
	for _, root := range roots {
		if HasPathPrefix(path, root) {
			return true
		}
	}
	return false
}
