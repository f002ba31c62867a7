//go:build !linux

package fsjail

// MaybeTraceeInit is a no-op on platforms without a tracing backend.
func MaybeTraceeInit() bool {
	return false
}
