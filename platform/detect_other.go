//go:build !linux

package platform

// detectPlatform returns the unsupported stub on non-Linux systems.
func detectPlatform() Platform {
	return &unsupportedPlatform{}
}
