// Package platform defines the tracing-platform abstraction for fsjail.
// Most users should use the top-level fsjail package, which selects and
// configures the appropriate platform automatically. Import this package
// directly only to inspect dependency checks or to supply a custom
// Platform in tests.
package platform
