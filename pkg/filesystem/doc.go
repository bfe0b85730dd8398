// Package filesystem provides filesystem implementations for releasekit.
//
// This package defines the FS interface used by the release store and
// contains the standard OS filesystem and an afero-backed implementation
// used by tests and in-memory tooling.
package filesystem
