// Package types defines the core types shared across releasekit: release
// identifiers, the Release record and the result types returned by the
// release manager.
package types
