// Package artifact handles build outputs handed to releasekit: checking
// that a tree is complete and copying it into the release store.
//
// The source side is an afero filesystem so the same code reads a build
// directory on disk or an in-memory tree in tests.
package artifact
