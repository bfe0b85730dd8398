// Package datastore manages the release store on the filesystem.
//
// It owns the physical layout described in pkg/paths: release directories,
// their manifests, the live pointer symlink and the staging area. Every
// change that readers can observe is a single rename: a staged release
// directory renamed into place, a temporary symlink renamed over the live
// pointer, a release renamed into the staging area before it is removed.
// Higher level policy (id allocation, retention, rollback) lives in
// pkg/releases.
package datastore
