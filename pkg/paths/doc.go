// Package paths provides centralized path handling for releasekit.
//
// It resolves the release store root and derives every location inside it
// (release directories, manifests, the live pointer, the staging area). It
// also locates the configuration and state directories following the XDG
// Base Directory specification.
//
// # Environment Variables
//
//   - RELEASEKIT_STORE: release store root (default: $XDG_DATA_HOME/releasekit)
//   - RELEASEKIT_CONFIG_DIR: override the config directory (default: $XDG_CONFIG_HOME/releasekit)
//
// # Store Layout
//
//	<root>/releases/<id>/      immutable release content
//	<root>/manifests/<id>.toml release manifest
//	<root>/current             live pointer (symlink to releases/<id>)
//	<root>/.staging/           in-progress publishes and temporary links
package paths
