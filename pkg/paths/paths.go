package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/releasekit/pkg/errors"
)

// Environment variable names
const (
	// EnvStore overrides the release store root
	EnvStore = "RELEASEKIT_STORE"

	// EnvConfigDir overrides the XDG config directory for releasekit
	EnvConfigDir = "RELEASEKIT_CONFIG_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Fixed names. The layout names inside the store are configurable through
// Layout; these are not.
const (
	// AppDirName is the directory name used under the XDG base directories
	AppDirName = "releasekit"

	// ConfigFileName is the user configuration file name
	ConfigFileName = "config.toml"

	// LocalConfigFileName is looked up in the working directory first
	LocalConfigFileName = "releasekit.toml"

	// ManifestExt is the manifest file extension
	ManifestExt = ".toml"
)

// Layout names the entries inside a store root.
type Layout struct {
	ReleasesDir  string
	ManifestsDir string
	CurrentLink  string
	StagingDir   string
}

// DefaultLayout returns the standard store layout.
func DefaultLayout() Layout {
	return Layout{
		ReleasesDir:  "releases",
		ManifestsDir: "manifests",
		CurrentLink:  "current",
		StagingDir:   ".staging",
	}
}

// Paths provides centralized path management for a release store
type Paths interface {
	StoreRoot() string
	ReleasesDir() string
	ReleasePath(id string) string
	ManifestsDir() string
	ManifestPath(id string) string
	CurrentLink() string
	// CurrentTarget is the symlink target stored in the live pointer for
	// id, relative to the pointer's directory.
	CurrentTarget(id string) string
	StagingDir() string
	ConfigDir() string
	ConfigFile() string
	StateDir() string
}

type paths struct {
	root      string
	layout    Layout
	xdgConfig string
	xdgState  string
}

// New creates a Paths instance for the store at storeRoot. An empty
// storeRoot is resolved from RELEASEKIT_STORE, then the XDG data directory.
func New(storeRoot string, layout Layout) (Paths, error) {
	if storeRoot == "" {
		storeRoot = os.Getenv(EnvStore)
	}
	if storeRoot == "" {
		storeRoot = filepath.Join(xdg.DataHome, AppDirName)
	}

	absRoot, err := filepath.Abs(expandHome(storeRoot))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "failed to get absolute path for store root %s", storeRoot)
	}

	if err := ValidateLayout(layout); err != nil {
		return nil, err
	}

	p := &paths{
		root:   absRoot,
		layout: layout,
	}
	p.setupXDGDirs()
	return p, nil
}

// ValidateLayout checks every layout entry is a plain, distinct name.
func ValidateLayout(l Layout) error {
	names := map[string]string{
		"releases_dir":  l.ReleasesDir,
		"manifests_dir": l.ManifestsDir,
		"current_link":  l.CurrentLink,
		"staging_dir":   l.StagingDir,
	}
	seen := make(map[string]string, len(names))
	for key, name := range names {
		if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) || strings.Contains(name, "/") {
			return errors.Newf(errors.ErrInvalidInput, "store layout %s must be a plain directory name, got %q", key, name).
				WithDetail("key", key)
		}
		if other, dup := seen[name]; dup {
			return errors.Newf(errors.ErrInvalidInput, "store layout %s and %s both use %q", other, key, name)
		}
		seen[name] = key
	}
	return nil
}

func (p *paths) setupXDGDirs() {
	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = expandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, AppDirName)
	}

	// Read the env var directly so tests can redirect it after xdg has
	// cached its values.
	if stateDir := os.Getenv("XDG_STATE_HOME"); stateDir != "" {
		p.xdgState = filepath.Join(stateDir, AppDirName)
	} else {
		p.xdgState = filepath.Join(xdg.StateHome, AppDirName)
	}
}

func (p *paths) StoreRoot() string { return p.root }

func (p *paths) ReleasesDir() string {
	return filepath.Join(p.root, p.layout.ReleasesDir)
}

func (p *paths) ReleasePath(id string) string {
	return filepath.Join(p.ReleasesDir(), id)
}

func (p *paths) ManifestsDir() string {
	return filepath.Join(p.root, p.layout.ManifestsDir)
}

func (p *paths) ManifestPath(id string) string {
	return filepath.Join(p.ManifestsDir(), id+ManifestExt)
}

func (p *paths) CurrentLink() string {
	return filepath.Join(p.root, p.layout.CurrentLink)
}

func (p *paths) CurrentTarget(id string) string {
	return filepath.Join(p.layout.ReleasesDir, id)
}

func (p *paths) StagingDir() string {
	return filepath.Join(p.root, p.layout.StagingDir)
}

func (p *paths) ConfigDir() string { return p.xdgConfig }

func (p *paths) ConfigFile() string {
	return filepath.Join(p.xdgConfig, ConfigFileName)
}

func (p *paths) StateDir() string { return p.xdgState }

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	return expandHome(path)
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv(EnvHome)
		if homeDir == "" {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}

	// ~user is left alone
	return path
}

// UserConfigFile returns the per-user configuration file location,
// independent of any store root.
func UserConfigFile() string {
	p := &paths{}
	p.setupXDGDirs()
	return filepath.Join(p.xdgConfig, ConfigFileName)
}
