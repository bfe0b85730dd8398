package config

import (
	"slices"
	"time"

	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/paths"
)

// Output formats
const (
	FormatText  = "text"
	FormatPlain = "plain"
	FormatJSON  = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatText, FormatPlain, FormatJSON, FormatYAML}

// Config is the complete releasekit configuration.
type Config struct {
	Store     Store     `koanf:"store"`
	Retention Retention `koanf:"retention"`
	Publish   Publish   `koanf:"publish"`
	Output    Output    `koanf:"output"`

	// Source is the config file that was loaded, if any.
	Source string `koanf:"-"`
}

// Store locates the release store and names its entries.
type Store struct {
	Root         string `koanf:"root"`
	ReleasesDir  string `koanf:"releases_dir"`
	ManifestsDir string `koanf:"manifests_dir"`
	CurrentLink  string `koanf:"current_link"`
	StagingDir   string `koanf:"staging_dir"`
}

// Retention controls pruning.
type Retention struct {
	Keep       int           `koanf:"keep"`
	StagingTTL time.Duration `koanf:"staging_ttl"`
}

// Publish controls how artifacts become releases.
type Publish struct {
	Exclude  []string `koanf:"exclude"`
	Activate bool     `koanf:"activate"`
	Prune    bool     `koanf:"prune"`
}

// Output controls command output.
type Output struct {
	Format string `koanf:"format"`
}

// Layout returns the store layout described by the configuration.
func (c *Config) Layout() paths.Layout {
	return paths.Layout{
		ReleasesDir:  c.Store.ReleasesDir,
		ManifestsDir: c.Store.ManifestsDir,
		CurrentLink:  c.Store.CurrentLink,
		StagingDir:   c.Store.StagingDir,
	}
}

// Validate checks values that cannot be caught by decoding.
func (c *Config) Validate() error {
	if c.Retention.Keep < 1 {
		return errors.Newf(errors.ErrConfigValid, "retention.keep must be at least 1, got %d", c.Retention.Keep).
			WithDetail("key", "retention.keep")
	}
	if c.Retention.StagingTTL < 0 {
		return errors.Newf(errors.ErrConfigValid, "retention.staging_ttl must not be negative, got %s", c.Retention.StagingTTL).
			WithDetail("key", "retention.staging_ttl")
	}
	if !slices.Contains(Formats, c.Output.Format) {
		return errors.Newf(errors.ErrConfigValid, "output.format must be one of %v, got %q", Formats, c.Output.Format).
			WithDetail("key", "output.format")
	}
	if err := paths.ValidateLayout(c.Layout()); err != nil {
		return errors.Wrap(err, errors.ErrConfigValid, "invalid store layout")
	}
	return nil
}
