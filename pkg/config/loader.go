package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/logging"
	"github.com/arthur-debert/releasekit/pkg/paths"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment variables that map onto config keys,
// e.g. RELEASEKIT_RETENTION_KEEP for retention.keep.
const EnvPrefix = "RELEASEKIT_"

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an explicit config file. It must exist.
	ConfigFile string

	// WorkDir is searched for a project config file. Defaults to ".".
	WorkDir string

	// Overrides are applied last, keyed by dotted config keys.
	Overrides map[string]interface{}
}

// Load builds the configuration from, in increasing precedence: embedded
// defaults, a config file, RELEASEKIT_* environment variables and
// opts.Overrides.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load embedded defaults")
	}
	known := k.Keys()

	// 2. Config file
	path, err := findConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path).
				WithDetail("path", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded config file")
	}

	// 3. Environment
	if err := k.Load(env.Provider(EnvPrefix, ".", envKeyMapper(known)), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment variables")
	}

	// 4. Command-line overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	// 5. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}
	cfg.Source = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile returns the config file to load, or "" when there is
// none. Project files in WorkDir win over the per-user file.
func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		path := paths.ExpandHome(opts.ConfigFile)
		if _, err := os.Stat(path); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "cannot read config file %s", path).
				WithDetail("path", path)
		}
		return path, nil
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	local := filepath.Join(workDir, paths.LocalConfigFileName)
	user := paths.UserConfigFile()
	for _, base := range []string{local, user} {
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		for _, ext := range []string{".toml", ".yaml", ".yml"} {
			candidate := stem + ext
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}
	return "", nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// envKeyMapper maps RELEASEKIT_SECTION_KEY onto known dotted keys. Key
// names contain underscores, so the mapping is looked up rather than
// derived. Unknown variables map to "" and are skipped.
func envKeyMapper(known []string) func(string) string {
	lookup := make(map[string]string, len(known))
	for _, key := range known {
		lookup[EnvPrefix+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = key
	}
	return func(s string) string {
		return lookup[s]
	}
}
