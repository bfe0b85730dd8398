// Package config handles configuration management for releasekit.
// It loads embedded defaults, then a TOML or YAML config file, then
// RELEASEKIT_* environment variables, then command-line overrides.
package config
