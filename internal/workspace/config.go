// Package workspace synchronizes on-disk source files with analyzer
// documents: it loads a YAML workspace config, validates the engine
// version constraint, and applies file changes observed through fsnotify
// as document writes.
package workspace

import (
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// EngineVersion is the version the workspace config's engine constraint
// is checked against.
const EngineVersion = "0.1.0"

// ConfigFile is the workspace configuration file name.
const ConfigFile = "lattice.yaml"

// Config is the on-disk workspace configuration.
type Config struct {
	// Engine is an optional semver constraint on the engine version,
	// e.g. ">= 0.1.0, < 1.0.0".
	Engine string `yaml:"engine"`

	// Include lists the source file globs, relative to the workspace
	// root.
	Include []string `yaml:"include"`

	// DebounceMS batches file events closer together than this many
	// milliseconds into one reload.
	DebounceMS int `yaml:"debounce_ms"`
}

// DefaultConfig returns the configuration used when no config file
// exists.
func DefaultConfig() *Config {
	return &Config{
		Include:    []string{"*.json"},
		DebounceMS: 50,
	}
}

// Debounce returns the event batching window.
func (c *Config) Debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return 50 * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// LoadConfig reads and validates path. A missing file yields the default
// configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("workspace: reading config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("workspace: parsing config: %w", err)
	}

	if config.Engine != "" {
		constraint, err := semver.NewConstraint(config.Engine)
		if err != nil {
			return nil, fmt.Errorf("workspace: invalid engine constraint %q: %w", config.Engine, err)
		}
		version := semver.MustParse(EngineVersion)
		if !constraint.Check(version) {
			return nil, fmt.Errorf("workspace: engine %s does not satisfy constraint %q", EngineVersion, config.Engine)
		}
	}
	return config, nil
}
