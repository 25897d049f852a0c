// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration for a check run. Command
// line flags override anything set here.
type Config struct {
	Check          CheckConfig         `yaml:"check"`
	Daemons        DaemonsConfig       `yaml:"daemons"`
	RequiredGroups map[string][]string `yaml:"required_groups"`
}

// ---- CHECK ----

type CheckConfig struct {
	Name string `yaml:"name"`

	// Lifetime is the number of minutes until the collector flags the
	// report stale; 0 keeps the collector default.
	Lifetime int `yaml:"lifetime"`
}

// ---- DAEMONS ----

type DaemonsConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Services []string `yaml:"services"`
}

// Load reads and parses one YAML config file and applies defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	Normalize(&cfg)
	return &cfg, nil
}
