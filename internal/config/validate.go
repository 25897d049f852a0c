// internal/config/validate.go
package config

import "fmt"

// Validate checks configuration correctness. It performs declarative
// validation only. It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg.Check.Lifetime < 0 {
		return fmt.Errorf("config: check.lifetime must not be negative, got %d", cfg.Check.Lifetime)
	}

	if cfg.Daemons.Enabled {
		if len(cfg.Daemons.Services) == 0 {
			return fmt.Errorf("config: daemons.enabled is set but daemons.services is empty")
		}
		for _, svc := range cfg.Daemons.Services {
			if svc == "" {
				return fmt.Errorf("config: daemons.services must not contain empty names")
			}
		}
	}

	for node, groups := range cfg.RequiredGroups {
		if node == "" {
			return fmt.Errorf("config: required_groups contains an empty node name")
		}
		if len(groups) == 0 {
			return fmt.Errorf("config: required_groups[%q] lists no groups", node)
		}
		for _, g := range groups {
			if g == "" {
				return fmt.Errorf("config: required_groups[%q] contains an empty group name", node)
			}
		}
	}

	return nil
}
