// internal/config/normalize.go
package config

// DefaultServices are the daemons a Pacemaker stack runs.
var DefaultServices = []string{"corosync", "pacemaker", "pcsd"}

// Normalize fills defaults into a loaded config. It runs before
// Validate and is the only place allowed to mutate configuration.
func Normalize(cfg *Config) {
	if cfg.Daemons.Enabled && len(cfg.Daemons.Services) == 0 {
		cfg.Daemons.Services = append([]string(nil), DefaultServices...)
	}
}
