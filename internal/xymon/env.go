// internal/xymon/env.go
package xymon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultPort is the well-known xymond listener port.
const DefaultPort = 1984

// Environment is a one-shot snapshot of the Xymon variables the client
// needs. It is resolved exactly once per send, never re-read mid
// operation, so a delivery is deterministic given one environment.
type Environment struct {
	Machine string   // reporting host identity (MACHINE)
	Servers []string // destination collectors, in configured order
	Port    int      // collector TCP port
}

// ResolveEnvironment reads MACHINE, XYMONSERVERS (legacy fallback
// XYMSRV) and XYMONDPORT from the process environment. XYMONSERVERS
// wins even when both server variables are set; the list is whitespace
// separated and order is preserved.
func ResolveEnvironment() (Environment, error) {
	env := Environment{Port: DefaultPort}

	env.Machine = strings.TrimSpace(os.Getenv("MACHINE"))
	if env.Machine == "" {
		return Environment{}, ErrMissingMachine
	}

	servers := strings.TrimSpace(os.Getenv("XYMONSERVERS"))
	if servers == "" {
		servers = strings.TrimSpace(os.Getenv("XYMSRV"))
	}
	if servers == "" {
		return Environment{}, ErrNoCollector
	}
	env.Servers = strings.Fields(servers)

	if raw := strings.TrimSpace(os.Getenv("XYMONDPORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 1 || port > 65535 {
			return Environment{}, fmt.Errorf("%w: %q", ErrInvalidPort, raw)
		}
		env.Port = port
	}

	return env, nil
}
