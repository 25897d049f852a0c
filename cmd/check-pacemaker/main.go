// cmd/check-pacemaker/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/xymon-checks/internal/check"
	"github.com/tamzrod/xymon-checks/internal/config"
	"github.com/tamzrod/xymon-checks/internal/pacemaker"
	"github.com/tamzrod/xymon-checks/internal/xymon"
)

const version = "3"

// groupFlags collects repeated -r <node>:<resource-group> options into
// the node -> groups requirement map.
type groupFlags map[string][]string

func (g groupFlags) String() string {
	var parts []string
	for node, groups := range g {
		for _, grp := range groups {
			parts = append(parts, node+":"+grp)
		}
	}
	return strings.Join(parts, ",")
}

func (g groupFlags) Set(v string) error {
	node, group, ok := strings.Cut(v, ":")
	if !ok || node == "" || group == "" {
		return fmt.Errorf("expected <node>:<resource-group>, got %q", v)
	}
	g[node] = append(g[node], group)
	return nil
}

func main() {
	var (
		testName   = flag.String("t", "", "xymon test name (required)")
		daemons    = flag.Bool("d", false, "also check the cluster daemons")
		cfgPath    = flag.String("c", "", "optional YAML configuration file")
		envFile    = flag.String("env-file", "", "xymon environment file to source before resolving collectors")
		bestEffort = flag.Bool("best-effort", false, "attempt every collector even after a delivery failure")
		timeout    = flag.Duration("timeout", 10*time.Second, "per-collector dial and write deadline")
		lifetime   = flag.String("lifetime", "", "minutes until the collector flags this report stale")
	)
	groups := groupFlags{}
	flag.Var(groups, "r", "required <node>:<resource-group>, repeatable")
	flag.Parse()

	log := logrus.New()

	// The cluster queries need the CIB, which is root-only.
	if os.Geteuid() != 0 {
		log.Fatal("check-pacemaker must run as root")
	}

	cfg := &config.Config{}
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		cfg = loaded
	}

	// Flags win over file values.
	name := *testName
	if name == "" {
		name = cfg.Check.Name
	}
	if name == "" {
		log.Fatal("a test name is required (-t)")
	}
	if *daemons {
		cfg.Daemons.Enabled = true
	}
	for node, gs := range groups {
		if cfg.RequiredGroups == nil {
			cfg.RequiredGroups = map[string][]string{}
		}
		cfg.RequiredGroups[node] = append(cfg.RequiredGroups[node], gs...)
	}
	config.Normalize(cfg)

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("environment file load failed: %v", err)
		}
	}

	client, err := xymon.NewClient(name)
	if err != nil {
		log.Fatalf("client setup failed: %v", err)
	}
	client.SetTimeout(*timeout)
	client.BestEffort(*bestEffort)

	switch {
	case *lifetime != "":
		if err := client.SetLifetime(*lifetime); err != nil {
			log.Fatalf("bad lifetime: %v", err)
		}
	case cfg.Check.Lifetime > 0:
		if err := client.SetLifetime(strconv.Itoa(cfg.Check.Lifetime)); err != nil {
			log.Fatalf("bad lifetime: %v", err)
		}
	}

	checker := &check.Checker{
		Source:         pacemaker.New(nil),
		RequiredGroups: cfg.RequiredGroups,
		ScriptName:     "check-pacemaker",
		ScriptVersion:  version,
	}
	if cfg.Daemons.Enabled {
		checker.Daemons = cfg.Daemons.Services
	}

	if err := checker.BuildReport(context.Background(), client.Message()); err != nil {
		log.Fatalf("cluster status check failed: %v", err)
	}
	if err := client.Send(); err != nil {
		log.Fatalf("report delivery failed: %v", err)
	}

	log.WithFields(logrus.Fields{
		"check": name,
		"color": client.Message().Severity().Color(),
	}).Info("report delivered")
}
