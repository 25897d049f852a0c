// cmd/bb-pacemaker/main.go
//
// bb-pacemaker is the minimal variant of check-pacemaker: fixed test
// name, default daemon list, no resource-group requirements.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/xymon-checks/internal/check"
	"github.com/tamzrod/xymon-checks/internal/config"
	"github.com/tamzrod/xymon-checks/internal/pacemaker"
	"github.com/tamzrod/xymon-checks/internal/xymon"
)

const (
	checkName = "pacemaker"
	version   = "1"
)

func main() {
	envFile := flag.String("env-file", "", "xymon environment file to source before resolving collectors")
	flag.Parse()

	log := logrus.New()

	if os.Geteuid() != 0 {
		log.Fatal("bb-pacemaker must run as root")
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("environment file load failed: %v", err)
		}
	}

	client, err := xymon.NewClient(checkName)
	if err != nil {
		log.Fatalf("client setup failed: %v", err)
	}

	checker := &check.Checker{
		Source:        pacemaker.New(nil),
		Daemons:       config.DefaultServices,
		ScriptName:    "bb-pacemaker",
		ScriptVersion: version,
	}

	if err := checker.BuildReport(context.Background(), client.Message()); err != nil {
		log.Fatalf("cluster status check failed: %v", err)
	}
	if err := client.Send(); err != nil {
		log.Fatalf("report delivery failed: %v", err)
	}

	log.WithField("color", client.Message().Severity().Color()).Info("report delivered")
}
