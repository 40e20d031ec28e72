// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/relabs-tech/telemetry_relay/internal/app"
	"github.com/relabs-tech/telemetry_relay/internal/config"
	"github.com/relabs-tech/telemetry_relay/internal/logfile"
)

func main() {
	flagSet := pflag.NewFlagSet("relay", pflag.ExitOnError)
	configPath := flagSet.StringP("config", "c", "relay_config.txt", "path to the KEY=VALUE configuration file")
	flagSet.Parse(os.Args[1:])

	log.Println("starting telemetry relay")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	logs := logfile.Setup(logfile.Options{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer logs.Close()

	if err := app.RunRelay(cfg); err != nil {
		log.Printf("fatal: %v", err)
		logs.Close()
		os.Exit(1)
	}
	log.Println("relay: shutdown complete")
}
