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
)

func main() {
	flagSet := pflag.NewFlagSet("console_mqtt", pflag.ExitOnError)
	configPath := flagSet.StringP("config", "c", "relay_config.txt", "path to the KEY=VALUE configuration file")
	flagSet.Parse(os.Args[1:])

	log.Println("starting telemetry relay console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(config.Get()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
