// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/relabs-tech/telemetry_relay/internal/app"
	"github.com/relabs-tech/telemetry_relay/internal/mavlink"
)

func main() {
	flagSet := pflag.NewFlagSet("mock_vehicle", pflag.ExitOnError)
	address := flagSet.String("address", mavlink.DefaultAddress, "relay UDP address")
	sysID := flagSet.Uint8("sysid", 1, "system id of the simulated vehicle")
	interval := flagSet.Duration("interval", 200*time.Millisecond, "telemetry period")
	missionPeriod := flagSet.Duration("mission-period", 30*time.Second, "mission upload period, 0 uploads once")
	flagSet.Parse(os.Args[1:])

	log.Println("starting telemetry relay MAVLink producer (mock)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.RunMockVehicle(ctx, app.MockVehicleOptions{
		Address:       *address,
		SystemID:      *sysID,
		Interval:      *interval,
		MissionPeriod: *missionPeriod,
	})
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
