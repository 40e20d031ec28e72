// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bluenviron/gomavlib/v2"
	"github.com/bluenviron/gomavlib/v2/pkg/dialects/ardupilotmega"
	"github.com/bluenviron/gomavlib/v2/pkg/message"

	"github.com/relabs-tech/telemetry_relay/internal/mavlink"
)

// MockVehicleOptions configure RunMockVehicle.
type MockVehicleOptions struct {
	Address       string // where the relay listens
	SystemID      uint8
	Interval      time.Duration
	MissionPeriod time.Duration
}

// RunMockVehicle sends simulated autopilot traffic to a relay over UDP
// until ctx is cancelled: telemetry every Interval and a full mission
// upload every MissionPeriod.
func RunMockVehicle(ctx context.Context, opts MockVehicleOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = 200 * time.Millisecond
	}
	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:   []gomavlib.EndpointConf{gomavlib.EndpointUDPClient{Address: opts.Address}},
		Dialect:     ardupilotmega.Dialect,
		OutVersion:  gomavlib.V2,
		OutSystemID: opts.SystemID,
	})
	if err != nil {
		return fmt.Errorf("mock vehicle: %w", err)
	}
	defer node.Close()
	log.Printf("mock: flying as system %d towards %s", opts.SystemID, opts.Address)

	flight := mavlink.DefaultFlight()
	start := time.Now()
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	send := func(msgs []message.Message) {
		for _, m := range msgs {
			node.WriteMessageAll(m)
		}
	}

	send(flight.MissionUpload())
	lastMission := start

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			send(flight.Telemetry(now.Sub(start)))
			if opts.MissionPeriod > 0 && now.Sub(lastMission) >= opts.MissionPeriod {
				log.Println("mock: uploading mission")
				send(flight.MissionUpload())
				lastMission = now
			}
		}
	}
}
