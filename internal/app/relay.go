// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/telemetry_relay/internal/config"
	"github.com/relabs-tech/telemetry_relay/internal/gps"
	"github.com/relabs-tech/telemetry_relay/internal/mavlink"
	"github.com/relabs-tech/telemetry_relay/internal/publish"
	"github.com/relabs-tech/telemetry_relay/internal/session"
)

// Status is what /api/status reports.
type Status struct {
	Link     string                `json:"link"`
	Relay    session.Stats         `json:"relay"`
	Delivery publish.DeliveryStats `json:"delivery"`
}

// RunRelay relays telemetry from the configured vehicle link until SIGINT
// or SIGTERM.
func RunRelay(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Relay(ctx, cfg)
}

// Relay wires link, session and publishers together and runs them until ctx
// is cancelled or one of them fails.
func Relay(ctx context.Context, cfg *config.Config) error {
	var fanout publish.Fanout

	if cfg.PositionEndpoint != "" || cfg.MissionEndpoint != "" {
		fanout = append(fanout, publish.NewHTTPCollector(
			cfg.PositionEndpoint, cfg.MissionEndpoint, cfg.UserAgent, cfg.HTTPTimeout))
		log.Printf("relay: collector position=%q mission=%q", cfg.PositionEndpoint, cfg.MissionEndpoint)
	}

	if cfg.MQTTBroker != "" {
		client, err := publish.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		fanout = append(fanout, publish.NewMQTTSink(client, cfg.TopicPosition, cfg.TopicMission))
	}

	var (
		view       *LiveView
		driver     *session.Driver
		dispatcher *publish.Dispatcher
	)
	if cfg.WebServerPort != 0 {
		view = NewLiveView(func() any {
			return Status{Link: cfg.LinkType, Relay: driver.Stats(), Delivery: dispatcher.Stats()}
		})
		fanout = append(fanout, view)
	}

	dispatcher = publish.NewDispatcher(fanout, cfg.PublishQueueSize, cfg.PublishTimeout)
	state := session.NewState(cfg.MinPublishInterval, nil)
	driver = session.NewDriver(state, dispatcher, cfg.ReceiveTimeout)

	open, err := Opener(cfg)
	if err != nil {
		return err
	}
	supervisor := &session.Supervisor{
		Open:   open,
		Driver: driver,
		Delay:  cfg.ReconnectDelay,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(ctx) })
	g.Go(func() error { return supervisor.Run(ctx) })
	if view != nil {
		g.Go(func() error { return ServeWeb(ctx, cfg.WebServerPort, view) })
	}

	log.Printf("relay: running on %s link", cfg.LinkType)
	err = g.Wait()

	st := driver.Stats()
	log.Printf("relay: stopped after %d messages (%d ignored), %d positions, %d missions (%d dropped)",
		st.Received, st.Ignored, st.Positions, st.Missions, st.Dropped)
	return err
}

// Opener returns the link factory for cfg.LinkType.
func Opener(cfg *config.Config) (session.Opener, error) {
	switch cfg.LinkType {
	case mavlink.TypeUDP, mavlink.TypeUDPClient, mavlink.TypeTCP, mavlink.TypeSerial:
		lc := mavlink.Config{
			Type:        cfg.LinkType,
			Address:     cfg.LinkAddress,
			SerialPort:  cfg.SerialPort,
			BaudRate:    cfg.SerialBaudRate,
			OutSystemID: cfg.OutSystemID,
		}
		return func(context.Context) (session.Source, error) {
			link, err := mavlink.Open(lc)
			if err != nil {
				return nil, err
			}
			return link, nil
		}, nil

	case "nmea":
		return func(context.Context) (session.Source, error) {
			src, err := gps.OpenSerial(cfg.SerialPort, cfg.SerialBaudRate, cfg.NMEASystemID)
			if err != nil {
				return nil, err
			}
			return src, nil
		}, nil
	}
	return nil, fmt.Errorf("unsupported LINK_TYPE %q", cfg.LinkType)
}
