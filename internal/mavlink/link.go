// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mavlink connects to a vehicle (or a ground station forwarding its
// traffic) and yields decoded telemetry messages.
package mavlink

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bluenviron/gomavlib/v2"
	"github.com/bluenviron/gomavlib/v2/pkg/dialects/ardupilotmega"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

// Link types.
const (
	TypeUDP       = "udp"       // listen, e.g. QGroundControl forwarding
	TypeUDPClient = "udpclient" // send to a vehicle
	TypeTCP       = "tcp"
	TypeSerial    = "serial"
)

// DefaultAddress is where QGroundControl's MAVLink forwarding lands.
const DefaultAddress = "127.0.0.1:56781"

// GroundStationSystemID is the id the relay uses for anything it sends.
const GroundStationSystemID = 255

var errLinkClosed = errors.New("mavlink link closed")

// Config selects and parameterises the link.
type Config struct {
	Type        string
	Address     string // udp, udpclient, tcp
	SerialPort  string
	BaudRate    int
	OutSystemID uint8
}

// Link is an open MAVLink connection.
type Link struct {
	node *gomavlib.Node
	// serial links cannot be reopened by the node itself
	closeIsFatal bool
	describe     string
}

// Open connects according to cfg.
func Open(cfg Config) (*Link, error) {
	endpoint, describe, err := endpointFor(cfg)
	if err != nil {
		return nil, err
	}

	outID := cfg.OutSystemID
	if outID == 0 {
		outID = GroundStationSystemID
	}

	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:        []gomavlib.EndpointConf{endpoint},
		Dialect:          ardupilotmega.Dialect,
		OutVersion:       gomavlib.V2,
		OutSystemID:      outID,
		HeartbeatDisable: true,
	})
	if err != nil {
		if custom, ok := endpoint.(gomavlib.EndpointCustom); ok {
			custom.ReadWriteCloser.Close()
		}
		return nil, fmt.Errorf("mavlink %s: %w", describe, err)
	}
	log.Printf("mavlink: listening on %s", describe)

	return &Link{
		node:         node,
		closeIsFatal: cfg.Type == TypeSerial,
		describe:     describe,
	}, nil
}

func endpointFor(cfg Config) (gomavlib.EndpointConf, string, error) {
	addr := cfg.Address
	if addr == "" {
		addr = DefaultAddress
	}

	switch cfg.Type {
	case TypeUDP, "":
		return gomavlib.EndpointUDPServer{Address: addr}, "udp:" + addr, nil
	case TypeUDPClient:
		return gomavlib.EndpointUDPClient{Address: addr}, "udpclient:" + addr, nil
	case TypeTCP:
		return gomavlib.EndpointTCPClient{Address: addr}, "tcp:" + addr, nil
	case TypeSerial:
		port, err := serial.Open(serial.OpenOptions{
			PortName:              cfg.SerialPort,
			BaudRate:              uint(cfg.BaudRate),
			DataBits:              8,
			StopBits:              1,
			MinimumReadSize:       1,
			ParityMode:            serial.PARITY_NONE,
			InterCharacterTimeout: 0,
		})
		if err != nil {
			return nil, "", fmt.Errorf("open serial %s: %w", cfg.SerialPort, err)
		}
		return gomavlib.EndpointCustom{ReadWriteCloser: port},
			fmt.Sprintf("serial:%s@%d", cfg.SerialPort, cfg.BaudRate), nil
	}
	return nil, "", fmt.Errorf("unknown link type %q", cfg.Type)
}

// Next returns the next decoded message, or (nil, nil) when none arrived
// within timeout. Frames the relay does not use are skipped.
func (l *Link) Next(ctx context.Context, timeout time.Duration) (telemetry.Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timer.C:
			return nil, nil

		case evt, ok := <-l.node.Events():
			if !ok {
				return nil, errLinkClosed
			}
			switch e := evt.(type) {
			case *gomavlib.EventFrame:
				if msg := wrap(e); msg != nil {
					return msg, nil
				}
			case *gomavlib.EventChannelOpen:
				log.Printf("mavlink: channel open: %v", e.Channel)
			case *gomavlib.EventChannelClose:
				log.Printf("mavlink: channel closed: %v", e.Channel)
				if l.closeIsFatal {
					return nil, fmt.Errorf("%s: %w", l.describe, errLinkClosed)
				}
			case *gomavlib.EventParseError:
				// corrupted or foreign-dialect frames are common on radio links
			}
		}
	}
}

// Close releases the node and its endpoints.
func (l *Link) Close() error {
	l.node.Close()
	return nil
}

func wrap(e *gomavlib.EventFrame) *telemetry.Decoded {
	kind, fields, ok := Decode(e.Message())
	if !ok {
		return nil
	}
	src := e.SystemID()
	return &telemetry.Decoded{
		MsgKind: kind,
		Values:  fields,
		Source:  &src,
		Hdr: &telemetry.Header{
			SystemID:    e.Frame.GetSystemID(),
			ComponentID: e.Frame.GetComponentID(),
			Sequence:    e.Frame.GetSequenceID(),
		},
	}
}
