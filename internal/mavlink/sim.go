// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mavlink

import (
	"math"
	"time"

	"github.com/bluenviron/gomavlib/v2/pkg/dialects/ardupilotmega"
	"github.com/bluenviron/gomavlib/v2/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v2/pkg/message"

	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

const metersPerDegree = 111320.0

// Flight is a simulated vehicle flying circles around a center point. It
// stands in for a real autopilot when testing a relay setup.
type Flight struct {
	CenterLat float64 // degrees
	CenterLon float64 // degrees
	RadiusM   float64
	AltM      float64
	SpeedMS   float64
	WindMS    float64
	Waypoints []telemetry.Waypoint
}

// DefaultFlight circles a field at 120 m with a three leg mission.
func DefaultFlight() Flight {
	return Flight{
		CenterLat: 48.3841234,
		CenterLon: 2.2945123,
		RadiusM:   150,
		AltM:      120,
		SpeedMS:   15,
		WindMS:    4.5,
		Waypoints: []telemetry.Waypoint{
			{Lat: 48.3851234, Lon: 2.2945123},
			{Lat: 48.3841234, Lon: 2.2965123},
			{Lat: 48.3831234, Lon: 2.2945123},
		},
	}
}

// Telemetry returns what the vehicle reports after flying for elapsed.
func (f Flight) Telemetry(elapsed time.Duration) []message.Message {
	angle := 0.0
	if f.RadiusM > 0 {
		angle = f.SpeedMS * elapsed.Seconds() / f.RadiusM
	}
	north := f.RadiusM * math.Cos(angle)
	east := f.RadiusM * math.Sin(angle)
	lat := f.CenterLat + north/metersPerDegree
	lon := f.CenterLon + east/(metersPerDegree*math.Cos(f.CenterLat*math.Pi/180))

	// direction of travel along the circle
	heading := math.Atan2(math.Cos(angle), -math.Sin(angle)) * 180 / math.Pi
	if heading < 0 {
		heading += 360
	}

	return []message.Message{
		&common.MessageGlobalPositionInt{
			TimeBootMs:  uint32(elapsed.Milliseconds()),
			Lat:         int32(math.Round(lat * 1e7)),
			Lon:         int32(math.Round(lon * 1e7)),
			Alt:         int32(f.AltM * 1000),
			RelativeAlt: int32(f.AltM * 1000),
			Hdg:         uint16(math.Round(heading*100)) % 36000,
		},
		&common.MessageVfrHud{
			Airspeed:    float32(f.SpeedMS + f.WindMS),
			Groundspeed: float32(f.SpeedMS),
			Alt:         float32(f.AltM),
		},
		&ardupilotmega.MessageWind{
			Speed: float32(f.WindMS),
		},
	}
}

// MissionUpload returns the messages of a mission upload: the count, a
// takeoff item, then one MISSION_ITEM_INT per waypoint.
func (f Flight) MissionUpload() []message.Message {
	msgs := []message.Message{
		&common.MessageMissionCount{Count: uint16(len(f.Waypoints) + 1)},
		&common.MessageMissionItemInt{
			Seq:     0,
			Command: common.MAV_CMD_NAV_TAKEOFF,
			Z:       float32(f.AltM),
		},
	}
	for i, wp := range f.Waypoints {
		msgs = append(msgs, &common.MessageMissionItemInt{
			Seq:     uint16(i + 1),
			Command: common.MAV_CMD_NAV_WAYPOINT,
			X:       int32(math.Round(wp.Lat * 1e7)),
			Y:       int32(math.Round(wp.Lon * 1e7)),
			Z:       float32(f.AltM),
		})
	}
	return msgs
}
