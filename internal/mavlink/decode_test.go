// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mavlink

import (
	"testing"
	"time"

	"github.com/bluenviron/gomavlib/v2/pkg/dialects/ardupilotmega"
	"github.com/bluenviron/gomavlib/v2/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v2/pkg/message"

	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		msg  message.Message
		kind telemetry.Kind
		want map[string]float64
	}{
		{
			name: "global position keeps fixed point",
			msg:  &common.MessageGlobalPositionInt{Lat: 483841234, Lon: 22945123, Hdg: 27015},
			kind: telemetry.KindGlobalPosition,
			want: map[string]float64{"lat": 483841234, "lon": 22945123, "hdg": 27015},
		},
		{
			name: "vfr hud",
			msg:  &common.MessageVfrHud{Groundspeed: 12.5, Airspeed: 14, Alt: 120.25},
			kind: telemetry.KindFlightMetrics,
			want: map[string]float64{"groundspeed": 12.5, "airspeed": 14, "alt": 120.25},
		},
		{
			name: "wind",
			msg:  &ardupilotmega.MessageWind{Speed: 3.5},
			kind: telemetry.KindWind,
			want: map[string]float64{"speed": 3.5},
		},
		{
			name: "high latency unpacks wire units",
			msg:  &common.MessageHighLatency2{Altitude: 150, Groundspeed: 50, Airspeed: 60, Heading: 90},
			kind: telemetry.KindHighLatency,
			want: map[string]float64{"altitude": 150, "groundspeed": 10, "airspeed": 12, "heading": 180},
		},
		{
			name: "mission count",
			msg:  &common.MessageMissionCount{Count: 7},
			kind: telemetry.KindMissionCount,
			want: map[string]float64{"count": 7},
		},
		{
			name: "mission item planar",
			msg:  &common.MessageMissionItem{Command: common.MAV_CMD_NAV_WAYPOINT, X: 48.5, Y: 2.25},
			kind: telemetry.KindMissionItem,
			want: map[string]float64{"command": 16, "x": 48.5, "y": 2.25},
		},
		{
			name: "mission item int as param5/param6",
			msg:  &common.MessageMissionItemInt{Command: common.MAV_CMD_NAV_WAYPOINT, X: 483841234, Y: 22945123},
			kind: telemetry.KindMissionItem,
			want: map[string]float64{"command": 16, "param5": 483841234, "param6": 22945123},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, fields, ok := Decode(tt.msg)
			if !ok {
				t.Fatal("Decode rejected a supported message")
			}
			if kind != tt.kind {
				t.Errorf("kind = %s, want %s", kind, tt.kind)
			}
			for k, v := range tt.want {
				if fields[k] != v {
					t.Errorf("%s = %v, want %v", k, fields[k], v)
				}
			}
		})
	}
}

func TestDecodeIgnoresOtherMessages(t *testing.T) {
	if _, _, ok := Decode(&common.MessageHeartbeat{}); ok {
		t.Error("heartbeat should not be decoded")
	}
}

func TestDecodedMissionItemIntIsWaypoint(t *testing.T) {
	kind, fields, _ := Decode(&common.MessageMissionItemInt{Command: common.MAV_CMD_NAV_WAYPOINT, X: 483841234, Y: 22945123})
	msg := &telemetry.Decoded{MsgKind: kind, Values: fields}
	if !telemetry.IsWaypoint(msg) {
		t.Fatal("MISSION_ITEM_INT waypoint not recognised")
	}
	wp, ok := telemetry.WaypointOf(msg)
	if !ok || wp.Lat != 48.3841234 || wp.Lon != 2.2945123 {
		t.Errorf("waypoint = %+v", wp)
	}
}

func TestEndpointForRejectsUnknownType(t *testing.T) {
	if _, _, err := endpointFor(Config{Type: "carrier-pigeon"}); err == nil {
		t.Error("expected an error for an unknown link type")
	}
	_, describe, err := endpointFor(Config{Type: TypeUDP})
	if err != nil || describe != "udp:"+DefaultAddress {
		t.Errorf("default udp endpoint = %q, %v", describe, err)
	}
}

func TestLinkTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("opens a UDP socket")
	}
	l, err := Open(Config{Type: TypeUDP, Address: "127.0.0.1:0"})
	if err != nil {
		t.Skipf("cannot open udp link: %v", err)
	}
	defer l.Close()

	msg, err := l.Next(t.Context(), 50*time.Millisecond)
	if err != nil || msg != nil {
		t.Errorf("Next on a silent link = %v, %v; want nil, nil", msg, err)
	}
}
