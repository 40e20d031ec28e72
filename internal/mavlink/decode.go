// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mavlink

import (
	"github.com/bluenviron/gomavlib/v2/pkg/dialects/ardupilotmega"
	"github.com/bluenviron/gomavlib/v2/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v2/pkg/message"

	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

// Decode flattens the MAVLink messages the relay uses into named fields.
// ok is false for every other message.
//
// GLOBAL_POSITION_INT and MISSION_ITEM_INT keep their degE7/cdeg integers;
// HIGH_LATENCY2 is converted from its packed wire units to degrees, meters
// and m/s since the summary is consumed in final units.
func Decode(msg message.Message) (kind telemetry.Kind, fields map[string]float64, ok bool) {
	switch m := msg.(type) {
	case *common.MessageGlobalPositionInt:
		return telemetry.KindGlobalPosition, map[string]float64{
			telemetry.FieldLat:     float64(m.Lat),
			telemetry.FieldLon:     float64(m.Lon),
			telemetry.FieldHeading: float64(m.Hdg),
		}, true

	case *common.MessageVfrHud:
		return telemetry.KindFlightMetrics, map[string]float64{
			telemetry.FieldGroundSpeed: float64(m.Groundspeed),
			telemetry.FieldAirSpeed:    float64(m.Airspeed),
			telemetry.FieldAlt:         float64(m.Alt),
		}, true

	case *ardupilotmega.MessageWind:
		return telemetry.KindWind, map[string]float64{
			telemetry.FieldWindSpeed: float64(m.Speed),
		}, true

	case *common.MessageHighLatency2:
		return telemetry.KindHighLatency, map[string]float64{
			telemetry.FieldLatitude:    float64(m.Latitude) * 1e-7,
			telemetry.FieldLongitude:   float64(m.Longitude) * 1e-7,
			telemetry.FieldAltitude:    float64(m.Altitude),
			telemetry.FieldGroundSpeed: float64(m.Groundspeed) * 0.2, // m/s*5 on the wire
			telemetry.FieldAirSpeed:    float64(m.Airspeed) * 0.2,
			telemetry.FieldYaw:         float64(m.Heading) * 2, // deg/2 on the wire
		}, true

	case *common.MessageMissionCount:
		return telemetry.KindMissionCount, map[string]float64{
			telemetry.FieldCount: float64(m.Count),
		}, true

	case *common.MessageMissionItem:
		return telemetry.KindMissionItem, map[string]float64{
			telemetry.FieldCommand: float64(m.Command),
			telemetry.FieldX:       float64(m.X),
			telemetry.FieldY:       float64(m.Y),
		}, true

	case *common.MessageMissionItemInt:
		return telemetry.KindMissionItem, map[string]float64{
			telemetry.FieldCommand: float64(m.Command),
			telemetry.FieldParam5:  float64(m.X),
			telemetry.FieldParam6:  float64(m.Y),
		}, true
	}
	return telemetry.KindUnknown, nil, false
}
