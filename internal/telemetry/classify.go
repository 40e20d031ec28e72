// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

// CmdNavWaypoint is MAV_CMD_NAV_WAYPOINT.
const CmdNavWaypoint = 16

// Classify returns the kind of msg and its best-effort origin.
func Classify(msg Message) (Kind, SystemID) {
	if msg == nil {
		return KindUnknown, UnknownSystem
	}
	return msg.Kind(), SystemOf(msg)
}

// SystemOf reads the originating system id: primary accessor first, then
// the header, otherwise UnknownSystem.
func SystemOf(msg Message) SystemID {
	if r, ok := msg.(SourceReporter); ok {
		if id, err := r.SourceSystem(); err == nil {
			return KnownSystem(id)
		}
	}
	if h, ok := msg.(HeaderCarrier); ok {
		if hdr, ok := h.Header(); ok {
			return KnownSystem(hdr.SystemID)
		}
	}
	return UnknownSystem
}

// IsWaypoint reports whether a mission item is a navigate-to-waypoint
// command. Items without a command field are not waypoints.
func IsWaypoint(msg Message) bool {
	cmd, ok := msg.Field(FieldCommand)
	return ok && cmd == CmdNavWaypoint
}

// WaypointOf extracts the item's coordinates. Planar x/y in degrees win
// over param5/param6 in degE7.
func WaypointOf(msg Message) (Waypoint, bool) {
	x, okX := msg.Field(FieldX)
	y, okY := msg.Field(FieldY)
	if okX && okY {
		return Waypoint{Lat: roundTo(x, 7), Lon: roundTo(y, 7)}, true
	}
	p5, ok5 := msg.Field(FieldParam5)
	p6, ok6 := msg.Field(FieldParam6)
	if ok5 && ok6 {
		return Waypoint{Lat: roundTo(p5*1e-7, 7), Lon: roundTo(p6*1e-7, 7)}, true
	}
	return Waypoint{}, false
}
