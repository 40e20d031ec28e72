// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"errors"
	"strconv"
)

// ErrMalformed marks a message that could not be applied because a field
// required by its kind was absent. The message is skipped, nothing else.
var ErrMalformed = errors.New("malformed message")

// Kind is the decoded message kind the relay cares about.
type Kind int

const (
	KindUnknown Kind = iota
	KindGlobalPosition
	KindFlightMetrics
	KindWind
	KindHighLatency
	KindMissionCount
	KindMissionItem
)

func (k Kind) String() string {
	switch k {
	case KindGlobalPosition:
		return "global_position"
	case KindFlightMetrics:
		return "flight_metrics"
	case KindWind:
		return "wind"
	case KindHighLatency:
		return "high_latency"
	case KindMissionCount:
		return "mission_count"
	case KindMissionItem:
		return "mission_item"
	default:
		return "unknown"
	}
}

// Field names exposed by decoded messages.
const (
	// global position, fixed-point: lat/lon in degE7, hdg in cdeg
	FieldLat     = "lat"
	FieldLon     = "lon"
	FieldHeading = "hdg"

	// flight metrics
	FieldGroundSpeed = "groundspeed"
	FieldAirSpeed    = "airspeed"
	FieldAlt         = "alt"

	// wind
	FieldWindSpeed = "speed"

	// high latency summary, final units
	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
	FieldAltitude  = "altitude"
	FieldYaw       = "heading"

	// mission
	FieldCount   = "count"
	FieldCommand = "command"
	FieldX       = "x"
	FieldY       = "y"
	FieldParam5  = "param5"
	FieldParam6  = "param6"
)

// Message is one decoded message from the vehicle link.
type Message interface {
	Kind() Kind
	// Field returns a named numeric field; ok is false when the message
	// does not carry it.
	Field(name string) (value float64, ok bool)
}

// SourceReporter is the primary identity accessor a message may offer.
type SourceReporter interface {
	SourceSystem() (uint8, error)
}

// Header is the link-level framing information of a message.
type Header struct {
	SystemID    uint8
	ComponentID uint8
	Sequence    uint8
}

// HeaderCarrier is the fallback identity path.
type HeaderCarrier interface {
	Header() (Header, bool)
}

// SystemID is an optional vehicle system id. The zero value is unknown.
type SystemID struct {
	id    uint8
	known bool
}

// UnknownSystem is the identity of a message whose origin could not be read.
var UnknownSystem = SystemID{}

// KnownSystem wraps a concrete system id.
func KnownSystem(id uint8) SystemID {
	return SystemID{id: id, known: true}
}

func (s SystemID) Known() bool { return s.known }

// Get returns the id and whether it is known.
func (s SystemID) Get() (uint8, bool) { return s.id, s.known }

// Matches reports whether both ids are known and identical. Unknown never
// matches anything, including another unknown.
func (s SystemID) Matches(other SystemID) bool {
	return s.known && other.known && s.id == other.id
}

// Or returns s when known, otherwise fallback.
func (s SystemID) Or(fallback SystemID) SystemID {
	if s.known {
		return s
	}
	return fallback
}

func (s SystemID) String() string {
	if !s.known {
		return "unknown"
	}
	return strconv.Itoa(int(s.id))
}

// Ptr returns the id as *int for JSON rendering, nil when unknown.
func (s SystemID) Ptr() *int {
	if !s.known {
		return nil
	}
	v := int(s.id)
	return &v
}
