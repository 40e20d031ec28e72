// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"fmt"
	"math"
	"time"
)

// Snapshot is the best-known position/attitude/speed record of the
// current vehicle. Nil fields have never been observed.
type Snapshot struct {
	Lat         *float64 // degrees, 7 decimals
	Lon         *float64
	Yaw         *float64 // degrees, 2 decimals
	Alt         *float64 // meters, 2 decimals
	GroundSpeed *float64 // m/s, 2 decimals
	AirSpeed    *float64
	WindSpeed   *float64

	System     SystemID
	ObservedAt *int64 // epoch seconds of the last position update
}

// Ready reports whether the snapshot carries a position and an identity.
func (s *Snapshot) Ready() bool {
	return s.Lat != nil && s.System.Known()
}

// Apply folds one message into the snapshot. Kinds that carry no position
// data are a no-op. A message of a position kind that carries none of its
// fields returns ErrMalformed and changes nothing; a partially populated one
// updates what it has.
func (s *Snapshot) Apply(msg Message, id SystemID, now time.Time) error {
	switch msg.Kind() {
	case KindGlobalPosition:
		return s.applyGlobalPosition(msg, id, now)
	case KindFlightMetrics:
		return s.applyFlightMetrics(msg, id)
	case KindWind:
		return s.applyWind(msg, id)
	case KindHighLatency:
		return s.applyHighLatency(msg, id, now)
	}
	return nil
}

// identityAllows is the gate for secondary kinds: no identity yet, or the
// message comes from the established one.
func (s *Snapshot) identityAllows(id SystemID) bool {
	return !s.System.Known() || s.System.Matches(id)
}

func (s *Snapshot) applyGlobalPosition(msg Message, id SystemID, now time.Time) error {
	lat, okLat := msg.Field(FieldLat)
	lon, okLon := msg.Field(FieldLon)
	hdg, okHdg := msg.Field(FieldHeading)
	if !okLat && !okLon && !okHdg {
		return fmt.Errorf("%s: no lat/lon/hdg: %w", msg.Kind(), ErrMalformed)
	}
	if okLat {
		s.Lat = ptr(roundTo(lat*1e-7, 7))
	}
	if okLon {
		s.Lon = ptr(roundTo(lon*1e-7, 7))
	}
	if okHdg {
		s.Yaw = ptr(roundTo(hdg*0.01, 2))
	}
	s.ObservedAt = ptr(now.Unix())
	if id.Known() {
		s.System = id
	}
	return nil
}

func (s *Snapshot) applyFlightMetrics(msg Message, id SystemID) error {
	gs, okGS := msg.Field(FieldGroundSpeed)
	as, okAS := msg.Field(FieldAirSpeed)
	alt, okAlt := msg.Field(FieldAlt)
	if !okGS && !okAS && !okAlt {
		return fmt.Errorf("%s: no speeds/alt: %w", msg.Kind(), ErrMalformed)
	}
	if !s.identityAllows(id) {
		return nil
	}
	if okGS {
		s.GroundSpeed = ptr(roundTo(gs, 2))
	}
	if okAS {
		s.AirSpeed = ptr(roundTo(as, 2))
	}
	if okAlt {
		s.Alt = ptr(roundTo(alt, 2))
	}
	return nil
}

func (s *Snapshot) applyWind(msg Message, id SystemID) error {
	speed, ok := msg.Field(FieldWindSpeed)
	if !ok {
		return fmt.Errorf("%s: no speed: %w", msg.Kind(), ErrMalformed)
	}
	if s.identityAllows(id) {
		s.WindSpeed = ptr(roundTo(speed, 2))
	}
	return nil
}

// applyHighLatency bypasses the identity gate: the summary is a complete
// snapshot that supersedes whatever the current vehicle last reported.
func (s *Snapshot) applyHighLatency(msg Message, id SystemID, now time.Time) error {
	fields := []struct {
		name   string
		dst    **float64
		digits int
	}{
		{FieldLatitude, &s.Lat, 7},
		{FieldLongitude, &s.Lon, 7},
		{FieldAltitude, &s.Alt, 2},
		{FieldGroundSpeed, &s.GroundSpeed, 2},
		{FieldAirSpeed, &s.AirSpeed, 2},
		{FieldYaw, &s.Yaw, 2},
	}
	applied := 0
	for _, f := range fields {
		if v, ok := msg.Field(f.name); ok {
			*f.dst = ptr(roundTo(v, f.digits))
			applied++
		}
	}
	if applied == 0 {
		return fmt.Errorf("%s: no summary fields: %w", msg.Kind(), ErrMalformed)
	}
	if id.Known() {
		s.System = id
	}
	s.ObservedAt = ptr(now.Unix())
	return nil
}

// Artifact renders the current state as a position artifact. The result
// shares nothing with s.
func (s *Snapshot) Artifact() PositionArtifact {
	return PositionArtifact{
		Timestamp:   clonePtr(s.ObservedAt),
		Lat:         clonePtr(s.Lat),
		Lon:         clonePtr(s.Lon),
		Yaw:         clonePtr(s.Yaw),
		Alt:         clonePtr(s.Alt),
		GroundSpeed: clonePtr(s.GroundSpeed),
		AirSpeed:    clonePtr(s.AirSpeed),
		WindSpeed:   clonePtr(s.WindSpeed),
		SysID:       s.System.Ptr(),
	}
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(v*p) / p
}

func ptr[T any](v T) *T { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
