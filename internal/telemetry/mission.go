// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"errors"
	"fmt"
)

var (
	// ErrNoWaypoints is returned for a completed transfer without a single
	// navigate-to-waypoint item.
	ErrNoWaypoints = errors.New("mission has no waypoints")
	// ErrUnresolvedSystem is returned when neither the transfer nor the
	// position snapshot identifies the vehicle.
	ErrUnresolvedSystem = errors.New("mission system id unknown")
)

// Phase of a mission transfer.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReceiving
)

func (p Phase) String() string {
	if p == PhaseReceiving {
		return "receiving"
	}
	return "idle"
}

// Transfer is one mission upload in progress. The zero value is idle.
//
// Received counts every item, waypoint or not, so a transfer whose
// announced count includes other commands completes on the item count.
type Transfer struct {
	Expected  int
	Received  int
	Waypoints []Waypoint // arrival order
	System    SystemID
}

func (t Transfer) Phase() Phase {
	if t.Expected > 0 {
		return PhaseReceiving
	}
	return PhaseIdle
}

// Step applies msg to t and returns the next transfer. When msg completes
// the transfer, the completed transfer is returned as done and next is
// idle. Step never mutates t.
func Step(t Transfer, msg Message, id SystemID) (next Transfer, done *Transfer, err error) {
	switch msg.Kind() {
	case KindMissionCount:
		count, ok := msg.Field(FieldCount)
		if !ok {
			return t, nil, fmt.Errorf("%s: no count: %w", msg.Kind(), ErrMalformed)
		}
		// The latest announcement wins; whatever was in flight is dropped.
		next = Transfer{System: id}
		if count > 0 {
			next.Expected = int(count)
		}
		return next, nil, nil

	case KindMissionItem:
		if t.Phase() == PhaseIdle {
			return t, nil, nil
		}
		next = t
		if IsWaypoint(msg) {
			if wp, ok := WaypointOf(msg); ok {
				next.Waypoints = append(t.Waypoints[:len(t.Waypoints):len(t.Waypoints)], wp)
			}
		}
		next.Received++
		if id.Known() {
			next.System = id
		}
		if next.Received == next.Expected {
			completed := next
			return Transfer{}, &completed, nil
		}
		return next, nil, nil
	}
	return t, nil, nil
}

// Artifact resolves the transfer's identity, falling back to the position
// snapshot's, and renders it.
func (t Transfer) Artifact(fallback SystemID) (MissionArtifact, error) {
	if len(t.Waypoints) == 0 {
		return MissionArtifact{}, ErrNoWaypoints
	}
	id, ok := t.System.Or(fallback).Get()
	if !ok {
		return MissionArtifact{}, ErrUnresolvedSystem
	}
	return NewMissionArtifact(t.Waypoints, id), nil
}

// Assembler holds the current transfer of a session.
type Assembler struct {
	current Transfer
}

// Handle feeds msg to the current transfer. It returns the completed
// transfer when msg was its last item.
func (a *Assembler) Handle(msg Message, id SystemID) (*Transfer, error) {
	next, done, err := Step(a.current, msg, id)
	if err != nil {
		return nil, err
	}
	a.current = next
	return done, nil
}

// Current returns a copy of the transfer in progress.
func (a *Assembler) Current() Transfer {
	t := a.current
	t.Waypoints = append([]Waypoint(nil), t.Waypoints...)
	return t
}

// Reset discards any transfer in progress.
func (a *Assembler) Reset() {
	a.current = Transfer{}
}
