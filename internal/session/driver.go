// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package session runs the ingest loop: it pulls decoded messages from a
// vehicle link, folds them into the session state and hands finished
// artifacts to a sink.
package session

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

// Source is a vehicle link. Next blocks for at most timeout and returns
// (nil, nil) when nothing arrived; any error means the link is broken.
type Source interface {
	Next(ctx context.Context, timeout time.Duration) (telemetry.Message, error)
	Close() error
}

// Sink receives finished artifacts. Implementations must not block.
type Sink interface {
	SendPosition(telemetry.PositionArtifact)
	SendMission(telemetry.MissionArtifact)
}

// State is everything the relay knows about the current vehicle. It is
// owned by exactly one driver at a time.
type State struct {
	Snapshot telemetry.Snapshot
	Mission  telemetry.Assembler
	Gate     *telemetry.Gate
	Now      func() time.Time
}

// NewState returns an empty state. A nil clock uses time.Now for both the
// wall-clock timestamps and the gate.
func NewState(minInterval time.Duration, clock func() time.Time) *State {
	if clock == nil {
		clock = time.Now
	}
	return &State{
		Gate: telemetry.NewGate(minInterval, clock),
		Now:  clock,
	}
}

// Stats are running counters of a driver.
type Stats struct {
	Received  int64 `json:"received"`
	Ignored   int64 `json:"ignored"`
	Positions int64 `json:"positions"`
	Missions  int64 `json:"missions"`
	Dropped   int64 `json:"missions_dropped"`
}

// Driver routes messages through the mission assembler and the snapshot.
type Driver struct {
	state   *State
	sink    Sink
	timeout time.Duration

	received  atomic.Int64
	ignored   atomic.Int64
	positions atomic.Int64
	missions  atomic.Int64
	dropped   atomic.Int64
}

func NewDriver(state *State, sink Sink, timeout time.Duration) *Driver {
	return &Driver{state: state, sink: sink, timeout: timeout}
}

// Stats returns a copy of the counters. Safe to call from any goroutine.
func (d *Driver) Stats() Stats {
	return Stats{
		Received:  d.received.Load(),
		Ignored:   d.ignored.Load(),
		Positions: d.positions.Load(),
		Missions:  d.missions.Load(),
		Dropped:   d.dropped.Load(),
	}
}

// Run reads src until ctx is done or the link fails.
func (d *Driver) Run(ctx context.Context, src Source) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := src.Next(ctx, d.timeout)
		if err != nil {
			return err
		}
		if msg == nil {
			continue
		}
		d.Process(msg)
	}
}

// Process handles one message. Mission bookkeeping runs first so every item
// is counted; a malformed message is dropped without touching the gate.
func (d *Driver) Process(msg telemetry.Message) {
	d.received.Add(1)
	st := d.state
	_, id := telemetry.Classify(msg)

	done, err := st.Mission.Handle(msg, id)
	if err != nil {
		d.ignore(err)
		return
	}
	if done != nil {
		d.finishMission(done)
	}

	if err := st.Snapshot.Apply(msg, id, st.Now()); err != nil {
		d.ignore(err)
		return
	}

	if st.Gate.Allow(&st.Snapshot) {
		d.positions.Add(1)
		d.sink.SendPosition(st.Snapshot.Artifact())
	}
}

func (d *Driver) finishMission(t *telemetry.Transfer) {
	art, err := t.Artifact(d.state.Snapshot.System)
	switch {
	case errors.Is(err, telemetry.ErrNoWaypoints):
		d.dropped.Add(1)
	case err != nil:
		d.dropped.Add(1)
		log.Printf("relay: cannot send mission (%d items): %v", t.Received, err)
	default:
		d.missions.Add(1)
		log.Printf("relay: mission complete, %d waypoints from sysid %d", len(t.Waypoints), art.SysID)
		d.sink.SendMission(art)
	}
}

func (d *Driver) ignore(err error) {
	d.ignored.Add(1)
	log.Printf("relay: message ignored: %v", err)
}
