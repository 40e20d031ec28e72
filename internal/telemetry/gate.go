// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import "time"

// DefaultMinInterval is the minimum spacing between two position reports.
const DefaultMinInterval = 2 * time.Second

// Gate rate-limits position reports.
type Gate struct {
	interval time.Duration
	now      func() time.Time
	lastSend time.Time
}

// NewGate returns a gate with the given minimum interval. A nil clock uses
// time.Now, whose monotonic reading makes the comparison immune to wall
// clock jumps.
func NewGate(interval time.Duration, clock func() time.Time) *Gate {
	if clock == nil {
		clock = time.Now
	}
	return &Gate{interval: interval, now: clock}
}

// Allow reports whether snap may be published now. On true the send time is
// stamped before returning, so a slow or failed publish still uses up the
// interval.
func (g *Gate) Allow(snap *Snapshot) bool {
	if !snap.Ready() {
		return false
	}
	now := g.now()
	if !g.lastSend.IsZero() && now.Sub(g.lastSend) < g.interval {
		return false
	}
	g.lastSend = now
	return true
}
