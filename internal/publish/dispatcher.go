// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

const (
	DefaultQueueSize = 16
	DefaultTimeout   = 10 * time.Second
)

type job struct {
	position *telemetry.PositionArtifact
	mission  *telemetry.MissionArtifact
}

// Dispatcher decouples the ingest loop from slow delivery. Artifacts are
// queued by value and delivered in order by a single worker; when the queue
// is full the artifact is dropped.
type Dispatcher struct {
	pub     Publisher
	queue   chan job
	timeout time.Duration

	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

func NewDispatcher(pub Publisher, queueSize int, timeout time.Duration) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		pub:     pub,
		queue:   make(chan job, queueSize),
		timeout: timeout,
	}
}

// SendPosition queues p. It never blocks.
func (d *Dispatcher) SendPosition(p telemetry.PositionArtifact) {
	d.enqueue(job{position: &p}, "position")
}

// SendMission queues m. It never blocks.
func (d *Dispatcher) SendMission(m telemetry.MissionArtifact) {
	d.enqueue(job{mission: &m}, "mission")
}

func (d *Dispatcher) enqueue(j job, what string) {
	select {
	case d.queue <- j:
	default:
		d.dropped.Add(1)
		log.Printf("publish: queue full, dropping %s", what)
	}
}

// Run delivers queued artifacts until ctx is cancelled. Whatever is still
// queued at that point is abandoned.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-d.queue:
			d.deliver(ctx, j)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	switch {
	case j.position != nil:
		if err := d.pub.PublishPosition(ctx, *j.position); err != nil {
			d.failed.Add(1)
			log.Printf("publish: position failed: %v", err)
			return
		}
		log.Printf("publish: position OK - %s", j.position)
	case j.mission != nil:
		if err := d.pub.PublishMission(ctx, *j.mission); err != nil {
			d.failed.Add(1)
			log.Printf("publish: mission failed: %v", err)
			return
		}
		log.Printf("publish: mission OK - %s sysid=%d", j.mission.Waypoints, j.mission.SysID)
	}
	d.sent.Add(1)
}

// DeliveryStats are running counters of a dispatcher.
type DeliveryStats struct {
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
}

func (d *Dispatcher) Stats() DeliveryStats {
	return DeliveryStats{
		Sent:    d.sent.Load(),
		Failed:  d.failed.Load(),
		Dropped: d.dropped.Load(),
	}
}
