// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"context"
	"fmt"
	"log"
	"time"
)

// DefaultReconnectDelay is the pause between a link failure and the next
// attempt.
const DefaultReconnectDelay = 3 * time.Second

// Opener connects a fresh vehicle link.
type Opener func(ctx context.Context) (Source, error)

// Supervisor keeps a driver fed with a working link, reopening it after
// every failure until ctx is cancelled.
type Supervisor struct {
	Open   Opener
	Driver *Driver
	Delay  time.Duration
}

// Run returns nil once ctx is cancelled; link failures are never returned.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		log.Printf("relay: link error: %v", err)
		log.Printf("relay: retrying in %s", s.Delay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.Delay):
		}
	}
}

// runOnce drives one link until it fails. A mission half-received on a
// previous link is discarded; snapshot and gate carry over.
func (s *Supervisor) runOnce(ctx context.Context) error {
	src, err := s.Open(ctx)
	if err != nil {
		return fmt.Errorf("open link: %w", err)
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Printf("relay: link close error: %v", err)
		}
	}()

	s.Driver.state.Mission.Reset()
	return s.Driver.Run(ctx, src)
}
