// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package publish delivers position and mission artifacts to the outside
// world: the HTTP collector, an MQTT broker and the live view.
package publish

import (
	"context"
	"errors"

	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

// Publisher delivers one artifact. It must honour ctx.
type Publisher interface {
	PublishPosition(ctx context.Context, p telemetry.PositionArtifact) error
	PublishMission(ctx context.Context, m telemetry.MissionArtifact) error
}

// Fanout delivers every artifact to all of its publishers.
type Fanout []Publisher

func (f Fanout) PublishPosition(ctx context.Context, p telemetry.PositionArtifact) error {
	var errs []error
	for _, pub := range f {
		if err := pub.PublishPosition(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishMission(ctx context.Context, m telemetry.MissionArtifact) error {
	var errs []error
	for _, pub := range f {
		if err := pub.PublishMission(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
