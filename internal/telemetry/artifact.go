// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// PositionArtifact is the periodic position report sent to the collector.
// Fields never observed are rendered as null.
type PositionArtifact struct {
	Timestamp   *int64   `json:"timestamp"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
	Yaw         *float64 `json:"yaw"`
	Alt         *float64 `json:"alt"`
	GroundSpeed *float64 `json:"groundspeed"`
	AirSpeed    *float64 `json:"airspeed"`
	WindSpeed   *float64 `json:"windspeed"`
	SysID       *int     `json:"sysid"`
}

func (p PositionArtifact) String() string {
	return fmt.Sprintf("timestamp=%s lat=%s lon=%s yaw=%s alt=%s groundspeed=%s airspeed=%s windspeed=%s sysid=%s",
		fmtOpt(p.Timestamp), fmtOpt(p.Lat), fmtOpt(p.Lon), fmtOpt(p.Yaw), fmtOpt(p.Alt),
		fmtOpt(p.GroundSpeed), fmtOpt(p.AirSpeed), fmtOpt(p.WindSpeed), fmtOpt(p.SysID))
}

// Waypoint is one navigate-to-waypoint mission item, degrees.
type Waypoint struct {
	Lat float64
	Lon float64
}

// MissionArtifact is a completed mission upload.
type MissionArtifact struct {
	Waypoints string `json:"waypoints"`
	SysID     int    `json:"sysid"`
}

// NewMissionArtifact renders waypoints as "WP1: lat,lon WP2: lat,lon ...".
func NewMissionArtifact(wps []Waypoint, sysID uint8) MissionArtifact {
	parts := make([]string, len(wps))
	for i, wp := range wps {
		parts[i] = fmt.Sprintf("WP%d: %s,%s", i+1, formatFloat(wp.Lat), formatFloat(wp.Lon))
	}
	return MissionArtifact{
		Waypoints: strings.Join(parts, " "),
		SysID:     int(sysID),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtOpt[T int | int64 | float64](p *T) string {
	if p == nil {
		return "null"
	}
	switch v := any(*p).(type) {
	case float64:
		return formatFloat(v)
	default:
		return fmt.Sprint(v)
	}
}
