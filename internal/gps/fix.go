// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"math"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

const knotsToMPS = 0.514444

// Fix accumulates what the tracker has reported so far.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56"
	Date       string  `json:"date"`        // library format
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	AltitudeM  float64 `json:"alt_m"`       // from GGA
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void)
}

// Update folds one sentence into f and returns the telemetry messages it
// yields, tagged with hdr. RMC gives a position report followed by a
// ground-speed report; GGA gives altitude. Void fixes yield nothing.
func (f *Fix) Update(sentence nmea.Sentence, hdr telemetry.Header) []telemetry.Message {
	switch sentence.DataType() {
	case nmea.TypeRMC:
		m := sentence.(nmea.RMC)
		f.Time = m.Time.String()
		f.Date = m.Date.String()
		f.Validity = m.Validity
		if m.Validity != nmea.ValidRMC {
			return nil
		}
		f.Latitude = m.Latitude
		f.Longitude = m.Longitude
		f.SpeedKnots = m.Speed
		f.CourseDeg = m.Course

		return []telemetry.Message{
			decoded(telemetry.KindGlobalPosition, hdr, map[string]float64{
				telemetry.FieldLat:     math.Round(f.Latitude * 1e7),
				telemetry.FieldLon:     math.Round(f.Longitude * 1e7),
				telemetry.FieldHeading: math.Round(f.CourseDeg * 100),
			}),
			decoded(telemetry.KindFlightMetrics, hdr, map[string]float64{
				telemetry.FieldGroundSpeed: f.SpeedKnots * knotsToMPS,
			}),
		}

	case nmea.TypeGGA:
		m := sentence.(nmea.GGA)
		if m.FixQuality == nmea.Invalid {
			return nil
		}
		f.AltitudeM = m.Altitude
		return []telemetry.Message{
			decoded(telemetry.KindFlightMetrics, hdr, map[string]float64{
				telemetry.FieldAlt: f.AltitudeM,
			}),
		}
	}
	// GSA, GSV, VTG and friends carry nothing the relay reports
	return nil
}

func decoded(kind telemetry.Kind, hdr telemetry.Header, values map[string]float64) *telemetry.Decoded {
	h := hdr
	return &telemetry.Decoded{MsgKind: kind, Values: values, Hdr: &h}
}
