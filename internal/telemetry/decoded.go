// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import "errors"

var errNoSource = errors.New("source system not reported")

// Decoded is a message flattened to named numeric fields by a link adapter.
type Decoded struct {
	MsgKind Kind
	Values  map[string]float64

	// Source is the id reported by the link for this message, if any.
	Source *uint8
	// Hdr is the framing header, if the link exposes one.
	Hdr *Header
}

func (d *Decoded) Kind() Kind { return d.MsgKind }

func (d *Decoded) Field(name string) (float64, bool) {
	v, ok := d.Values[name]
	return v, ok
}

func (d *Decoded) SourceSystem() (uint8, error) {
	if d.Source == nil {
		return 0, errNoSource
	}
	return *d.Source, nil
}

func (d *Decoded) Header() (Header, bool) {
	if d.Hdr == nil {
		return Header{}, false
	}
	return *d.Hdr, true
}
