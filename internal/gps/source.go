// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gps turns a plain NMEA tracker into a vehicle link, for vehicles
// that report their position without MAVLink.
package gps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/telemetry_relay/internal/telemetry"
)

type readResult struct {
	line string
	err  error
}

// Source reads NMEA sentences from a tracker. The tracker has no system id
// of its own; every message carries the configured one in its header.
type Source struct {
	port    io.ReadCloser
	lines   chan readResult
	done    chan struct{}
	once    sync.Once
	hdr     telemetry.Header
	current Fix
	pending []telemetry.Message
}

// OpenSerial opens the tracker's serial port.
func OpenSerial(portName string, baudRate int, systemID uint8) (*Source, error) {
	serialOpts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("open NMEA serial %s: %w", portName, err)
	}
	log.Printf("gps: serial port opened on %s at %d baud", portName, baudRate)
	return NewSource(port, systemID), nil
}

// NewSource reads sentences from port until it fails or is closed.
func NewSource(port io.ReadCloser, systemID uint8) *Source {
	s := &Source{
		port:  port,
		lines: make(chan readResult),
		done:  make(chan struct{}),
		hdr:   telemetry.Header{SystemID: systemID},
	}
	go s.readLoop()
	return s
}

func (s *Source) readLoop() {
	reader := bufio.NewReader(s.port)
	for {
		line, err := reader.ReadString('\n')
		select {
		case s.lines <- readResult{line: line, err: err}:
		case <-s.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Next returns the next message derived from the tracker, or (nil, nil)
// after timeout without one.
func (s *Source) Next(ctx context.Context, timeout time.Duration) (telemetry.Message, error) {
	if msg := s.popPending(); msg != nil {
		return msg, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, nil
		case r := <-s.lines:
			if r.err != nil {
				return nil, fmt.Errorf("gps read error: %w", r.err)
			}
			s.handleLine(r.line)
			if msg := s.popPending(); msg != nil {
				return msg, nil
			}
		}
	}
}

func (s *Source) handleLine(line string) {
	line = strings.TrimSpace(line)
	// NMEA sentences start with '$'
	if !strings.HasPrefix(line, "$") {
		return
	}
	sentence, err := nmea.Parse(line)
	if err != nil {
		// partial sentences are normal right after the port opens
		return
	}
	s.pending = append(s.pending, s.current.Update(sentence, s.hdr)...)
}

func (s *Source) popPending() telemetry.Message {
	if len(s.pending) == 0 {
		return nil
	}
	msg := s.pending[0]
	s.pending = s.pending[1:]
	return msg
}

// Fix returns the latest accumulated fix.
func (s *Source) Fix() Fix {
	return s.current
}

func (s *Source) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.port.Close()
	})
	return err
}
