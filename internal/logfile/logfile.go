// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package logfile mirrors the standard logger into a rotating file.
package logfile

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configure the rotating file.
type Options struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Writer returns the rotating file writer for opts, or nil when no path is
// set.
func Writer(opts Options) *lumberjack.Logger {
	if opts.Path == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB, // MB
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
}

// Setup sends the standard logger to stderr and, if configured, the file.
// The returned closer flushes and closes the file.
func Setup(opts Options) io.Closer {
	w := Writer(opts)
	if w == nil {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, w))
	log.Printf("logging to %s", opts.Path)
	return w
}
