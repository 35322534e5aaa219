// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package device reads line-oriented output from the serial-attached modem
// and GPS receiver.
package device

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultBaudRate is the rate both devices are opened at.
	DefaultBaudRate = 115200
	// DefaultReadTimeout bounds every read, and with it shutdown latency.
	DefaultReadTimeout = time.Second
	// DefaultPollInterval is the pause between batches.
	DefaultPollInterval = time.Second
	// DefaultPollCommand asks the modem for its signal quality. The GPS
	// receiver streams on its own and ignores it.
	DefaultPollCommand = "AT+CSQ\r\n"
)

// LineSink receives trimmed device lines. It must not block.
type LineSink interface {
	Push(line string)
}

// LineSource polls one serial device and forwards each decoded line.
type LineSource struct {
	Path        string
	BaudRate    int
	ReadTimeout time.Duration
	// PollCommand is written before each batch; empty means the device
	// streams without being asked.
	PollCommand string
	Interval    time.Duration
	Open        Opener
}

// NewLineSource returns a source for path with the default timing and poll
// command, opened through OpenSerial.
func NewLineSource(path string) *LineSource {
	return &LineSource{
		Path:        path,
		BaudRate:    DefaultBaudRate,
		ReadTimeout: DefaultReadTimeout,
		PollCommand: DefaultPollCommand,
		Interval:    DefaultPollInterval,
		Open:        OpenSerial,
	}
}

// Run opens the device and loops until ctx is cancelled: write the poll
// command, forward lines until a read times out empty, sleep, repeat.
//
// Failing to open the device is returned immediately and is not retried.
// Cancellation is observed between reads, so Run returns at most one read
// timeout after ctx is done. The port is always closed on return.
func (s *LineSource) Run(ctx context.Context, out LineSink) error {
	port, err := s.Open(s.Path, s.BaudRate, s.ReadTimeout)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("device: %s opened at %d baud", s.Path, s.BaudRate)

	lr := newLineReader(port)
	for {
		if s.PollCommand != "" {
			if _, err := port.Write([]byte(s.PollCommand)); err != nil {
				return fmt.Errorf("device %s: write poll command: %w", s.Path, err)
			}
		}

		for {
			if ctx.Err() != nil {
				log.Printf("device: %s stopping", s.Path)
				return nil
			}

			raw, err := lr.readLine()
			if err != nil {
				return fmt.Errorf("device %s: read: %w", s.Path, err)
			}
			if ctx.Err() != nil {
				// drop whatever arrived with the cancellation
				log.Printf("device: %s stopping", s.Path)
				return nil
			}
			if !utf8.Valid(raw) {
				continue
			}
			if len(raw) == 0 {
				break
			}
			out.Push(strings.TrimSpace(string(raw)))
		}

		if !sleepCtx(ctx, s.Interval) {
			log.Printf("device: %s stopping", s.Path)
			return nil
		}
	}
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
