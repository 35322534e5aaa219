// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry turns the stream of device lines into the latest signal
// and position readings.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"
)

// LineSource yields device lines, blocking until one is available.
type LineSource interface {
	Pop(ctx context.Context) (string, error)
}

// Sink receives a snapshot after every processed line. Observe runs on the
// aggregator goroutine and must not block.
type Sink interface {
	Observe(Snapshot)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Snapshot)

// Observe calls f(s).
func (f SinkFunc) Observe(s Snapshot) { f(s) }

// Aggregator is the single consumer of device lines.
type Aggregator struct {
	Lines LineSource
	// Log receives "<unix seconds> <line>\n" for every signal and position
	// line, whether or not it parsed. One Write per entry.
	Log   io.Writer
	Sinks []Sink
	Now   func() time.Time

	state *State
}

// NewAggregator returns an aggregator reading from lines and logging to w.
func NewAggregator(lines LineSource, w io.Writer, staleAfter time.Duration, sinks ...Sink) *Aggregator {
	return &Aggregator{
		Lines: lines,
		Log:   w,
		Sinks: sinks,
		Now:   time.Now,
		state: NewState(staleAfter),
	}
}

// Run consumes lines until ctx is cancelled. Parse failures never stop it;
// a failed log write does.
func (a *Aggregator) Run(ctx context.Context) error {
	log.Printf("telemetry: aggregator started")
	for {
		line, err := a.Lines.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Printf("telemetry: aggregator stopping")
				return nil
			}
			return fmt.Errorf("telemetry: next line: %w", err)
		}
		if _, err := a.Handle(line); err != nil {
			return err
		}
	}
}

// Handle processes one line: log it if it is telemetry, fold it into state,
// then hand the resulting snapshot to every sink.
func (a *Aggregator) Handle(line string) (Snapshot, error) {
	if a.state == nil {
		a.state = NewState(DefaultStaleAfter)
	}
	now := a.Now()

	if Classify(line) != Unrecognized && a.Log != nil {
		if _, err := fmt.Fprintf(a.Log, "%d %s\n", now.Unix(), line); err != nil {
			return Snapshot{}, fmt.Errorf("telemetry: append log: %w", err)
		}
	}

	a.state.Apply(line, now)
	snap := a.state.Snapshot(now)
	for _, s := range a.Sinks {
		s.Observe(snap)
	}
	return snap, nil
}
