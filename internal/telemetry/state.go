// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"strings"
	"time"

	"github.com/relabs-tech/trek/internal/gps"
	"github.com/relabs-tech/trek/internal/modem"
)

// DefaultStaleAfter is how long a position fix is shown before its
// coordinates are blanked.
const DefaultStaleAfter = 30 * time.Second

// Kind tags a device line by its content.
type Kind int

const (
	Unrecognized Kind = iota
	SignalLine
	PositionLine
)

func (k Kind) String() string {
	switch k {
	case SignalLine:
		return "signal"
	case PositionLine:
		return "position"
	default:
		return "unrecognized"
	}
}

// Classify tags line by prefix. Only signal and position lines are logged.
func Classify(line string) Kind {
	switch {
	case strings.HasPrefix(line, modem.ResponsePrefix):
		return SignalLine
	case strings.HasPrefix(line, gps.SentencePrefix):
		return PositionLine
	default:
		return Unrecognized
	}
}

// State is the latest-known telemetry. It is owned by a single goroutine;
// readers get copies through Snapshot.
type State struct {
	StaleAfter time.Duration

	signal   modem.Reading
	haveSig  bool
	fix      gps.Fix
	haveFix  bool
	fixStale bool
}

// NewState returns empty state using staleAfter for position fixes.
func NewState(staleAfter time.Duration) *State {
	return &State{StaleAfter: staleAfter}
}

// Apply folds one line into the state and reports whether any reading was
// replaced. Lines that look like telemetry but fail to parse leave the
// previous values untouched. Staleness is re-evaluated against now on every
// call.
func (s *State) Apply(line string, now time.Time) bool {
	updated := false

	if q, ok := modem.ParseCSQ(line); ok {
		s.signal = modem.NewReading(q, now)
		s.haveSig = true
		updated = true
	}

	if Classify(line) == PositionLine {
		if fix, ok := gps.ParseGGA(line, now); ok {
			s.fix = fix
			s.haveFix = true
			s.fixStale = false
			updated = true
		}
	}

	s.expire(now)
	return updated
}

// expire blanks the displayed coordinates once the fix is old. ObservedAt
// is kept so the age keeps growing until a new fix arrives.
func (s *State) expire(now time.Time) {
	if !s.haveFix || s.fixStale {
		return
	}
	if now.Sub(s.fix.ObservedAt) >= s.StaleAfter {
		s.fix.Latitude = ""
		s.fix.Longitude = ""
		s.fixStale = true
	}
}

// Snapshot copies the current state.
func (s *State) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{At: now, FixStale: s.fixStale}
	if s.haveSig {
		sig := s.signal
		snap.Signal = &sig
	}
	if s.haveFix {
		fix := s.fix
		if fix.Detail != nil {
			d := *fix.Detail
			fix.Detail = &d
		}
		snap.Fix = &fix
	}
	return snap
}

// Snapshot is an immutable view of State at one instant.
type Snapshot struct {
	At       time.Time      `json:"at"`
	Signal   *modem.Reading `json:"signal,omitempty"`
	Fix      *gps.Fix       `json:"fix,omitempty"`
	FixStale bool           `json:"fix_stale"`
}

// SinceFix returns the age of the last position fix, or false if there has
// been none.
func (s Snapshot) SinceFix() (time.Duration, bool) {
	if s.Fix == nil {
		return 0, false
	}
	return s.At.Sub(s.Fix.ObservedAt), true
}

// SinceSignal returns the age of the last signal reading, or false if there
// has been none.
func (s Snapshot) SinceSignal() (time.Duration, bool) {
	if s.Signal == nil {
		return 0, false
	}
	return s.At.Sub(s.Signal.ObservedAt), true
}
