// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package dashboard draws the terminal view of the latest telemetry.
package dashboard

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/trek/internal/telemetry"
)

// ClearScreen moves the cursor home and clears the terminal so each frame
// overwrites the last one.
const ClearScreen = "\033[H\033[2J"

// Render returns the dashboard frame for snap. It has no side effects.
func Render(snap telemetry.Snapshot, logPath string) string {
	var gpsTime, lat, lon string
	if snap.Fix != nil {
		gpsTime = snap.Fix.Time
		lat = snap.Fix.Latitude
		lon = snap.Fix.Longitude
	}

	csq := NoSignalBar()
	if snap.Signal != nil {
		csq = Bar(snap.Signal.Quality)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "GPS Time: %s\n", gpsTime)
	fmt.Fprintf(&b, "GPS Lat: %s\n", lat)
	fmt.Fprintf(&b, "GPS Lon: %s\n", lon)
	fmt.Fprintf(&b, "CSQ: %s\n", csq)
	fmt.Fprintf(&b, "Log: %s\n", logPath)
	fmt.Fprintf(&b, "Since GPS fix: %s\n", age(snap.SinceFix()))
	fmt.Fprintf(&b, "Since CSQ: %s\n", age(snap.SinceSignal()))
	return b.String()
}

func age(d time.Duration, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%ds", int64(d/time.Second))
}

// Terminal is a telemetry.Sink that redraws the dashboard on W.
type Terminal struct {
	W       io.Writer
	LogPath string

	warnOnce sync.Once
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(w io.Writer, logPath string) *Terminal {
	return &Terminal{W: w, LogPath: logPath}
}

// Observe clears the screen and draws the frame for snap.
func (t *Terminal) Observe(snap telemetry.Snapshot) {
	if _, err := io.WriteString(t.W, ClearScreen+Render(snap, t.LogPath)); err != nil {
		t.warnOnce.Do(func() {
			log.Printf("dashboard: write frame: %v", err)
		})
	}
}
