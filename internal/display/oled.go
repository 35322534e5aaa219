// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display mirrors the dashboard on a 128x64 SSD1306 OLED.
package display

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/trek/internal/modem"
	"github.com/relabs-tech/trek/internal/telemetry"
)

const (
	width  = 128
	height = 64
)

// OLED is a telemetry.Sink. Observe only records the latest snapshot; Run
// draws it on its own ticker so I2C traffic never slows the aggregator.
type OLED struct {
	bus      i2c.BusCloser
	dev      *ssd1306.Dev
	interval time.Duration

	latest atomic.Pointer[telemetry.Snapshot]
}

// Open initialises periph, the default I2C bus and the display at its
// default address.
func Open(interval time.Duration) (*OLED, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	opts := ssd1306.DefaultOpts
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: SSD1306 initialized on %s", bus)

	return &OLED{bus: bus, dev: dev, interval: interval}, nil
}

// Observe records snap for the next redraw.
func (o *OLED) Observe(snap telemetry.Snapshot) {
	o.latest.Store(&snap)
}

// Run redraws the display every interval until ctx is done, then blanks it
// and releases the bus.
func (o *OLED) Run(ctx context.Context) error {
	defer o.bus.Close()
	defer func() {
		if err := o.dev.Halt(); err != nil {
			log.Printf("display: halt error: %v", err)
		}
	}()

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	log.Println("display: starting update loop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		img := Frame(o.latest.Load())
		if err := o.dev.Draw(o.dev.Bounds(), img, image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}
}

// Frame draws snap as four text rows: time, latitude, longitude and CSQ.
// A nil snapshot draws a waiting screen.
func Frame(snap *telemetry.Snapshot) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, width, height))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	row := func(n int, text string) {
		drawer.Dot = fixed.P(0, 13*(n+1))
		drawer.DrawString(text)
	}

	if snap == nil {
		row(1, "Trek")
		row(2, "Waiting...")
		return img
	}

	var gpsTime, lat, lon string
	if snap.Fix != nil {
		gpsTime, lat, lon = snap.Fix.Time, snap.Fix.Latitude, snap.Fix.Longitude
	}
	if lat == "" {
		lat = "no fix"
	}
	row(0, "T "+gpsTime)
	row(1, lat)
	row(2, lon)

	if snap.Signal != nil {
		q := snap.Signal.Quality
		row(3, fmt.Sprintf("CSQ %d %s", q, modem.BandFor(q)))
	} else {
		row(3, "CSQ -")
	}
	return img
}
