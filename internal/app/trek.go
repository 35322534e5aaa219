// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/trek/internal/config"
	"github.com/relabs-tech/trek/internal/dashboard"
	"github.com/relabs-tech/trek/internal/device"
	"github.com/relabs-tech/trek/internal/display"
	"github.com/relabs-tech/trek/internal/publish"
	"github.com/relabs-tech/trek/internal/queue"
	"github.com/relabs-tech/trek/internal/telemetry"
	"github.com/relabs-tech/trek/internal/web"
)

var openDisplay = display.Open

// RunTrek polls the modem and GPS receiver and draws the dashboard on
// stdout until SIGINT/SIGTERM.
func RunTrek(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Run(ctx, cfg, os.Stdout, device.OpenSerial)
}

// Run wires the pipeline: one LineSource per discovered device feeding a
// shared queue, drained by the aggregator, which renders to out. It returns
// after every source has closed its port.
func Run(ctx context.Context, cfg *config.Config, out io.Writer, open device.Opener) error {
	devices, err := device.Discover(cfg.DeviceGlob)
	if err != nil {
		return err
	}
	log.Printf("trek: found devices %v", devices)

	dataLog, err := os.OpenFile(cfg.DataLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open data log: %w", err)
	}
	defer dataLog.Close()

	sinks := []telemetry.Sink{dashboard.NewTerminal(out, cfg.DataLog)}

	// Optional outputs are opened before any goroutine starts so a failure
	// here returns with nothing left running.
	if cfg.MQTTBroker != "" {
		client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		sinks = append(sinks, publish.NewMQTT(client, cfg.TopicSignal, cfg.TopicPosition))
	}

	var oled *display.OLED
	if cfg.DisplayEnabled {
		oled, err = openDisplay(cfg.DisplayUpdateInterval)
		if err != nil {
			return err
		}
		sinks = append(sinks, oled)
	}

	var srv *web.Server
	if cfg.WebServerPort > 0 {
		srv = web.NewServer(fmt.Sprintf(":%d", cfg.WebServerPort))
		sinks = append(sinks, srv)
	}

	g, ctx := errgroup.WithContext(ctx)

	if oled != nil {
		g.Go(func() error { return oled.Run(ctx) })
	}
	if srv != nil {
		g.Go(func() error { return srv.Run(ctx) })
	}

	lines := queue.New[string]()
	for _, path := range devices {
		src := &device.LineSource{
			Path:        path,
			BaudRate:    cfg.BaudRate,
			ReadTimeout: cfg.ReadTimeout,
			PollCommand: cfg.PollCommand,
			Interval:    cfg.PollInterval,
			Open:        open,
		}
		g.Go(func() error { return src.Run(ctx, lines) })
	}

	agg := telemetry.NewAggregator(lines, dataLog, cfg.StaleAfter, sinks...)
	g.Go(func() error { return agg.Run(ctx) })

	err = g.Wait()
	log.Printf("trek: stopped (%d lines unprocessed)", lines.Len())
	return err
}
