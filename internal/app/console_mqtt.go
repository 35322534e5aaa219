// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/trek/internal/config"
	"github.com/relabs-tech/trek/internal/gps"
	"github.com/relabs-tech/trek/internal/modem"
	"github.com/relabs-tech/trek/internal/publish"
)

// RunConsoleMQTT prints the readings a remote trek publishes until Ctrl+C.
func RunConsoleMQTT(cfg *config.Config) error {
	if cfg.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required for the console")
	}

	client, err := publish.Connect(cfg.MQTTBroker, cfg.MQTTClientID+"-console")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	sigToken := client.Subscribe(cfg.TopicSignal, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := printSignal(os.Stdout, msg.Payload()); err != nil {
			log.Printf("console: csq unmarshal error: %v", err)
		}
	})
	sigToken.Wait()
	if sigToken.Error() != nil {
		return sigToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSignal)

	gpsToken := client.Subscribe(cfg.TopicPosition, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := printFix(os.Stdout, msg.Payload()); err != nil {
			log.Printf("console: gps unmarshal error: %v", err)
		}
	})
	gpsToken.Wait()
	if gpsToken.Error() != nil {
		return gpsToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPosition)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	return nil
}

func printSignal(w io.Writer, payload []byte) error {
	var r modem.Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "[CSQ ]  quality=%2d band=%s at=%s\n",
		r.Quality, r.Band, r.ObservedAt.Format("15:04:05"))
	return err
}

func printFix(w io.Writer, payload []byte) error {
	var f gps.Fix
	if err := json.Unmarshal(payload, &f); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "[GPS ]  time=%s lat=%s lon=%s", f.Time, f.Latitude, f.Longitude)
	if err != nil {
		return err
	}
	if d := f.Detail; d != nil {
		_, err = fmt.Fprintf(w, " (%.6f, %.6f) sats=%d alt=%.1fm", d.LatDeg, d.LonDeg, d.Satellites, d.AltitudeM)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w)
	return err
}
