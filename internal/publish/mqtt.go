// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package publish forwards new telemetry readings to an MQTT broker.
package publish

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/trek/internal/telemetry"
)

const publishTimeout = 5 * time.Second

// Publisher is the part of mqtt.Client used here.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Connect dials the broker and waits for the connection.
func Connect(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	log.Printf("publish: connected to MQTT broker at %s", broker)
	return client, nil
}

// MQTT is a telemetry.Sink that publishes each new signal reading and each
// new position fix as retained JSON. Snapshots that carry no new reading
// publish nothing.
type MQTT struct {
	client        Publisher
	topicSignal   string
	topicPosition string

	lastSignal time.Time
	lastFix    time.Time
}

// NewMQTT returns a sink publishing through client.
func NewMQTT(client Publisher, topicSignal, topicPosition string) *MQTT {
	return &MQTT{client: client, topicSignal: topicSignal, topicPosition: topicPosition}
}

// Observe publishes the signal reading and fix if they are newer than the
// last ones sent.
func (m *MQTT) Observe(snap telemetry.Snapshot) {
	if sig := snap.Signal; sig != nil && sig.ObservedAt.After(m.lastSignal) {
		m.lastSignal = sig.ObservedAt
		m.publish(m.topicSignal, sig)
	}
	if fix := snap.Fix; fix != nil && fix.ObservedAt.After(m.lastFix) {
		m.lastFix = fix.ObservedAt
		m.publish(m.topicPosition, fix)
	}
}

// publish never waits on the broker; delivery errors are logged from a
// separate goroutine.
func (m *MQTT) publish(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("publish: %s marshal error: %v", topic, err)
		return
	}

	token := m.client.Publish(topic, 0, true, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			log.Printf("publish: %s timed out", topic)
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("publish: %s error: %v", topic, err)
		}
	}()
}
