// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultPath is where the binary looks for an optional config file.
const DefaultPath = "trek_config.txt"

// Config holds all application configuration values.
type Config struct {
	// Devices
	DeviceGlob   string
	BaudRate     int
	ReadTimeout  time.Duration
	PollInterval time.Duration
	PollCommand  string

	// Files
	DataLog string // raw telemetry lines
	AppLog  string // diagnostics; stdout is the dashboard

	// Telemetry
	StaleAfter time.Duration

	// MQTT (disabled when MQTTBroker is empty)
	MQTTBroker    string
	MQTTClientID  string
	TopicSignal   string
	TopicPosition string

	// Web Server (disabled when 0)
	WebServerPort int

	// Display
	DisplayEnabled        bool
	DisplayUpdateInterval time.Duration
}

// Default returns the built-in configuration. The binary runs on it when no
// config file exists.
func Default() *Config {
	return &Config{
		DeviceGlob:   "/dev/cu.usbmodem*01",
		BaudRate:     115200,
		ReadTimeout:  time.Second,
		PollInterval: time.Second,
		PollCommand:  "AT+CSQ\r\n",

		DataLog: "data.log",
		AppLog:  "trek.log",

		StaleAfter: 30 * time.Second,

		MQTTClientID:  "trek-telemetry",
		TopicSignal:   "trek/csq",
		TopicPosition: "trek/gps",

		DisplayUpdateInterval: 500 * time.Millisecond,
	}
}

// Load reads the configuration file on top of Default.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse reads KEY=VALUE lines from r. Blank lines and lines starting with
// '#' are skipped.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Devices
	case "DEVICE_GLOB":
		c.DeviceGlob = value
	case "BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BAUD_RATE %q: %w", value, err)
		}
		c.BaudRate = rate
	case "READ_TIMEOUT_MS":
		d, err := millis(key, value)
		if err != nil {
			return err
		}
		c.ReadTimeout = d
	case "POLL_INTERVAL_MS":
		d, err := millis(key, value)
		if err != nil {
			return err
		}
		c.PollInterval = d
	case "POLL_COMMAND":
		// "\r\n" is written literally in the file
		c.PollCommand = strings.NewReplacer(`\r`, "\r", `\n`, "\n").Replace(value)

	// Files
	case "DATA_LOG":
		c.DataLog = value
	case "APP_LOG":
		c.AppLog = value

	// Telemetry
	case "STALE_AFTER_SEC":
		sec, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid STALE_AFTER_SEC %q: %w", value, err)
		}
		c.StaleAfter = time.Duration(sec) * time.Second

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_SIGNAL":
		c.TopicSignal = value
	case "TOPIC_POSITION":
		c.TopicPosition = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_ENABLED":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = on
	case "DISPLAY_UPDATE_INTERVAL":
		d, err := millis(key, value)
		if err != nil {
			return err
		}
		c.DisplayUpdateInterval = d

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func millis(key, value string) (time.Duration, error) {
	ms, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.DeviceGlob == "" {
		return fmt.Errorf("DEVICE_GLOB is required")
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("BAUD_RATE must be positive, got %d", c.BaudRate)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("READ_TIMEOUT_MS must be positive")
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("POLL_INTERVAL_MS must not be negative")
	}
	if c.DataLog == "" {
		return fmt.Errorf("DATA_LOG is required")
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("STALE_AFTER_SEC must be positive")
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", c.WebServerPort)
	}
	if c.MQTTBroker != "" && (c.TopicSignal == "" || c.TopicPosition == "") {
		return fmt.Errorf("TOPIC_SIGNAL and TOPIC_POSITION are required when MQTT_BROKER is set")
	}
	if c.DisplayEnabled && c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive when the display is enabled")
	}
	return nil
}
