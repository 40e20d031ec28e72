// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// Vehicle link
	LinkType       string // udp, udpclient, tcp, serial, nmea
	LinkAddress    string
	SerialPort     string
	SerialBaudRate int
	OutSystemID    uint8
	NMEASystemID   uint8

	// Timing
	ReceiveTimeout     time.Duration
	ReconnectDelay     time.Duration
	MinPublishInterval time.Duration

	// Collector
	PositionEndpoint string
	MissionEndpoint  string
	HTTPTimeout      time.Duration
	UserAgent        string
	PublishTimeout   time.Duration
	PublishQueueSize int

	// MQTT (optional)
	MQTTBroker          string
	MQTTClientID        string
	MQTTClientIDConsole string
	TopicPosition       string
	TopicMission        string

	// Web Server, 0 disables it
	WebServerPort int

	// Log file, empty logs to stderr only
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
}

// Package-level unexported variables for the singleton: InitGlobal sets it
// once, Get reads it under the read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the values used for every key the file leaves out.
func Default() *Config {
	return &Config{
		LinkType:            "udp",
		LinkAddress:         "127.0.0.1:56781",
		SerialBaudRate:      57600,
		OutSystemID:         255,
		NMEASystemID:        1,
		ReceiveTimeout:      time.Second,
		ReconnectDelay:      3 * time.Second,
		MinPublishInterval:  2 * time.Second,
		HTTPTimeout:         10 * time.Second,
		UserAgent:           "telemetry-relay/1.0",
		PublishTimeout:      10 * time.Second,
		PublishQueueSize:    16,
		MQTTClientID:        "telemetry-relay",
		MQTTClientIDConsole: "telemetry-relay-console",
		TopicPosition:       "fleet/position",
		TopicMission:        "fleet/mission",
		LogMaxSizeMB:        32,
		LogMaxBackups:       3,
		LogMaxAgeDays:       14,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default.
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
	var err error
	switch key {
	// Vehicle link
	case "LINK_TYPE":
		c.LinkType = strings.ToLower(value)
	case "LINK_ADDRESS":
		c.LinkAddress = value
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parsePositive(key, value)
	case "OUT_SYSTEM_ID":
		c.OutSystemID, err = parseSystemID(key, value)
	case "NMEA_SYSTEM_ID":
		c.NMEASystemID, err = parseSystemID(key, value)

	// Timing
	case "RECEIVE_TIMEOUT_MS":
		c.ReceiveTimeout, err = parseMillis(key, value)
	case "RECONNECT_DELAY_MS":
		c.ReconnectDelay, err = parseMillis(key, value)
	case "MIN_PUBLISH_INTERVAL_MS":
		c.MinPublishInterval, err = parseMillis(key, value)

	// Collector
	case "POSITION_ENDPOINT":
		c.PositionEndpoint = value
	case "MISSION_ENDPOINT":
		c.MissionEndpoint = value
	case "HTTP_TIMEOUT_MS":
		c.HTTPTimeout, err = parseMillis(key, value)
	case "USER_AGENT":
		c.UserAgent = value
	case "PUBLISH_TIMEOUT_MS":
		c.PublishTimeout, err = parseMillis(key, value)
	case "PUBLISH_QUEUE_SIZE":
		c.PublishQueueSize, err = parsePositive(key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "TOPIC_POSITION":
		c.TopicPosition = value
	case "TOPIC_MISSION":
		c.TopicMission = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if c.WebServerPort < 0 || c.WebServerPort > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", c.WebServerPort)
		}

	// Logging
	case "LOG_FILE":
		c.LogFile = value
	case "LOG_MAX_SIZE_MB":
		c.LogMaxSizeMB, err = parsePositive(key, value)
	case "LOG_MAX_BACKUPS":
		c.LogMaxBackups, err = strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_MAX_BACKUPS %q: %w", value, err)
		}
	case "LOG_MAX_AGE_DAYS":
		c.LogMaxAgeDays, err = strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LOG_MAX_AGE_DAYS %q: %w", value, err)
		}

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parsePositive(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	return v, nil
}

func parseMillis(key, value string) (time.Duration, error) {
	ms, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if ms < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", key, ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parseSystemID(key, value string) (uint8, error) {
	id, err := strconv.ParseUint(value, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("%s must be 1-255, got 0", key)
	}
	return uint8(id), nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	switch c.LinkType {
	case "udp", "udpclient", "tcp":
		if c.LinkAddress == "" {
			return fmt.Errorf("LINK_ADDRESS is required for LINK_TYPE=%s", c.LinkType)
		}
	case "serial", "nmea":
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required for LINK_TYPE=%s", c.LinkType)
		}
	default:
		return fmt.Errorf("LINK_TYPE must be udp, udpclient, tcp, serial or nmea, got %q", c.LinkType)
	}
	if c.PositionEndpoint == "" && c.MQTTBroker == "" && c.WebServerPort == 0 {
		return fmt.Errorf("nothing to publish to: set POSITION_ENDPOINT, MQTT_BROKER or WEB_SERVER_PORT")
	}
	if c.ReceiveTimeout == 0 {
		return fmt.Errorf("RECEIVE_TIMEOUT_MS must be positive")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Only the
// first call loads anything.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
