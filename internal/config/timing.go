package config

import (
	"fmt"
	"time"
)

// TimingConfig holds the service timing knobs: heartbeat cadence, link
// polling, command timeout classes, and event buffer sizing.
type TimingConfig struct {
	// Telemetry heartbeat configuration
	HeartbeatInterval time.Duration
	HeartbeatJitter   time.Duration
	HeartbeatTimeout  time.Duration

	// Link notification polling cadence and reconnect backoff
	LinkPollInterval        time.Duration
	ReconnectInitialBackoff time.Duration
	ReconnectBackoffFactor  float64
	ReconnectMaxBackoff     time.Duration

	// Command timeout classes
	CommandTimeoutJoin        time.Duration
	CommandTimeoutGetLink     time.Duration
	CommandTimeoutSelectModem time.Duration
	CommandTimeoutStore       time.Duration

	// Event buffer configuration
	EventBufferSize      int
	EventBufferRetention time.Duration

	// Serial transport configuration
	Serial *SerialConfig

	// Modem inventory loaded at startup
	Modems []ModemConfig
}

// SerialConfig describes the serial link to an AT modem.
type SerialConfig struct {
	Device          string        `json:"device"`
	Baud            int           `json:"baud"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	ExchangeTimeout time.Duration `json:"exchangeTimeout"`
}

// ModemConfig describes one modem entry in the inventory file.
type ModemConfig struct {
	ID     string `json:"id"`
	Model  string `json:"model"`
	Device string `json:"device"`
	Baud   int    `json:"baud"`

	// Mock selects the in-process modem simulator instead of a serial
	// device, for development without hardware.
	Mock bool `json:"mock"`
}

// LoadBaseline returns the baseline timing values.
func LoadBaseline() *TimingConfig {
	return &TimingConfig{
		// Heartbeat: 15s cadence, ±2s jitter, 45s client timeout
		HeartbeatInterval: 15 * time.Second,
		HeartbeatJitter:   2 * time.Second,
		HeartbeatTimeout:  45 * time.Second,

		// Link polling: 1s drain cadence, reconnect 5s/2.0x/300s
		LinkPollInterval:        1 * time.Second,
		ReconnectInitialBackoff: 5 * time.Second,
		ReconnectBackoffFactor:  2.0,
		ReconnectMaxBackoff:     300 * time.Second,

		// Join dominates the classes: association plus DHCP can take
		// tens of seconds on a congested AP.
		CommandTimeoutJoin:        30 * time.Second,
		CommandTimeoutGetLink:     5 * time.Second,
		CommandTimeoutSelectModem: 5 * time.Second,
		CommandTimeoutStore:       10 * time.Second,

		// 50 events, 1 hour retention
		EventBufferSize:      50,
		EventBufferRetention: 1 * time.Hour,

		Serial: &SerialConfig{
			Device:          "/dev/ttyUSB0",
			Baud:            115200,
			ReadTimeout:     500 * time.Millisecond,
			ExchangeTimeout: 10 * time.Second,
		},
	}
}

// CommandTimeout returns the timeout class for a command action name.
func (c *TimingConfig) CommandTimeout(action string) (time.Duration, error) {
	switch action {
	case "join":
		return c.CommandTimeoutJoin, nil
	case "getLink":
		return c.CommandTimeoutGetLink, nil
	case "selectModem":
		return c.CommandTimeoutSelectModem, nil
	case "setPersistence":
		return c.CommandTimeoutStore, nil
	default:
		return 0, fmt.Errorf("no timeout class for action %s", action)
	}
}
