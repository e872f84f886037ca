//
//
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Load merges defaults from LoadBaseline() + env overrides (WSC_*) +
// optional config.json + optional modems.json.
func Load() (*TimingConfig, error) {
	config := LoadBaseline()

	if err := applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if _, err := os.Stat("config.json"); err == nil {
		fileConfig, err := loadFromFile("config.json")
		if err != nil {
			return nil, fmt.Errorf("failed to load config.json: %w", err)
		}
		config = mergeTimingConfigs(config, fileConfig)
	}

	if _, err := os.Stat("modems.json"); err == nil {
		modems, err := loadModemsFromFile("modems.json")
		if err != nil {
			return nil, fmt.Errorf("failed to load modems.json: %w", err)
		}
		config.Modems = modems
	}

	if err := ValidateTiming(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies WSC_* environment variables to the config.
func applyEnvOverrides(config *TimingConfig) error {
	// Heartbeat configuration
	if val := os.Getenv("WSC_HEARTBEAT_INTERVAL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.HeartbeatInterval = duration
		}
	}

	if val := os.Getenv("WSC_HEARTBEAT_JITTER"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.HeartbeatJitter = duration
		}
	}

	if val := os.Getenv("WSC_HEARTBEAT_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.HeartbeatTimeout = duration
		}
	}

	// Link polling configuration
	if val := os.Getenv("WSC_LINK_POLL_INTERVAL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.LinkPollInterval = duration
		}
	}

	if val := os.Getenv("WSC_RECONNECT_INITIAL_BACKOFF"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.ReconnectInitialBackoff = duration
		}
	}

	if val := os.Getenv("WSC_RECONNECT_BACKOFF_FACTOR"); val != "" {
		if factor, err := strconv.ParseFloat(val, 64); err == nil {
			config.ReconnectBackoffFactor = factor
		}
	}

	if val := os.Getenv("WSC_RECONNECT_MAX_BACKOFF"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.ReconnectMaxBackoff = duration
		}
	}

	// Command timeouts
	if val := os.Getenv("WSC_COMMAND_JOIN"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CommandTimeoutJoin = duration
		}
	}

	if val := os.Getenv("WSC_COMMAND_GET_LINK"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CommandTimeoutGetLink = duration
		}
	}

	if val := os.Getenv("WSC_COMMAND_SELECT_MODEM"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CommandTimeoutSelectModem = duration
		}
	}

	if val := os.Getenv("WSC_COMMAND_STORE"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.CommandTimeoutStore = duration
		}
	}

	// Event buffer configuration
	if val := os.Getenv("WSC_EVENT_BUFFER_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.EventBufferSize = size
		}
	}

	if val := os.Getenv("WSC_EVENT_BUFFER_RETENTION"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.EventBufferRetention = duration
		}
	}

	// Serial transport configuration
	if val := os.Getenv("WSC_SERIAL_DEVICE"); val != "" {
		config.Serial.Device = val
	}

	if val := os.Getenv("WSC_SERIAL_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			config.Serial.Baud = baud
		}
	}

	if val := os.Getenv("WSC_SERIAL_READ_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Serial.ReadTimeout = duration
		}
	}

	if val := os.Getenv("WSC_SERIAL_EXCHANGE_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.Serial.ExchangeTimeout = duration
		}
	}

	// Modem inventory from environment variable
	if val := os.Getenv("WSC_MODEMS"); val != "" {
		modems, err := loadModemsFromJSON(val)
		if err == nil {
			config.Modems = modems
		}
	}

	return nil
}

// loadFromFile loads timing configuration from a JSON file.
func loadFromFile(filename string) (*TimingConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var config TimingConfig
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// mergeTimingConfigs merges file configuration with current configuration.
// File values take precedence over current values.
func mergeTimingConfigs(current, file *TimingConfig) *TimingConfig {
	merged := *current

	if file.HeartbeatInterval != 0 {
		merged.HeartbeatInterval = file.HeartbeatInterval
	}
	if file.HeartbeatJitter != 0 {
		merged.HeartbeatJitter = file.HeartbeatJitter
	}
	if file.HeartbeatTimeout != 0 {
		merged.HeartbeatTimeout = file.HeartbeatTimeout
	}
	if file.LinkPollInterval != 0 {
		merged.LinkPollInterval = file.LinkPollInterval
	}
	if file.ReconnectInitialBackoff != 0 {
		merged.ReconnectInitialBackoff = file.ReconnectInitialBackoff
	}
	if file.ReconnectBackoffFactor != 0 {
		merged.ReconnectBackoffFactor = file.ReconnectBackoffFactor
	}
	if file.ReconnectMaxBackoff != 0 {
		merged.ReconnectMaxBackoff = file.ReconnectMaxBackoff
	}
	if file.CommandTimeoutJoin != 0 {
		merged.CommandTimeoutJoin = file.CommandTimeoutJoin
	}
	if file.CommandTimeoutGetLink != 0 {
		merged.CommandTimeoutGetLink = file.CommandTimeoutGetLink
	}
	if file.CommandTimeoutSelectModem != 0 {
		merged.CommandTimeoutSelectModem = file.CommandTimeoutSelectModem
	}
	if file.CommandTimeoutStore != 0 {
		merged.CommandTimeoutStore = file.CommandTimeoutStore
	}
	if file.EventBufferSize != 0 {
		merged.EventBufferSize = file.EventBufferSize
	}
	if file.EventBufferRetention != 0 {
		merged.EventBufferRetention = file.EventBufferRetention
	}
	if file.Serial != nil {
		serial := *merged.Serial
		if file.Serial.Device != "" {
			serial.Device = file.Serial.Device
		}
		if file.Serial.Baud != 0 {
			serial.Baud = file.Serial.Baud
		}
		if file.Serial.ReadTimeout != 0 {
			serial.ReadTimeout = file.Serial.ReadTimeout
		}
		if file.Serial.ExchangeTimeout != 0 {
			serial.ExchangeTimeout = file.Serial.ExchangeTimeout
		}
		merged.Serial = &serial
	}
	if len(file.Modems) > 0 {
		merged.Modems = file.Modems
	}

	return &merged
}

// GetEnvVar returns the value of an environment variable with a default.
func GetEnvVar(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvDuration returns the value of an environment variable as a duration with a default.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvInt returns the value of an environment variable as an int with a default.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// GetEnvBool returns the value of an environment variable as a bool with a default.
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// loadModemsFromJSON loads the modem inventory from a JSON string.
func loadModemsFromJSON(jsonStr string) ([]ModemConfig, error) {
	var modems []ModemConfig
	if err := json.Unmarshal([]byte(jsonStr), &modems); err != nil {
		return nil, fmt.Errorf("failed to parse modem inventory JSON: %w", err)
	}
	return modems, nil
}

// loadModemsFromFile loads the modem inventory from a JSON file.
func loadModemsFromFile(filename string) ([]ModemConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var modems []ModemConfig
	if err := json.NewDecoder(file).Decode(&modems); err != nil {
		return nil, fmt.Errorf("failed to decode modem inventory from %s: %w", filename, err)
	}
	return modems, nil
}
