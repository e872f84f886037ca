//
//
package config

import (
	"fmt"
	"time"
)

// ValidateTiming enforces the timing validation rules.
func ValidateTiming(config *TimingConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateHeartbeat(config); err != nil {
		return fmt.Errorf("heartbeat validation failed: %w", err)
	}

	if err := validateLinkPolling(config); err != nil {
		return fmt.Errorf("link polling validation failed: %w", err)
	}

	if err := validateCommandTimeouts(config); err != nil {
		return fmt.Errorf("command timeout validation failed: %w", err)
	}

	if err := validateEventBuffer(config); err != nil {
		return fmt.Errorf("event buffer validation failed: %w", err)
	}

	if err := validateSerial(config); err != nil {
		return fmt.Errorf("serial validation failed: %w", err)
	}

	if err := validateModems(config); err != nil {
		return fmt.Errorf("modem inventory validation failed: %w", err)
	}

	return nil
}

// validateHeartbeat validates heartbeat timing parameters.
func validateHeartbeat(config *TimingConfig) error {
	if config.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %v", config.HeartbeatInterval)
	}

	// Jitter must be non-negative and <= 50% of interval
	maxJitter := config.HeartbeatInterval / 2
	if config.HeartbeatJitter < 0 {
		return fmt.Errorf("heartbeat jitter must be non-negative, got %v", config.HeartbeatJitter)
	}
	if config.HeartbeatJitter > maxJitter {
		return fmt.Errorf("heartbeat jitter %v exceeds 50%% of interval %v", config.HeartbeatJitter, config.HeartbeatInterval)
	}

	if config.HeartbeatTimeout < config.HeartbeatInterval {
		return fmt.Errorf("heartbeat timeout %v must be >= interval %v", config.HeartbeatTimeout, config.HeartbeatInterval)
	}

	return nil
}

// validateLinkPolling validates link polling and reconnect parameters.
func validateLinkPolling(config *TimingConfig) error {
	if config.LinkPollInterval <= 0 {
		return fmt.Errorf("link poll interval must be positive, got %v", config.LinkPollInterval)
	}

	if config.ReconnectInitialBackoff <= 0 {
		return fmt.Errorf("reconnect initial backoff must be positive, got %v", config.ReconnectInitialBackoff)
	}
	if config.ReconnectBackoffFactor < 1.0 {
		return fmt.Errorf("reconnect backoff factor must be >= 1.0, got %v", config.ReconnectBackoffFactor)
	}
	if config.ReconnectMaxBackoff < config.ReconnectInitialBackoff {
		return fmt.Errorf("reconnect max backoff %v must be >= initial %v", config.ReconnectMaxBackoff, config.ReconnectInitialBackoff)
	}

	return nil
}

// validateCommandTimeouts validates command timeout parameters.
func validateCommandTimeouts(config *TimingConfig) error {
	if config.CommandTimeoutJoin <= 0 {
		return fmt.Errorf("command timeout join must be positive, got %v", config.CommandTimeoutJoin)
	}
	if config.CommandTimeoutGetLink <= 0 {
		return fmt.Errorf("command timeout getLink must be positive, got %v", config.CommandTimeoutGetLink)
	}
	if config.CommandTimeoutSelectModem <= 0 {
		return fmt.Errorf("command timeout selectModem must be positive, got %v", config.CommandTimeoutSelectModem)
	}
	if config.CommandTimeoutStore <= 0 {
		return fmt.Errorf("command timeout setPersistence must be positive, got %v", config.CommandTimeoutStore)
	}

	return nil
}

// validateEventBuffer validates event buffer parameters.
func validateEventBuffer(config *TimingConfig) error {
	if config.EventBufferSize <= 0 {
		return fmt.Errorf("event buffer size must be positive, got %d", config.EventBufferSize)
	}

	if config.EventBufferRetention <= 0 {
		return fmt.Errorf("event buffer retention must be positive, got %v", config.EventBufferRetention)
	}

	return nil
}

// validateSerial validates serial transport parameters.
func validateSerial(config *TimingConfig) error {
	if config.Serial == nil {
		return fmt.Errorf("serial configuration cannot be nil")
	}
	if config.Serial.Device == "" {
		return fmt.Errorf("serial device must not be empty")
	}
	if config.Serial.Baud <= 0 {
		return fmt.Errorf("serial baud must be positive, got %d", config.Serial.Baud)
	}
	if config.Serial.ReadTimeout < 0 {
		return fmt.Errorf("serial read timeout must be non-negative, got %v", config.Serial.ReadTimeout)
	}
	if config.Serial.ExchangeTimeout < 0 {
		return fmt.Errorf("serial exchange timeout must be non-negative, got %v", config.Serial.ExchangeTimeout)
	}

	return nil
}

// validateModems validates the modem inventory.
func validateModems(config *TimingConfig) error {
	seen := make(map[string]bool, len(config.Modems))
	for i, m := range config.Modems {
		if m.ID == "" {
			return fmt.Errorf("modem entry %d has an empty id", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("modem id %s appears more than once", m.ID)
		}
		seen[m.ID] = true

		if !m.Mock && m.Device == "" {
			return fmt.Errorf("modem %s has no device and is not a mock", m.ID)
		}
	}

	return nil
}

// ValidateTimingConstraints validates additional timing constraints.
func ValidateTimingConstraints(config *TimingConfig) error {
	if config.ReconnectBackoffFactor > 10.0 {
		return fmt.Errorf("reconnect backoff factor %v is too aggressive (max 10.0)", config.ReconnectBackoffFactor)
	}

	minTimeout := 100 * time.Millisecond
	maxTimeout := 5 * time.Minute

	if config.CommandTimeoutJoin < minTimeout || config.CommandTimeoutJoin > maxTimeout {
		return fmt.Errorf("command timeout join %v is outside reasonable range [%v, %v]",
			config.CommandTimeoutJoin, minTimeout, maxTimeout)
	}

	if config.CommandTimeoutGetLink < minTimeout || config.CommandTimeoutGetLink > maxTimeout {
		return fmt.Errorf("command timeout getLink %v is outside reasonable range [%v, %v]",
			config.CommandTimeoutGetLink, minTimeout, maxTimeout)
	}

	if config.CommandTimeoutSelectModem < minTimeout || config.CommandTimeoutSelectModem > maxTimeout {
		return fmt.Errorf("command timeout selectModem %v is outside reasonable range [%v, %v]",
			config.CommandTimeoutSelectModem, minTimeout, maxTimeout)
	}

	if config.CommandTimeoutStore < minTimeout || config.CommandTimeoutStore > maxTimeout {
		return fmt.Errorf("command timeout setPersistence %v is outside reasonable range [%v, %v]",
			config.CommandTimeoutStore, minTimeout, maxTimeout)
	}

	return nil
}

// ValidateTimingComplete performs complete timing validation including constraints.
func ValidateTimingComplete(config *TimingConfig) error {
	if err := ValidateTiming(config); err != nil {
		return err
	}

	if err := ValidateTimingConstraints(config); err != nil {
		return err
	}

	return nil
}
