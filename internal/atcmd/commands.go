package atcmd

import (
	"fmt"
	"strings"
)

// Command is an outbound request the adapter issues to the modem.
// Payload returns the command body without the "AT" prefix or the
// line terminator; the channel implementation owns the framing.
type Command interface {
	// Name identifies the command for diagnostics and audit records.
	Name() string

	// Payload returns the encoded command body, e.g. "+CWMODE=1".
	Payload() string
}

// StationModeCommand switches the radio into station mode so the device
// joins an existing network as a client instead of hosting one.
type StationModeCommand struct{}

// Name implements Command.
func (StationModeCommand) Name() string { return "stationMode" }

// Payload implements Command.
func (StationModeCommand) Payload() string { return "+CWMODE=1" }

// AccessPointConnectCommand sets the WiFi credentials and asks the modem
// to associate with the given access point.
type AccessPointConnectCommand struct {
	SSID string
	Key  string
}

// Name implements Command.
func (AccessPointConnectCommand) Name() string { return "connectAccessPoint" }

// Payload implements Command.
func (c AccessPointConnectCommand) Payload() string {
	return `+CWJAP="` + escapeParam(c.SSID) + `","` + escapeParam(c.Key) + `"`
}

// StoreModeCommand controls whether subsequent configuration commands are
// persisted to the modem's flash or applied to RAM only.
type StoreModeCommand struct {
	Persist bool
}

// Name implements Command.
func (StoreModeCommand) Name() string { return "storeMode" }

// Payload implements Command.
func (c StoreModeCommand) Payload() string {
	mode := 0
	if c.Persist {
		mode = 1
	}
	return fmt.Sprintf("+SYSSTORE=%d", mode)
}

// escapeParam escapes the characters the AT string parameter grammar
// reserves: backslash, double quote and comma.
func escapeParam(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '"', ',':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
