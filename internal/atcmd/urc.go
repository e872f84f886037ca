package atcmd

import "strings"

// Notification is the classified kind of an unsolicited result code.
// The set is closed; anything the classifier does not recognize maps to
// NotificationUnknown and must be ignored by consumers, preserving
// forward compatibility with modem messages not yet understood.
type Notification int

const (
	// NotificationUnknown is an unrecognized unsolicited line.
	NotificationUnknown Notification = iota

	// NotificationReady reports the modem finished booting.
	NotificationReady

	// NotificationWifiConnected reports association with an access point.
	NotificationWifiConnected

	// NotificationWifiDisconnected reports loss of association.
	NotificationWifiDisconnected

	// NotificationReceivedIP reports an address was assigned by the
	// access point.
	NotificationReceivedIP
)

// String returns the notification name for diagnostics.
func (n Notification) String() string {
	switch n {
	case NotificationReady:
		return "ready"
	case NotificationWifiConnected:
		return "wifiConnected"
	case NotificationWifiDisconnected:
		return "wifiDisconnected"
	case NotificationReceivedIP:
		return "receivedIP"
	default:
		return "unknown"
	}
}

// urcTable maps raw modem vocabulary to notification kinds. Matching is
// deterministic and table-driven, no heuristics: a line classifies as the
// first entry whose token it starts with.
var urcTable = []struct {
	token string
	kind  Notification
}{
	{"WIFI DISCONNECT", NotificationWifiDisconnected},
	{"WIFI CONNECTED", NotificationWifiConnected},
	{"WIFI GOT IP", NotificationReceivedIP},
	{"ready", NotificationReady},
}

// Classify maps a raw unsolicited modem line to its notification kind.
func Classify(line string) Notification {
	line = strings.TrimSpace(line)
	for _, entry := range urcTable {
		if strings.HasPrefix(line, entry.token) {
			return entry.kind
		}
	}
	return NotificationUnknown
}

// IsURC reports whether a raw line is an unsolicited status message as
// opposed to command response traffic.
func IsURC(line string) bool {
	return Classify(strings.TrimSpace(line)) != NotificationUnknown
}
