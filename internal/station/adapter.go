package station

import (
	"github.com/radio-control/wsc/internal/atcmd"
)

// Protocol limits for access-point credentials.
const (
	MaxSSIDLength = 32
	MaxKeyLength  = 63
)

// JoinState is a point-in-time snapshot of the link flags. It is not a
// live view: actual association may complete asynchronously after a join
// call, and callers must drain notifications again to observe it.
type JoinState struct {
	Connected  bool `json:"connected"`
	IPAssigned bool `json:"ipAssigned"`
}

// Adapter drives access-point association for one modem and tracks its
// link state from unsolicited notifications. It exclusively owns the
// command channel handle; the two flags are mutated only by the join
// sequence and the notification drain.
type Adapter struct {
	channel       atcmd.CommandChannel
	notifications atcmd.NotificationSource

	joined     bool
	ipAssigned bool
}

// New creates a station adapter in the not-yet-joined state. The channel
// must operate in blocking-or-timeout mode.
func New(channel atcmd.CommandChannel, notifications atcmd.NotificationSource) *Adapter {
	return &Adapter{
		channel:       channel,
		notifications: notifications,
	}
}

// Join connects to an access point and returns a snapshot of the link
// state. The snapshot reflects only the notifications that had arrived by
// the time of the call; the modem keeps trying to associate on its own,
// so the state can be re-read later via State after draining.
//
// The first failing step aborts the sequence. No compensating action is
// taken: the underlying protocol has no undo for a mode change.
func (a *Adapter) Join(ssid, key string) (JoinState, error) {
	if len(ssid) > MaxSSIDLength {
		return JoinState{}, ErrInvalidSSIDLength
	}
	if len(key) > MaxKeyLength {
		return JoinState{}, ErrInvalidPasswordLength
	}

	if err := a.setStationMode(); err != nil {
		return JoinState{}, err
	}
	if err := a.connectAccessPoint(ssid, key); err != nil {
		return JoinState{}, err
	}

	a.ProcessPendingNotifications()

	return a.State(), nil
}

// State returns the current link snapshot without issuing commands or
// draining notifications.
func (a *Adapter) State() JoinState {
	return JoinState{
		Connected:  a.joined,
		IPAssigned: a.ipAssigned,
	}
}

// ProcessPendingNotifications folds every currently buffered notification
// into the link flags, in arrival order. It never blocks and never waits
// for future notifications; with nothing queued it is a no-op.
func (a *Adapter) ProcessPendingNotifications() {
	for a.handleSingleNotification() {
	}
}

// SetStorePolicy selects whether subsequent modem configuration is
// persisted to flash or kept in RAM only.
func (a *Adapter) SetStorePolicy(persist bool) error {
	if _, err := a.channel.Send(atcmd.StoreModeCommand{Persist: persist}); err != nil {
		return translateSendError(ErrConfigStoreFailed, err)
	}
	return nil
}

// handleSingleNotification applies at most one pending notification.
// It returns false when none is buffered.
func (a *Adapter) handleSingleNotification() bool {
	kind, ok := a.notifications.PollNotification()
	if !ok {
		return false
	}

	switch kind {
	case atcmd.NotificationWifiDisconnected:
		// A disconnect clears both flags in one step so ipAssigned is
		// never observed true while joined is false.
		a.joined = false
		a.ipAssigned = false
	case atcmd.NotificationWifiConnected:
		a.joined = true
	case atcmd.NotificationReceivedIP:
		a.ipAssigned = true
	case atcmd.NotificationReady, atcmd.NotificationUnknown:
		// Ignored; unknown messages keep the core forward compatible.
	}

	return true
}

// setStationMode issues the command that switches the radio to station mode.
func (a *Adapter) setStationMode() error {
	if _, err := a.channel.Send(atcmd.StationModeCommand{}); err != nil {
		return translateSendError(ErrModeFailed, err)
	}
	return nil
}

// connectAccessPoint issues the command that sets the WiFi credentials.
// Credentials are validated by Join before this point.
func (a *Adapter) connectAccessPoint(ssid, key string) error {
	cmd := atcmd.AccessPointConnectCommand{SSID: ssid, Key: key}
	if _, err := a.channel.Send(cmd); err != nil {
		return translateSendError(ErrConnectFailed, err)
	}
	return nil
}
