package station

import (
	"errors"
	"strings"
	"testing"

	"github.com/radio-control/wsc/internal/atcmd"
)

// scriptChannel implements atcmd.CommandChannel and atcmd.NotificationSource
// for testing the state machine without a real serial link.
type scriptChannel struct {
	sent    []atcmd.Command
	fail    map[string]error // command name -> error to return
	pending []atcmd.Notification
}

func newScriptChannel() *scriptChannel {
	return &scriptChannel{fail: make(map[string]error)}
}

func (c *scriptChannel) Send(cmd atcmd.Command) (*atcmd.Response, error) {
	c.sent = append(c.sent, cmd)
	if err, ok := c.fail[cmd.Name()]; ok {
		return nil, err
	}
	return &atcmd.Response{}, nil
}

func (c *scriptChannel) PollNotification() (atcmd.Notification, bool) {
	if len(c.pending) == 0 {
		return atcmd.NotificationUnknown, false
	}
	next := c.pending[0]
	c.pending = c.pending[1:]
	return next, true
}

func (c *scriptChannel) queue(kinds ...atcmd.Notification) {
	c.pending = append(c.pending, kinds...)
}

func (c *scriptChannel) sentNames() []string {
	names := make([]string, len(c.sent))
	for i, cmd := range c.sent {
		names[i] = cmd.Name()
	}
	return names
}

// TestJoinRejectsOverlongSSID ensures validation precedes any command issuance.
func TestJoinRejectsOverlongSSID(t *testing.T) {
	ch := newScriptChannel()
	adapter := New(ch, ch)

	_, err := adapter.Join(strings.Repeat("s", 33), "key")
	if !errors.Is(err, ErrInvalidSSIDLength) {
		t.Fatalf("Join returned %v, want ErrInvalidSSIDLength", err)
	}
	if len(ch.sent) != 0 {
		t.Errorf("Join issued %d commands on validation failure, want 0", len(ch.sent))
	}
}

// TestJoinRejectsOverlongKey ensures the key limit is checked after the SSID.
func TestJoinRejectsOverlongKey(t *testing.T) {
	ch := newScriptChannel()
	adapter := New(ch, ch)

	_, err := adapter.Join(strings.Repeat("s", 32), strings.Repeat("k", 64))
	if !errors.Is(err, ErrInvalidPasswordLength) {
		t.Fatalf("Join returned %v, want ErrInvalidPasswordLength", err)
	}
	if len(ch.sent) != 0 {
		t.Errorf("Join issued %d commands on validation failure, want 0", len(ch.sent))
	}
}

// TestJoinBoundaryLengthsAccepted ensures 32/63-byte credentials pass validation.
func TestJoinBoundaryLengthsAccepted(t *testing.T) {
	ch := newScriptChannel()
	adapter := New(ch, ch)

	if _, err := adapter.Join(strings.Repeat("s", 32), strings.Repeat("k", 63)); err != nil {
		t.Fatalf("Join returned %v, want nil", err)
	}
}

// TestJoinShortCircuitsOnModeError ensures the connect command is never
// issued when station-mode fails.
func TestJoinShortCircuitsOnModeError(t *testing.T) {
	ch := newScriptChannel()
	ch.fail["stationMode"] = errors.New("modem rebooting")
	adapter := New(ch, ch)

	_, err := adapter.Join("office", "secret")
	if !errors.Is(err, ErrModeFailed) {
		t.Fatalf("Join returned %v, want ErrModeFailed", err)
	}

	names := ch.sentNames()
	if len(names) != 1 || names[0] != "stationMode" {
		t.Errorf("commands issued = %v, want [stationMode]", names)
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error %v is not a *CommandError", err)
	}
	if cmdErr.Cause == nil || cmdErr.Cause.Error() != "modem rebooting" {
		t.Errorf("Cause = %v, want the transport error surfaced verbatim", cmdErr.Cause)
	}
}

// TestJoinMapsConnectError ensures step-two failures carry the connect code.
func TestJoinMapsConnectError(t *testing.T) {
	ch := newScriptChannel()
	ch.fail["connectAccessPoint"] = errors.New("no ap")
	adapter := New(ch, ch)

	_, err := adapter.Join("office", "secret")
	if !errors.Is(err, ErrConnectFailed) {
		t.Fatalf("Join returned %v, want ErrConnectFailed", err)
	}

	names := ch.sentNames()
	want := []string{"stationMode", "connectAccessPoint"}
	if len(names) != len(want) || names[0] != want[0] || names[1] != want[1] {
		t.Errorf("commands issued = %v, want %v", names, want)
	}
}

// TestJoinWouldBlockMapping ensures a would-block outcome from either
// command maps to the protocol-misuse error.
func TestJoinWouldBlockMapping(t *testing.T) {
	for _, cmdName := range []string{"stationMode", "connectAccessPoint"} {
		ch := newScriptChannel()
		ch.fail[cmdName] = atcmd.ErrWouldBlock
		adapter := New(ch, ch)

		_, err := adapter.Join("office", "secret")
		if !errors.Is(err, ErrUnexpectedWouldBlock) {
			t.Errorf("%s would-block: Join returned %v, want ErrUnexpectedWouldBlock", cmdName, err)
		}
	}
}

// TestJoinWithNoNotifications ensures a clean join with nothing queued
// reports the initial state unchanged.
func TestJoinWithNoNotifications(t *testing.T) {
	ch := newScriptChannel()
	adapter := New(ch, ch)

	state, err := adapter.Join("office", "secret")
	if err != nil {
		t.Fatalf("Join returned %v, want nil", err)
	}
	if state.Connected || state.IPAssigned {
		t.Errorf("state = %+v, want both flags false", state)
	}
}

// TestJoinFoldsPendingNotifications ensures the drain step runs inside Join.
func TestJoinFoldsPendingNotifications(t *testing.T) {
	ch := newScriptChannel()
	ch.queue(atcmd.NotificationWifiConnected, atcmd.NotificationReceivedIP)
	adapter := New(ch, ch)

	state, err := adapter.Join("office", "secret")
	if err != nil {
		t.Fatalf("Join returned %v, want nil", err)
	}
	if !state.Connected || !state.IPAssigned {
		t.Errorf("state = %+v, want both flags true", state)
	}
}

// TestFoldingOrderSensitivity ensures the last writer wins within a drain.
func TestFoldingOrderSensitivity(t *testing.T) {
	tests := []struct {
		name  string
		kinds []atcmd.Notification
		want  JoinState
	}{
		{
			name:  "connected then got ip",
			kinds: []atcmd.Notification{atcmd.NotificationWifiConnected, atcmd.NotificationReceivedIP},
			want:  JoinState{Connected: true, IPAssigned: true},
		},
		{
			name:  "got ip before connected",
			kinds: []atcmd.Notification{atcmd.NotificationReceivedIP, atcmd.NotificationWifiConnected},
			want:  JoinState{Connected: true, IPAssigned: true},
		},
		{
			name:  "connected then disconnected",
			kinds: []atcmd.Notification{atcmd.NotificationWifiConnected, atcmd.NotificationWifiDisconnected},
			want:  JoinState{},
		},
		{
			name: "disconnect clears both flags",
			kinds: []atcmd.Notification{
				atcmd.NotificationWifiConnected,
				atcmd.NotificationReceivedIP,
				atcmd.NotificationWifiDisconnected,
			},
			want: JoinState{},
		},
		{
			name:  "repeated got ip is idempotent",
			kinds: []atcmd.Notification{atcmd.NotificationReceivedIP, atcmd.NotificationReceivedIP},
			want:  JoinState{IPAssigned: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := newScriptChannel()
			ch.queue(tt.kinds...)
			adapter := New(ch, ch)

			adapter.ProcessPendingNotifications()

			if got := adapter.State(); got != tt.want {
				t.Errorf("State() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestNeutralNotificationsLeaveStateUntouched ensures ready and unknown
// never alter state, for any prior state.
func TestNeutralNotificationsLeaveStateUntouched(t *testing.T) {
	ch := newScriptChannel()
	adapter := New(ch, ch)

	// Establish a joined state first.
	ch.queue(atcmd.NotificationWifiConnected, atcmd.NotificationReceivedIP)
	adapter.ProcessPendingNotifications()

	ch.queue(atcmd.NotificationReady, atcmd.NotificationUnknown)
	adapter.ProcessPendingNotifications()

	want := JoinState{Connected: true, IPAssigned: true}
	if got := adapter.State(); got != want {
		t.Errorf("State() = %+v, want %+v", got, want)
	}
}

// TestProcessPendingNotificationsEmptyQueue ensures the drain is a no-op
// with nothing queued.
func TestProcessPendingNotificationsEmptyQueue(t *testing.T) {
	ch := newScriptChannel()
	adapter := New(ch, ch)

	adapter.ProcessPendingNotifications()

	if got := adapter.State(); got != (JoinState{}) {
		t.Errorf("State() = %+v, want zero state", got)
	}
}

// TestSetStorePolicy ensures the persistence command maps failures to the
// configuration-store code.
func TestSetStorePolicy(t *testing.T) {
	ch := newScriptChannel()
	adapter := New(ch, ch)

	if err := adapter.SetStorePolicy(true); err != nil {
		t.Fatalf("SetStorePolicy returned %v, want nil", err)
	}
	if names := ch.sentNames(); len(names) != 1 || names[0] != "storeMode" {
		t.Errorf("commands issued = %v, want [storeMode]", names)
	}

	ch.fail["storeMode"] = errors.New("flash write failed")
	if err := adapter.SetStorePolicy(false); !errors.Is(err, ErrConfigStoreFailed) {
		t.Errorf("SetStorePolicy returned %v, want ErrConfigStoreFailed", err)
	}

	ch.fail["storeMode"] = atcmd.ErrWouldBlock
	if err := adapter.SetStorePolicy(false); !errors.Is(err, ErrUnexpectedWouldBlock) {
		t.Errorf("SetStorePolicy returned %v, want ErrUnexpectedWouldBlock", err)
	}
}
