package espmock

import (
	"errors"
	"testing"

	"github.com/radio-control/wsc/internal/atcmd"
	"github.com/radio-control/wsc/internal/station"
	"github.com/radio-control/wsc/internal/stationtest"
)

// TestConformance runs the shared channel conformance suite against the mock.
func TestConformance(t *testing.T) {
	stationtest.RunConformance(t, stationtest.Harness{
		NewChannel: func() (atcmd.CommandChannel, atcmd.NotificationSource) {
			mock := NewESPMock()
			return mock, mock
		},
		ScriptJoinBurst: func(_ atcmd.CommandChannel, src atcmd.NotificationSource) {
			src.(*ESPMock).SimulateJoinSuccess()
		},
	})
}

// TestESPMockImplementsPorts ensures the mock satisfies both atcmd ports.
func TestESPMockImplementsPorts(t *testing.T) {
	var _ atcmd.CommandChannel = (*ESPMock)(nil)
	var _ atcmd.NotificationSource = (*ESPMock)(nil)
}

// TestSendRecordsCommands ensures command traffic is captured in order.
func TestSendRecordsCommands(t *testing.T) {
	mock := NewESPMock()

	if _, err := mock.Send(atcmd.StationModeCommand{}); err != nil {
		t.Fatalf("Send returned %v, want nil", err)
	}
	if _, err := mock.Send(atcmd.AccessPointConnectCommand{SSID: "office", Key: "secret"}); err != nil {
		t.Fatalf("Send returned %v, want nil", err)
	}

	names := mock.CommandNames()
	if len(names) != 2 || names[0] != "stationMode" || names[1] != "connectAccessPoint" {
		t.Errorf("CommandNames() = %v, want [stationMode connectAccessPoint]", names)
	}
}

// TestFaultInjection ensures fault modes map to the transport outcomes.
func TestFaultInjection(t *testing.T) {
	mock := NewESPMock()

	mock.SetFaultMode("stationMode", FaultError)
	_, err := mock.Send(atcmd.StationModeCommand{})
	var failed *atcmd.CommandFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("Send returned %v, want *CommandFailedError", err)
	}
	if failed.Command != "stationMode" {
		t.Errorf("Command = %q, want stationMode", failed.Command)
	}

	mock.SetFaultMode("stationMode", FaultWouldBlock)
	if _, err := mock.Send(atcmd.StationModeCommand{}); !errors.Is(err, atcmd.ErrWouldBlock) {
		t.Errorf("Send returned %v, want ErrWouldBlock", err)
	}

	mock.ClearFaultModes()
	if _, err := mock.Send(atcmd.StationModeCommand{}); err != nil {
		t.Errorf("Send after ClearFaultModes returned %v, want nil", err)
	}
}

// TestNotificationQueue ensures queued notifications drain in arrival order.
func TestNotificationQueue(t *testing.T) {
	mock := NewESPMock()
	mock.QueueLine("WIFI CONNECTED")
	mock.QueueLine("WIFI GOT IP")

	first, ok := mock.PollNotification()
	if !ok || first != atcmd.NotificationWifiConnected {
		t.Errorf("first poll = (%v, %v), want (wifiConnected, true)", first, ok)
	}
	second, ok := mock.PollNotification()
	if !ok || second != atcmd.NotificationReceivedIP {
		t.Errorf("second poll = (%v, %v), want (receivedIP, true)", second, ok)
	}
	if _, ok := mock.PollNotification(); ok {
		t.Error("poll on empty queue returned ok=true, want false")
	}
}

// TestMockDrivesAdapterJoin exercises the full join flow against the mock.
func TestMockDrivesAdapterJoin(t *testing.T) {
	mock := NewESPMock()
	mock.SimulateJoinSuccess()

	adapter := station.New(mock, mock)
	state, err := adapter.Join("office", "secret")
	if err != nil {
		t.Fatalf("Join returned %v, want nil", err)
	}
	if !state.Connected || !state.IPAssigned {
		t.Errorf("state = %+v, want both flags true", state)
	}

	mock.SimulateLinkLoss()
	adapter.ProcessPendingNotifications()
	if got := adapter.State(); got.Connected || got.IPAssigned {
		t.Errorf("state after link loss = %+v, want both flags false", got)
	}
}

// TestReset ensures Reset clears traffic, queue and faults.
func TestReset(t *testing.T) {
	mock := NewESPMock()
	mock.SetFaultMode("stationMode", FaultError)
	mock.QueueLine("ready")
	_, _ = mock.Send(atcmd.StoreModeCommand{})

	mock.Reset()

	if len(mock.CommandNames()) != 0 {
		t.Error("Reset did not clear recorded commands")
	}
	if mock.PendingCount() != 0 {
		t.Error("Reset did not clear pending notifications")
	}
	if _, err := mock.Send(atcmd.StationModeCommand{}); err != nil {
		t.Errorf("Send after Reset returned %v, want nil", err)
	}
}
