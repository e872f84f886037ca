package atcmd

import "testing"

// TestClassify ensures raw modem lines map to the closed notification set.
func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want Notification
	}{
		{"ready", NotificationReady},
		{"WIFI CONNECTED", NotificationWifiConnected},
		{"WIFI DISCONNECT", NotificationWifiDisconnected},
		{"WIFI GOT IP", NotificationReceivedIP},
		{"WIFI GOT IP:\"192.168.4.2\"", NotificationReceivedIP},
		{"  WIFI CONNECTED\r", NotificationWifiConnected},
		{"+CWJAP:3", NotificationUnknown},
		{"busy p...", NotificationUnknown},
		{"", NotificationUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.line); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

// TestIsURC ensures response traffic is not mistaken for unsolicited messages.
func TestIsURC(t *testing.T) {
	if !IsURC("WIFI GOT IP") {
		t.Error("IsURC(WIFI GOT IP) = false, want true")
	}
	if IsURC("OK") {
		t.Error("IsURC(OK) = true, want false")
	}
	if IsURC("ERROR") {
		t.Error("IsURC(ERROR) = true, want false")
	}
}

// TestNotificationString ensures diagnostic names are stable.
func TestNotificationString(t *testing.T) {
	tests := []struct {
		kind Notification
		want string
	}{
		{NotificationReady, "ready"},
		{NotificationWifiConnected, "wifiConnected"},
		{NotificationWifiDisconnected, "wifiDisconnected"},
		{NotificationReceivedIP, "receivedIP"},
		{NotificationUnknown, "unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
