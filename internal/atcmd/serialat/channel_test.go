package serialat

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/radio-control/wsc/internal/atcmd"
	"github.com/radio-control/wsc/internal/stationtest"
)

// scriptPort is an in-memory stand-in for a serial port. Reads drain the
// scripted modem output; an exhausted script reads as zero progress, the
// same shape a timed-out port read has.
type scriptPort struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func newScriptPort(modemOutput string) *scriptPort {
	p := &scriptPort{}
	p.in.WriteString(modemOutput)
	return p
}

func (p *scriptPort) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *scriptPort) Write(b []byte) (int, error) { return p.out.Write(b) }

// okPort acknowledges every write with an OK result, like a healthy modem
// that accepts everything it is asked.
type okPort struct {
	in bytes.Buffer
}

func (p *okPort) Read(b []byte) (int, error) { return p.in.Read(b) }

func (p *okPort) Write(b []byte) (int, error) {
	p.in.WriteString("OK\r\n")
	return len(b), nil
}

// TestConformance runs the shared channel conformance suite over scripted
// serial traffic.
func TestConformance(t *testing.T) {
	stationtest.RunConformance(t, stationtest.Harness{
		NewChannel: func() (atcmd.CommandChannel, atcmd.NotificationSource) {
			ch := NewChannel(&okPort{}, time.Second)
			return ch, ch
		},
		ScriptJoinBurst: func(c atcmd.CommandChannel, _ atcmd.NotificationSource) {
			// Deliver the burst interleaved with an exchange so the
			// channel buffers it for the notification source.
			ch := c.(*Channel)
			ch.rw.(*okPort).in.WriteString("WIFI CONNECTED\r\nWIFI GOT IP\r\n")
			if _, err := ch.Send(atcmd.StationModeCommand{}); err != nil {
				t.Fatalf("burst delivery exchange failed: %v", err)
			}
		},
	})
}

// TestChannelImplementsPorts ensures the channel satisfies both atcmd ports.
func TestChannelImplementsPorts(t *testing.T) {
	var _ atcmd.CommandChannel = (*Channel)(nil)
	var _ atcmd.NotificationSource = (*Channel)(nil)
}

// TestSendFramesCommand ensures the outbound frame carries the AT prefix
// and terminator and the exchange completes on OK.
func TestSendFramesCommand(t *testing.T) {
	port := newScriptPort("AT+CWMODE=1\r\nOK\r\n")
	ch := NewChannel(port, time.Second)

	resp, err := ch.Send(atcmd.StationModeCommand{})
	if err != nil {
		t.Fatalf("Send returned %v, want nil", err)
	}
	if got := port.out.String(); got != "AT+CWMODE=1\r\n" {
		t.Errorf("wrote %q, want %q", got, "AT+CWMODE=1\r\n")
	}
	if len(resp.Lines) != 0 {
		t.Errorf("Lines = %v, want empty (echo and OK are not payload)", resp.Lines)
	}
}

// TestSendCollectsInformationalLines ensures non-terminal lines are returned.
func TestSendCollectsInformationalLines(t *testing.T) {
	port := newScriptPort("+SYSSTORE:1\r\nOK\r\n")
	ch := NewChannel(port, time.Second)

	resp, err := ch.Send(atcmd.StoreModeCommand{Persist: true})
	if err != nil {
		t.Fatalf("Send returned %v, want nil", err)
	}
	if len(resp.Lines) != 1 || resp.Lines[0] != "+SYSSTORE:1" {
		t.Errorf("Lines = %v, want [+SYSSTORE:1]", resp.Lines)
	}
}

// TestSendErrorResult ensures the modem's error final result code maps to
// a typed command failure.
func TestSendErrorResult(t *testing.T) {
	port := newScriptPort("ERROR\r\n")
	ch := NewChannel(port, time.Second)

	_, err := ch.Send(atcmd.AccessPointConnectCommand{SSID: "office", Key: "bad"})
	var failed *atcmd.CommandFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("Send returned %v, want *CommandFailedError", err)
	}
	if failed.Command != "connectAccessPoint" || failed.Result != "ERROR" {
		t.Errorf("failure = %+v, want connectAccessPoint/ERROR", failed)
	}
}

// TestSendBuffersInterleavedURCs ensures unsolicited lines arriving inside
// an exchange surface through the notification source, in arrival order.
func TestSendBuffersInterleavedURCs(t *testing.T) {
	port := newScriptPort("WIFI CONNECTED\r\nWIFI GOT IP\r\nOK\r\n")
	ch := NewChannel(port, time.Second)

	if _, err := ch.Send(atcmd.AccessPointConnectCommand{SSID: "office", Key: "secret"}); err != nil {
		t.Fatalf("Send returned %v, want nil", err)
	}

	first, ok := ch.PollNotification()
	if !ok || first != atcmd.NotificationWifiConnected {
		t.Errorf("first poll = (%v, %v), want (wifiConnected, true)", first, ok)
	}
	second, ok := ch.PollNotification()
	if !ok || second != atcmd.NotificationReceivedIP {
		t.Errorf("second poll = (%v, %v), want (receivedIP, true)", second, ok)
	}
	if _, ok := ch.PollNotification(); ok {
		t.Error("third poll returned ok=true, want false")
	}
}

// TestSendWouldBlock ensures a zero-progress read with no exchange budget
// reports the would-block outcome.
func TestSendWouldBlock(t *testing.T) {
	port := newScriptPort("")
	ch := NewChannel(port, 0)

	_, err := ch.Send(atcmd.StationModeCommand{})
	if !errors.Is(err, atcmd.ErrWouldBlock) {
		t.Errorf("Send returned %v, want ErrWouldBlock", err)
	}
}

// TestSendExchangeTimeout ensures a silent modem fails the exchange once
// the budget is spent.
func TestSendExchangeTimeout(t *testing.T) {
	port := newScriptPort("")
	ch := NewChannel(port, 5*time.Millisecond)

	_, err := ch.Send(atcmd.StationModeCommand{})
	var timeout *ExchangeTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("Send returned %v, want *ExchangeTimeoutError", err)
	}
	if timeout.Command != "stationMode" {
		t.Errorf("Command = %q, want stationMode", timeout.Command)
	}
}

// TestPollNotificationSweepsBufferedLines ensures URC bytes that arrived
// with earlier traffic are classified without touching the port.
func TestPollNotificationSweepsBufferedLines(t *testing.T) {
	// The whole script arrives in one read; the line after OK stays
	// buffered until the next poll.
	port := newScriptPort("OK\r\nWIFI DISCONNECT\r\n")
	ch := NewChannel(port, time.Second)

	if _, err := ch.Send(atcmd.StationModeCommand{}); err != nil {
		t.Fatalf("Send returned %v, want nil", err)
	}

	kind, ok := ch.PollNotification()
	if !ok || kind != atcmd.NotificationWifiDisconnected {
		t.Errorf("poll = (%v, %v), want (wifiDisconnected, true)", kind, ok)
	}
}

// TestPollNotificationNeverBlocks ensures polling an idle channel returns
// immediately with nothing pending.
func TestPollNotificationNeverBlocks(t *testing.T) {
	ch := NewChannel(newScriptPort(""), time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := ch.PollNotification(); ok {
			t.Error("poll on idle channel returned ok=true, want false")
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PollNotification blocked")
	}
}
