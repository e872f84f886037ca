// Package espmock provides an ESP-AT-like mock command channel for testing
// and development. It implements both the command channel and the
// notification source consumed by the station adapter, with scriptable
// fault injection and a notification queue.
package espmock

import (
	"sync"
	"time"

	"github.com/radio-control/wsc/internal/atcmd"
)

// Fault injection modes.
const (
	FaultNone       = ""
	FaultError      = "ReturnError"      // modem answers with an error result
	FaultWouldBlock = "ReturnWouldBlock" // exchange does not complete synchronously
)

// ESPMock simulates an ESP-AT modem behind the atcmd ports.
type ESPMock struct {
	mu sync.Mutex

	// Recorded command traffic, in issue order.
	commands []atcmd.Command

	// Pending unsolicited notifications, in arrival order.
	pending []atcmd.Notification

	// Fault injection per command name; FaultNone entries succeed.
	faults map[string]string

	lastCommandTime time.Time
}

// NewESPMock creates a mock modem with no faults and nothing pending.
func NewESPMock() *ESPMock {
	return &ESPMock{
		faults: make(map[string]string),
	}
}

// Send implements atcmd.CommandChannel.
func (m *ESPMock) Send(cmd atcmd.Command) (*atcmd.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commands = append(m.commands, cmd)
	m.lastCommandTime = time.Now()

	switch m.faults[cmd.Name()] {
	case FaultError:
		return nil, &atcmd.CommandFailedError{Command: cmd.Name(), Result: "ERROR"}
	case FaultWouldBlock:
		return nil, atcmd.ErrWouldBlock
	}

	return &atcmd.Response{}, nil
}

// PollNotification implements atcmd.NotificationSource.
func (m *ESPMock) PollNotification() (atcmd.Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.pending) == 0 {
		return atcmd.NotificationUnknown, false
	}

	next := m.pending[0]
	m.pending = m.pending[1:]
	return next, true
}

// QueueNotification appends notifications to the pending queue in the
// order a modem would have delivered them.
func (m *ESPMock) QueueNotification(kinds ...atcmd.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, kinds...)
}

// QueueLine classifies a raw modem line and queues the result, so tests
// can script wire-level vocabulary.
func (m *ESPMock) QueueLine(line string) {
	m.QueueNotification(atcmd.Classify(line))
}

// SimulateJoinSuccess queues the notification burst a modem emits when an
// association completes.
func (m *ESPMock) SimulateJoinSuccess() {
	m.QueueNotification(atcmd.NotificationWifiConnected, atcmd.NotificationReceivedIP)
}

// SimulateLinkLoss queues a disconnect notification.
func (m *ESPMock) SimulateLinkLoss() {
	m.QueueNotification(atcmd.NotificationWifiDisconnected)
}

// SetFaultMode sets the fault injection mode for a command name.
func (m *ESPMock) SetFaultMode(commandName, mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[commandName] = mode
}

// ClearFaultModes removes all fault injection.
func (m *ESPMock) ClearFaultModes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults = make(map[string]string)
}

// Commands returns a copy of the recorded command traffic.
func (m *ESPMock) Commands() []atcmd.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]atcmd.Command, len(m.commands))
	copy(out, m.commands)
	return out
}

// CommandNames returns the names of the recorded commands, in issue order.
func (m *ESPMock) CommandNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.commands))
	for i, cmd := range m.commands {
		names[i] = cmd.Name()
	}
	return names
}

// PendingCount returns the number of queued notifications.
func (m *ESPMock) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// LastCommandTime returns the time of the last command.
func (m *ESPMock) LastCommandTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCommandTime
}

// Reset clears recorded traffic, pending notifications and faults.
func (m *ESPMock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = nil
	m.pending = nil
	m.faults = make(map[string]string)
}
