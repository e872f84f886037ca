// Package stationtest provides a vendor-agnostic conformance suite for
// command-channel implementations. Any channel the station adapter is
// expected to run over (serial, mock, future transports) must pass it.
package stationtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/radio-control/wsc/internal/atcmd"
	"github.com/radio-control/wsc/internal/station"
)

// Harness builds the channel under test. NewChannel must return a fresh
// channel pair scripted so that every command succeeds; ScriptJoinBurst,
// when non-nil, arranges for the connected/got-IP notification burst to be
// pending on the returned channel.
type Harness struct {
	NewChannel      func() (atcmd.CommandChannel, atcmd.NotificationSource)
	ScriptJoinBurst func(ch atcmd.CommandChannel, src atcmd.NotificationSource)
}

// Result records one conformance check.
type Result struct {
	TestName string
	Passed   bool
	Error    string
	Duration time.Duration
}

// Report is the aggregate outcome of a conformance run.
type Report struct {
	TotalTests  int
	PassedTests int
	Results     []Result
}

func (r *Report) add(name string, start time.Time, err error) {
	res := Result{
		TestName: name,
		Passed:   err == nil,
		Duration: time.Since(start),
	}
	if err != nil {
		res.Error = err.Error()
	}
	r.TotalTests++
	if res.Passed {
		r.PassedTests++
	}
	r.Results = append(r.Results, res)
}

// RunConformance runs the suite and fails the test on any violation.
func RunConformance(t *testing.T, h Harness) {
	t.Helper()

	report := &Report{}

	report.add("Send_StationMode", time.Now(), checkSendStationMode(h))
	report.add("Send_ConnectAccessPoint", time.Now(), checkSendConnect(h))
	report.add("Poll_EmptyNeverBlocks", time.Now(), checkEmptyPoll(h))
	report.add("Poll_ArrivalOrder", time.Now(), checkArrivalOrder(h))
	report.add("Adapter_JoinFlow", time.Now(), checkJoinFlow(h))

	for _, res := range report.Results {
		if !res.Passed {
			t.Errorf("conformance %s failed: %s", res.TestName, res.Error)
		}
	}
	if report.PassedTests != report.TotalTests {
		t.Fatalf("channel conformance failed: %d/%d checks passed", report.PassedTests, report.TotalTests)
	}
}

func checkSendStationMode(h Harness) error {
	ch, _ := h.NewChannel()
	resp, err := ch.Send(atcmd.StationModeCommand{})
	if err != nil {
		return fmt.Errorf("station-mode send failed: %w", err)
	}
	if resp == nil {
		return fmt.Errorf("station-mode send returned nil response with nil error")
	}
	return nil
}

func checkSendConnect(h Harness) error {
	ch, _ := h.NewChannel()
	resp, err := ch.Send(atcmd.AccessPointConnectCommand{SSID: "conformance", Key: "secret"})
	if err != nil {
		return fmt.Errorf("connect send failed: %w", err)
	}
	if resp == nil {
		return fmt.Errorf("connect send returned nil response with nil error")
	}
	return nil
}

func checkEmptyPoll(h Harness) error {
	_, src := h.NewChannel()

	done := make(chan bool, 1)
	go func() {
		_, ok := src.PollNotification()
		done <- ok
	}()

	select {
	case ok := <-done:
		if ok {
			return fmt.Errorf("poll on a fresh channel reported a pending notification")
		}
		return nil
	case <-time.After(time.Second):
		return fmt.Errorf("poll blocked on an empty channel")
	}
}

func checkArrivalOrder(h Harness) error {
	if h.ScriptJoinBurst == nil {
		return nil
	}

	ch, src := h.NewChannel()
	h.ScriptJoinBurst(ch, src)

	var seen []atcmd.Notification
	for {
		kind, ok := src.PollNotification()
		if !ok {
			break
		}
		seen = append(seen, kind)
	}

	if len(seen) != 2 ||
		seen[0] != atcmd.NotificationWifiConnected ||
		seen[1] != atcmd.NotificationReceivedIP {
		return fmt.Errorf("join burst drained as %v, want [wifiConnected receivedIP]", seen)
	}
	return nil
}

func checkJoinFlow(h Harness) error {
	ch, src := h.NewChannel()
	if h.ScriptJoinBurst != nil {
		h.ScriptJoinBurst(ch, src)
	}

	adapter := station.New(ch, src)
	state, err := adapter.Join("conformance", "secret")
	if err != nil {
		return fmt.Errorf("join over channel failed: %w", err)
	}

	if h.ScriptJoinBurst != nil && (!state.Connected || !state.IPAssigned) {
		return fmt.Errorf("join state = %+v, want both flags set after scripted burst", state)
	}
	return nil
}
