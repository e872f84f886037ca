package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/radio-control/wsc/internal/config"
	"github.com/radio-control/wsc/internal/modem"
	"github.com/radio-control/wsc/internal/station"
	"github.com/radio-control/wsc/internal/station/espmock"
	"github.com/radio-control/wsc/internal/telemetry"
)

// recordingAudit captures audit records for assertions.
type recordingAudit struct {
	mu      sync.Mutex
	entries []string
}

func (a *recordingAudit) LogAction(ctx context.Context, action, modemID, result string, latency time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, action+"/"+modemID+"/"+result)
}

func (a *recordingAudit) last() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.entries) == 0 {
		return ""
	}
	return a.entries[len(a.entries)-1]
}

type fixture struct {
	orchestrator *Orchestrator
	manager      *modem.Manager
	mock         *espmock.ESPMock
	audit        *recordingAudit
	hub          *telemetry.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.LoadBaseline()
	hub := telemetry.NewHub(cfg)
	t.Cleanup(hub.Stop)

	mock := espmock.NewESPMock()
	manager := modem.NewManager()
	if err := manager.Register("esp32-01", "ESP32-AT", station.New(mock, mock)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	audit := &recordingAudit{}
	orchestrator := NewOrchestrator(hub, cfg, manager)
	orchestrator.SetAuditLogger(audit)

	return &fixture{
		orchestrator: orchestrator,
		manager:      manager,
		mock:         mock,
		audit:        audit,
		hub:          hub,
	}
}

func TestJoinSuccess(t *testing.T) {
	f := newFixture(t)
	f.mock.SimulateJoinSuccess()

	state, err := f.orchestrator.Join(context.Background(), "esp32-01", "office", "secret")
	if err != nil {
		t.Fatalf("Join returned %v, want nil", err)
	}
	if !state.Connected || !state.IPAssigned {
		t.Errorf("state = %+v, want both flags true", state)
	}

	// Inventory carries the new link snapshot
	md, err := f.manager.GetModem("esp32-01")
	if err != nil {
		t.Fatalf("GetModem: %v", err)
	}
	if md.Link != state {
		t.Errorf("inventory link = %+v, want %+v", md.Link, state)
	}

	if got := f.audit.last(); got != "join/esp32-01/SUCCESS" {
		t.Errorf("audit = %q, want join/esp32-01/SUCCESS", got)
	}
}

func TestJoinEmptySSID(t *testing.T) {
	f := newFixture(t)

	_, err := f.orchestrator.Join(context.Background(), "esp32-01", "", "secret")
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("Join returned %v, want ErrInvalidParameter", err)
	}
	if len(f.mock.CommandNames()) != 0 {
		t.Errorf("commands issued on rejected join: %v", f.mock.CommandNames())
	}
	if got := f.audit.last(); got != "join/esp32-01/BAD_REQUEST" {
		t.Errorf("audit = %q, want join/esp32-01/BAD_REQUEST", got)
	}
}

func TestJoinOverlongCredentials(t *testing.T) {
	f := newFixture(t)

	longSSID := make([]byte, station.MaxSSIDLength+1)
	for i := range longSSID {
		longSSID[i] = 'a'
	}

	_, err := f.orchestrator.Join(context.Background(), "esp32-01", string(longSSID), "secret")
	if !errors.Is(err, station.ErrInvalidSSIDLength) {
		t.Fatalf("Join returned %v, want ErrInvalidSSIDLength", err)
	}
	if got := f.audit.last(); got != "join/esp32-01/ERROR" {
		t.Errorf("audit = %q, want join/esp32-01/ERROR", got)
	}
}

func TestJoinUnknownModem(t *testing.T) {
	f := newFixture(t)

	_, err := f.orchestrator.Join(context.Background(), "no-such-modem", "office", "secret")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Join returned %v, want ErrNotFound", err)
	}
}

func TestJoinTransportFault(t *testing.T) {
	f := newFixture(t)
	f.mock.SetFaultMode("connectAccessPoint", espmock.FaultError)

	_, err := f.orchestrator.Join(context.Background(), "esp32-01", "office", "secret")
	if !errors.Is(err, station.ErrConnectFailed) {
		t.Fatalf("Join returned %v, want ErrConnectFailed", err)
	}
	if got := f.audit.last(); got != "join/esp32-01/ERROR" {
		t.Errorf("audit = %q, want join/esp32-01/ERROR", got)
	}
}

func TestGetLinkStateFoldsNotifications(t *testing.T) {
	f := newFixture(t)
	f.mock.SimulateJoinSuccess()
	if _, err := f.orchestrator.Join(context.Background(), "esp32-01", "office", "secret"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	f.mock.SimulateLinkLoss()

	state, err := f.orchestrator.GetLinkState(context.Background(), "esp32-01")
	if err != nil {
		t.Fatalf("GetLinkState returned %v, want nil", err)
	}
	if state.Connected || state.IPAssigned {
		t.Errorf("state after link loss = %+v, want both flags false", state)
	}

	md, _ := f.manager.GetModem("esp32-01")
	if md.Link.Connected || md.Link.IPAssigned {
		t.Errorf("inventory link = %+v, want cleared", md.Link)
	}
}

func TestGetLinkStateUnknownModem(t *testing.T) {
	f := newFixture(t)

	_, err := f.orchestrator.GetLinkState(context.Background(), "no-such-modem")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetLinkState returned %v, want ErrNotFound", err)
	}
}

func TestSelectModem(t *testing.T) {
	f := newFixture(t)
	other := espmock.NewESPMock()
	if err := f.manager.Register("esp32-02", "ESP32-AT", station.New(other, other)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := f.orchestrator.SelectModem(context.Background(), "esp32-02"); err != nil {
		t.Fatalf("SelectModem returned %v, want nil", err)
	}
	if got := f.manager.GetActive(); got != "esp32-02" {
		t.Errorf("active modem = %q, want esp32-02", got)
	}

	if err := f.orchestrator.SelectModem(context.Background(), ""); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("SelectModem(\"\") returned %v, want ErrInvalidParameter", err)
	}
	if err := f.orchestrator.SelectModem(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SelectModem(ghost) returned %v, want ErrNotFound", err)
	}
}

func TestSetPersistence(t *testing.T) {
	f := newFixture(t)

	if err := f.orchestrator.SetPersistence(context.Background(), "esp32-01", true); err != nil {
		t.Fatalf("SetPersistence returned %v, want nil", err)
	}

	names := f.mock.CommandNames()
	if len(names) != 1 || names[0] != "storeMode" {
		t.Errorf("commands = %v, want [storeMode]", names)
	}
	if got := f.audit.last(); got != "setPersistence/esp32-01/SUCCESS" {
		t.Errorf("audit = %q, want setPersistence/esp32-01/SUCCESS", got)
	}
}

func TestSetPersistenceFault(t *testing.T) {
	f := newFixture(t)
	f.mock.SetFaultMode("storeMode", espmock.FaultError)

	err := f.orchestrator.SetPersistence(context.Background(), "esp32-01", false)
	if !errors.Is(err, station.ErrConfigStoreFailed) {
		t.Fatalf("SetPersistence returned %v, want ErrConfigStoreFailed", err)
	}
}

func TestCommandsSerializeOnSharedChannel(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.orchestrator.GetLinkState(context.Background(), "esp32-01")
			_ = f.orchestrator.SetPersistence(context.Background(), "esp32-01", true)
		}()
	}
	wg.Wait()

	// All storeMode commands went through; the channel was never abandoned
	names := f.mock.CommandNames()
	if len(names) != 8 {
		t.Errorf("recorded %d commands, want 8", len(names))
	}
}
