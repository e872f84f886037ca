package command

import (
	"context"
	"sync"
	"time"

	"github.com/radio-control/wsc/internal/config"
	"github.com/radio-control/wsc/internal/modem"
	"github.com/radio-control/wsc/internal/station"
	"github.com/radio-control/wsc/internal/telemetry"
)

// Orchestrator routes validated API intents to the station adapters.
//
// Adapters run over a single half-duplex AT channel, so all adapter work is
// serialized behind o.mu. Command timeout classes bound how long a caller
// waits; a timed-out command keeps running to completion in the background
// so the channel is never abandoned mid-exchange.
type Orchestrator struct {
	// Serializes adapter access across all commands.
	mu sync.Mutex

	// Telemetry hub for event publishing
	telemetryHub *telemetry.Hub

	// Configuration for timeout classes
	config *config.TimingConfig

	// Audit logger
	auditLogger AuditLogger

	// Modem manager for inventory and active selection
	modemManager ModemManager
}

// Compile-time assertion that modem.Manager implements ModemManager
var _ ModemManager = (*modem.Manager)(nil)

// Compile-time assertion that Orchestrator implements OrchestratorPort
var _ OrchestratorPort = (*Orchestrator)(nil)

// AuditLogger interface for writing audit records.
type AuditLogger interface {
	LogAction(ctx context.Context, action string, modemID string, result string, latency time.Duration)
}

// NewOrchestrator creates a new command orchestrator.
func NewOrchestrator(telemetryHub *telemetry.Hub, timingConfig *config.TimingConfig, modemManager ModemManager) *Orchestrator {
	return &Orchestrator{
		telemetryHub: telemetryHub,
		config:       timingConfig,
		modemManager: modemManager,
	}
}

// SetAuditLogger sets the audit logger.
func (o *Orchestrator) SetAuditLogger(logger AuditLogger) {
	o.auditLogger = logger
}

// Join associates a modem with an access point and reports the link state
// reached once the notification backlog is folded in.
func (o *Orchestrator) Join(ctx context.Context, modemID, ssid, key string) (station.JoinState, error) {
	start := time.Now()

	if ssid == "" {
		o.logAudit(ctx, "join", modemID, "BAD_REQUEST", time.Since(start))
		return station.JoinState{}, ErrInvalidParameter
	}

	adapter, err := o.resolveAdapter(ctx, "join", modemID, start)
	if err != nil {
		return station.JoinState{}, err
	}

	var state station.JoinState
	err = o.run(ctx, o.config.CommandTimeoutJoin, func() error {
		var joinErr error
		state, joinErr = adapter.Join(ssid, key)
		return joinErr
	})
	latency := time.Since(start)

	if err != nil {
		o.logAudit(ctx, "join", modemID, auditResult(err), latency)
		o.publishFaultEvent(modemID, err, "Failed to join access point")
		return station.JoinState{}, err
	}

	_ = o.modemManager.UpdateLink(modemID, state)

	o.logAudit(ctx, "join", modemID, "SUCCESS", latency)
	o.publishLinkStateEvent(modemID, state)

	return state, nil
}

// GetLinkState drains pending notifications and returns the current link
// state of a modem.
func (o *Orchestrator) GetLinkState(ctx context.Context, modemID string) (station.JoinState, error) {
	start := time.Now()

	adapter, err := o.resolveAdapter(ctx, "getLink", modemID, start)
	if err != nil {
		return station.JoinState{}, err
	}

	var state station.JoinState
	err = o.run(ctx, o.config.CommandTimeoutGetLink, func() error {
		adapter.ProcessPendingNotifications()
		state = adapter.State()
		return nil
	})
	latency := time.Since(start)

	if err != nil {
		o.logAudit(ctx, "getLink", modemID, auditResult(err), latency)
		return station.JoinState{}, err
	}

	_ = o.modemManager.UpdateLink(modemID, state)

	o.logAudit(ctx, "getLink", modemID, "SUCCESS", latency)

	return state, nil
}

// SelectModem selects the active modem for subsequent operations.
func (o *Orchestrator) SelectModem(ctx context.Context, modemID string) error {
	start := time.Now()

	if modemID == "" {
		o.logAudit(ctx, "selectModem", modemID, "BAD_REQUEST", time.Since(start))
		return ErrInvalidParameter
	}

	adapter, err := o.resolveAdapter(ctx, "selectModem", modemID, start)
	if err != nil {
		return err
	}

	if err := o.modemManager.SetActive(modemID); err != nil {
		o.logAudit(ctx, "selectModem", modemID, "NOT_FOUND", time.Since(start))
		return ErrNotFound
	}

	// Confirm the adapter is responsive before reporting the selection.
	var state station.JoinState
	err = o.run(ctx, o.config.CommandTimeoutSelectModem, func() error {
		adapter.ProcessPendingNotifications()
		state = adapter.State()
		return nil
	})
	latency := time.Since(start)

	if err != nil {
		o.logAudit(ctx, "selectModem", modemID, auditResult(err), latency)
		o.publishFaultEvent(modemID, err, "Failed to select modem")
		return err
	}

	_ = o.modemManager.UpdateLink(modemID, state)

	o.logAudit(ctx, "selectModem", modemID, "SUCCESS", latency)
	o.publishStateEvent(modemID)

	return nil
}

// SetPersistence selects whether the modem stores WiFi settings to flash.
func (o *Orchestrator) SetPersistence(ctx context.Context, modemID string, persist bool) error {
	start := time.Now()

	adapter, err := o.resolveAdapter(ctx, "setPersistence", modemID, start)
	if err != nil {
		return err
	}

	err = o.run(ctx, o.config.CommandTimeoutStore, func() error {
		return adapter.SetStorePolicy(persist)
	})
	latency := time.Since(start)

	if err != nil {
		o.logAudit(ctx, "setPersistence", modemID, auditResult(err), latency)
		o.publishFaultEvent(modemID, err, "Failed to set persistence policy")
		return err
	}

	o.logAudit(ctx, "setPersistence", modemID, "SUCCESS", latency)
	o.publishPersistenceEvent(modemID, persist)

	return nil
}

// resolveAdapter checks the modem exists and returns its adapter, logging
// the failure outcomes.
func (o *Orchestrator) resolveAdapter(ctx context.Context, action, modemID string, start time.Time) (*station.Adapter, error) {
	if o.modemManager == nil {
		o.logAudit(ctx, action, modemID, "UNAVAILABLE", time.Since(start))
		return nil, ErrUnavailable
	}
	if _, err := o.modemManager.GetModem(modemID); err != nil {
		o.logAudit(ctx, action, modemID, "NOT_FOUND", time.Since(start))
		return nil, ErrNotFound
	}

	adapter, err := o.modemManager.GetAdapter(modemID)
	if err != nil || adapter == nil {
		o.logAudit(ctx, action, modemID, "UNAVAILABLE", time.Since(start))
		return nil, ErrUnavailable
	}

	return adapter, nil
}

// run executes fn under the adapter serialization lock, bounded by the
// command timeout class. On timeout the caller gets ctx.Err() while fn
// finishes in the background still holding the lock.
func (o *Orchestrator) run(ctx context.Context, timeout time.Duration, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// auditResult maps an operation error to an audit outcome string.
func auditResult(err error) string {
	switch {
	case err == nil:
		return "SUCCESS"
	case err == context.DeadlineExceeded:
		return "BUSY"
	default:
		return "ERROR"
	}
}

// publishLinkStateEvent publishes a link state event.
func (o *Orchestrator) publishLinkStateEvent(modemID string, state station.JoinState) {
	if o.telemetryHub == nil {
		return
	}

	event := telemetry.Event{
		Type: "linkState",
		Data: map[string]interface{}{
			"modemId":    modemID,
			"connected":  state.Connected,
			"ipAssigned": state.IPAssigned,
			"ts":         time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := o.telemetryHub.PublishModem(modemID, event); err != nil {
		o.publishFaultEvent(modemID, err, "Failed to publish link state event")
	}
}

// publishPersistenceEvent publishes a persistence policy event.
func (o *Orchestrator) publishPersistenceEvent(modemID string, persist bool) {
	if o.telemetryHub == nil {
		return
	}

	event := telemetry.Event{
		Type: "persistenceChanged",
		Data: map[string]interface{}{
			"modemId": modemID,
			"persist": persist,
			"ts":      time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := o.telemetryHub.PublishModem(modemID, event); err != nil {
		o.publishFaultEvent(modemID, err, "Failed to publish persistence event")
	}
}

// publishStateEvent publishes a state event.
func (o *Orchestrator) publishStateEvent(modemID string) {
	if o.telemetryHub == nil {
		return
	}

	event := telemetry.Event{
		Type: "state",
		Data: map[string]interface{}{
			"modemId": modemID,
			"status":  "online",
			"ts":      time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := o.telemetryHub.PublishModem(modemID, event); err != nil {
		o.publishFaultEvent(modemID, err, "Failed to publish state event")
	}
}

// publishFaultEvent publishes a fault event.
func (o *Orchestrator) publishFaultEvent(modemID string, err error, message string) {
	if o.telemetryHub == nil {
		return
	}

	event := telemetry.Event{
		Type: "fault",
		Data: map[string]interface{}{
			"modemId": modemID,
			"code":    err.Error(),
			"message": message,
			"ts":      time.Now().UTC().Format(time.RFC3339),
		},
	}

	// A failed fault publish is not published again to avoid recursion.
	_ = o.telemetryHub.PublishModem(modemID, event)
}

// logAudit logs an audit record for a command action.
func (o *Orchestrator) logAudit(ctx context.Context, action, modemID, result string, latency time.Duration) {
	if o.auditLogger != nil {
		o.auditLogger.LogAction(ctx, action, modemID, result, latency)
	}
}
