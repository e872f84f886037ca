// Package api defines ports (interfaces) for API server dependencies.
package api

import (
	"context"
	"net/http"

	"github.com/radio-control/wsc/internal/command"
	"github.com/radio-control/wsc/internal/modem"
	"github.com/radio-control/wsc/internal/station"
	"github.com/radio-control/wsc/internal/telemetry"
)

// OrchestratorPort defines the minimal interface the API needs from the orchestrator.
type OrchestratorPort interface {
	SelectModem(ctx context.Context, modemID string) error
	GetLinkState(ctx context.Context, modemID string) (station.JoinState, error)
	Join(ctx context.Context, modemID, ssid, key string) (station.JoinState, error)
	SetPersistence(ctx context.Context, modemID string, persist bool) error
}

// TelemetryPort defines the minimal interface the API needs from the telemetry hub.
type TelemetryPort interface {
	Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// ModemReadPort defines the minimal interface for modem read operations.
type ModemReadPort interface {
	GetModem(modemID string) (*modem.Modem, error)
	List() *modem.ModemList
}

// Compile-time assertions for port conformance
var _ OrchestratorPort = (*command.Orchestrator)(nil)
var _ TelemetryPort = (*telemetry.Hub)(nil)
var _ ModemReadPort = (*modem.Manager)(nil)
