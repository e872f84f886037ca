// Package command defines ports (interfaces) for orchestrator operations.
package command

import (
	"context"
	"errors"

	"github.com/radio-control/wsc/internal/modem"
	"github.com/radio-control/wsc/internal/station"
)

// OrchestratorPort defines the minimal interface the API needs from the orchestrator.
type OrchestratorPort interface {
	SelectModem(ctx context.Context, modemID string) error
	GetLinkState(ctx context.Context, modemID string) (station.JoinState, error)
	Join(ctx context.Context, modemID, ssid, key string) (station.JoinState, error)
	SetPersistence(ctx context.Context, modemID string, persist bool) error
}

// ModemManager is the inventory surface the orchestrator needs.
type ModemManager interface {
	GetModem(modemID string) (*modem.Modem, error)
	GetAdapter(modemID string) (*station.Adapter, error)
	SetActive(modemID string) error
	UpdateLink(modemID string, link station.JoinState) error
}

// ErrNotFound indicates a requested modem was not found.
var ErrNotFound = errors.New("NOT_FOUND")

// ErrInvalidParameter indicates a required parameter is missing or structurally invalid.
var ErrInvalidParameter = errors.New("BAD_REQUEST")

// ErrUnavailable indicates the modem or its adapter is not reachable.
var ErrUnavailable = errors.New("UNAVAILABLE")
