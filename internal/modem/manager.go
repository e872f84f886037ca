//
//
package modem

import (
	"fmt"
	"sync"
	"time"

	"github.com/radio-control/wsc/internal/station"
)

// Modem represents a single WiFi modem with its link snapshot.
type Modem struct {
	ID       string            `json:"id"`
	Model    string            `json:"model"`
	Status   string            `json:"status"`
	Link     station.JoinState `json:"link"`
	LastSeen time.Time         `json:"lastSeen,omitempty"`
}

// ModemList represents the response format for GET /modems.
type ModemList struct {
	ActiveModemID string  `json:"activeModemId"`
	Items         []Modem `json:"items"`
}

// Manager manages modem inventory, link snapshots, and active selection.
type Manager struct {
	mu            sync.RWMutex
	modems        map[string]*Modem
	activeModemID string
	adapters      map[string]*station.Adapter
}

// NewManager creates a new modem manager.
func NewManager() *Manager {
	return &Manager{
		modems:   make(map[string]*Modem),
		adapters: make(map[string]*station.Adapter),
	}
}

// Register adds a modem with its station adapter. The first registered
// modem becomes the active one.
func (m *Manager) Register(modemID, model string, adapter *station.Adapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.modems[modemID]; exists {
		return fmt.Errorf("modem %s already registered", modemID)
	}

	m.adapters[modemID] = adapter
	m.modems[modemID] = &Modem{
		ID:       modemID,
		Model:    model,
		Status:   "online",
		Link:     adapter.State(),
		LastSeen: time.Now(),
	}

	if m.activeModemID == "" {
		m.activeModemID = modemID
	}

	return nil
}

// SetActive sets the active modem with existence check.
func (m *Manager) SetActive(modemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.modems[modemID]; !exists {
		return fmt.Errorf("modem %s not found", modemID)
	}

	m.activeModemID = modemID
	return nil
}

// GetActive returns the active modem ID.
func (m *Manager) GetActive() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeModemID
}

// GetActiveModem returns the active modem object.
func (m *Manager) GetActiveModem() *Modem {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.activeModemID == "" {
		return nil
	}

	return m.modems[m.activeModemID]
}

// GetAdapter returns the station adapter for a modem.
func (m *Manager) GetAdapter(modemID string) (*station.Adapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	adapter, exists := m.adapters[modemID]
	if !exists {
		return nil, fmt.Errorf("no adapter for modem %s", modemID)
	}

	return adapter, nil
}

// GetActiveAdapter returns the adapter for the active modem.
func (m *Manager) GetActiveAdapter() (*station.Adapter, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.activeModemID == "" {
		return nil, "", fmt.Errorf("no active modem")
	}

	adapter, exists := m.adapters[m.activeModemID]
	if !exists {
		return nil, "", fmt.Errorf("no adapter for active modem %s", m.activeModemID)
	}

	return adapter, m.activeModemID, nil
}

// List returns the modem inventory with the active selection.
func (m *Manager) List() *ModemList {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]Modem, 0, len(m.modems))
	for _, md := range m.modems {
		items = append(items, *md)
	}

	return &ModemList{
		ActiveModemID: m.activeModemID,
		Items:         items,
	}
}

// GetModem returns a specific modem by ID.
func (m *Manager) GetModem(modemID string) (*Modem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	md, exists := m.modems[modemID]
	if !exists {
		return nil, fmt.Errorf("modem %s not found", modemID)
	}

	return md, nil
}

// UpdateLink updates the link snapshot of a modem.
func (m *Manager) UpdateLink(modemID string, link station.JoinState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	md, exists := m.modems[modemID]
	if !exists {
		return fmt.Errorf("modem %s not found", modemID)
	}

	md.Link = link
	md.LastSeen = time.Now()
	md.Status = "online"

	return nil
}

// UpdateStatus updates the status of a modem.
func (m *Manager) UpdateStatus(modemID string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	md, exists := m.modems[modemID]
	if !exists {
		return fmt.Errorf("modem %s not found", modemID)
	}

	md.Status = status
	md.LastSeen = time.Now()

	return nil
}

// RemoveModem removes a modem from the inventory.
func (m *Manager) RemoveModem(modemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.modems[modemID]; !exists {
		return fmt.Errorf("modem %s not found", modemID)
	}

	delete(m.modems, modemID)
	delete(m.adapters, modemID)

	if m.activeModemID == modemID {
		m.activeModemID = ""
	}

	return nil
}
