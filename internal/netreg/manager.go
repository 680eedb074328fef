package netreg

import (
	"fmt"
	"sync"
	"time"
)

// Modem represents one managed modem with its service and presence state.
type Modem struct {
	ID       string    `json:"id"`
	Model    string    `json:"model"`
	Status   string    `json:"status"`
	Version  int       `json:"protocolVersion"`
	LastSeen time.Time `json:"lastSeen,omitempty"`
}

// ModemList is the response shape for the modem inventory.
type ModemList struct {
	ActiveModemID string  `json:"activeModemId"`
	Items         []Modem `json:"items"`
}

// Manager owns the modem inventory and the active selection. Unlike the
// services it hands out, the manager is safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	modems   map[string]*Modem
	services map[string]*Service
	activeID string
}

// NewManager creates an empty modem manager.
func NewManager() *Manager {
	return &Manager{
		modems:   make(map[string]*Modem),
		services: make(map[string]*Service),
	}
}

// Add registers a modem and its service. The first modem added becomes the
// active one.
func (m *Manager) Add(id, model string, svc *Service) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.modems[id] = &Modem{
		ID:       id,
		Model:    model,
		Status:   "online",
		Version:  svc.ch.Version(),
		LastSeen: time.Now(),
	}
	m.services[id] = svc

	if m.activeID == "" {
		m.activeID = id
	}
}

// Remove drops a modem from the inventory and stops its service on the loop.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	svc, exists := m.services[id]
	if !exists {
		return fmt.Errorf("modem %s not found", id)
	}
	delete(m.modems, id)
	delete(m.services, id)
	if m.activeID == id {
		m.activeID = ""
	}

	svc.loop.Post(svc.Stop)
	return nil
}

// SetActive selects the active modem with an existence check.
func (m *Manager) SetActive(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.modems[id]; !exists {
		return fmt.Errorf("modem %s not found", id)
	}
	m.activeID = id
	return nil
}

// Active returns the active modem's ID and service.
func (m *Manager) Active() (string, *Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.activeID == "" {
		return "", nil, fmt.Errorf("no active modem")
	}
	return m.activeID, m.services[m.activeID], nil
}

// Get returns the service for a specific modem.
func (m *Manager) Get(id string) (*Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	svc, exists := m.services[id]
	if !exists {
		return nil, fmt.Errorf("modem %s not found", id)
	}
	return svc, nil
}

// UpdateStatus updates a modem's presence status.
func (m *Manager) UpdateStatus(id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	modem, exists := m.modems[id]
	if !exists {
		return fmt.Errorf("modem %s not found", id)
	}
	modem.Status = status
	modem.LastSeen = time.Now()
	return nil
}

// List returns the modem inventory.
func (m *Manager) List() *ModemList {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]Modem, 0, len(m.modems))
	for _, md := range m.modems {
		items = append(items, *md)
	}
	return &ModemList{
		ActiveModemID: m.activeID,
		Items:         items,
	}
}
