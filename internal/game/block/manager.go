package block

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gdhsf3701/island/internal/game/grid"
)

// Manager tracks all live block entities by ID and by cell.
// All methods are safe for concurrent use.
//
// Invariant: at most one entity is registered per cell.
type Manager struct {
	mu     sync.RWMutex
	byID   map[string]*Entity
	byCell map[grid.Cell]*Entity
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		byID:   make(map[string]*Entity),
		byCell: make(map[grid.Cell]*Entity),
	}
}

// Spawn creates a new entity of type t at cell with a fresh ID and registers it.
//
// Precondition: t must be non-nil.
// Postcondition: Returns an error if cell is already owned.
func (m *Manager) Spawn(t *Type, cell grid.Cell) (*Entity, error) {
	if t == nil {
		return nil, fmt.Errorf("block.Manager.Spawn: type must not be nil")
	}
	e := NewEntity(NewID(), t, cell)
	if err := m.Add(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Add registers an existing live entity.
//
// Precondition: e must be non-nil and alive.
// Postcondition: Returns an error if e.ID or e.Cell is already registered.
func (m *Manager) Add(e *Entity) error {
	if e == nil || e.ID == "" {
		return fmt.Errorf("block.Manager.Add: entity must be non-nil with an id")
	}
	if !e.Alive() {
		return fmt.Errorf("block.Manager.Add: entity %q is destroyed", e.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[e.ID]; ok {
		return fmt.Errorf("block.Manager.Add: entity %q already registered", e.ID)
	}
	if owner, ok := m.byCell[e.Cell]; ok {
		return fmt.Errorf("block.Manager.Add: cell %s already owned by %q", e.Cell, owner.ID)
	}
	m.byID[e.ID] = e
	m.byCell[e.Cell] = e
	return nil
}

// Remove unregisters the entity with the given id.
//
// Postcondition: Returns an error if the entity is not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("block entity %q not found", id)
	}
	delete(m.byID, id)
	if m.byCell[e.Cell] == e {
		delete(m.byCell, e.Cell)
	}
	return nil
}

// Get returns the entity with the given ID.
func (m *Manager) Get(id string) (*Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byID[id]
	return e, ok
}

// At returns the entity owning cell.
func (m *Manager) At(cell grid.Cell) (*Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byCell[cell]
	return e, ok
}

// Len returns the number of registered entities.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// Snapshot returns the registered entities sorted by ID.
//
// Postcondition: Returns a non-nil slice that later registry changes do not
// affect.
func (m *Manager) Snapshot() []*Entity {
	m.mu.RLock()
	out := make([]*Entity, 0, len(m.byID))
	for _, e := range m.byID {
		out = append(out, e)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CountByType returns the number of live entities per type ID.
func (m *Manager) CountByType() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	for _, e := range m.byID {
		out[e.Type.ID]++
	}
	return out
}
