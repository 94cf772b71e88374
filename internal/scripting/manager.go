package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/gdhsf3701/island/internal/game/dice"
)

// BlockInfo is a snapshot of a live block passed to Lua.
type BlockInfo struct {
	ID        string
	Type      string
	X, Y, Z   int
	Health    float64
	MaxHealth float64
	// Condition is the damage band, such as "cracked".
	Condition string
}

// Manager owns one sandboxed LState and dispatches hooks into it.
//
// All methods are safe for concurrent use; hook calls are serialized because
// an LState is single-threaded.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	limit  int
	roller *dice.Roller
	logger *zap.Logger

	// LiveBlocks is injected after construction. nil reports no blocks.
	LiveBlocks func() []BlockInfo
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{roller: roller, logger: logger}
}

// LoadDir creates a fresh sandboxed VM, registers the engine module, and
// executes every *.lua file in dir in lexicographic order. Each file gets its
// own instruction budget of instLimit opcodes.
//
// Precondition: dir must be a readable directory.
// Postcondition: On success the new VM replaces any previously loaded one.
// On error the previous VM is kept.
func (m *Manager) LoadDir(dir string, instLimit int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting.Manager.LoadDir: reading %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	for _, path := range files {
		if err := withBudget(L, instLimit, func() error { return L.DoFile(path) }); err != nil {
			L.Close()
			return fmt.Errorf("scripting.Manager.LoadDir: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	old := m.state
	m.state = L
	m.limit = instLimit
	m.mu.Unlock()
	if old != nil {
		old.Close()
	}
	m.logger.Info("scripts loaded", zap.String("dir", dir), zap.Int("files", len(files)))
	return nil
}

// Loaded reports whether a VM is present.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != nil
}

// HasHook reports whether name is a global function in the loaded VM.
func (m *Manager) HasHook(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return false
	}
	return m.state.GetGlobal(name).Type() == lua.LTFunction
}

// CallHook calls the named global function and returns all of its results.
//
// Postcondition: Returns (nil, nil) when no VM is loaded or the hook is not
// defined. Lua runtime errors, including an exhausted instruction budget, are
// logged at Warn and returned.
func (m *Manager) CallHook(name string, args ...lua.LValue) ([]lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	L := m.state
	if L == nil {
		return nil, nil
	}
	fn := L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil, nil
	}

	top := L.GetTop()
	err := withBudget(L, m.limit, func() error {
		return L.CallByParam(lua.P{Fn: fn, NRet: lua.MultRet, Protect: true}, args...)
	})
	if err != nil {
		L.SetTop(top)
		m.logger.Warn("lua hook failed", zap.String("hook", name), zap.Error(err))
		return nil, fmt.Errorf("scripting.Manager.CallHook %q: %w", name, err)
	}
	n := L.GetTop() - top
	out := make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		out[i] = L.Get(top + 1 + i)
	}
	L.SetTop(top)
	return out, nil
}

// Close releases the loaded VM. Subsequent hook calls are no-ops.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}
