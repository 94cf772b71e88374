package block

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type defines a placeable block variant loaded from YAML.
type Type struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Order positions the type in the selection bar; ties sort by ID.
	Order int `yaml:"order"`
	// Cost is the resource units consumed per placement.
	Cost        int             `yaml:"cost"`
	MaxHealth   float64         `yaml:"max_health"`
	Resistances ResistanceTable `yaml:"resistances"`
}

// Validate checks that the type satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Cost >= 1,
// MaxHealth is finite and > 0, and every resistance names a known hazard.
func (t *Type) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("block type: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("block type %q: name must not be empty", t.ID)
	}
	if t.Cost < 1 {
		return fmt.Errorf("block type %q: cost must be >= 1, got %d", t.ID, t.Cost)
	}
	if !(t.MaxHealth > 0) || math.IsInf(t.MaxHealth, 1) {
		return fmt.Errorf("block type %q: max_health must be a finite number > 0, got %v", t.ID, t.MaxHealth)
	}
	if err := t.Resistances.Validate(); err != nil {
		return fmt.Errorf("block type %q: %w", t.ID, err)
	}
	return nil
}

// Resistance returns the type's resistance to k, defaulting to Normal.
func (t *Type) Resistance(k HazardKind) ResistanceLevel {
	return t.Resistances.Lookup(k)
}

// LoadTypeFromBytes parses a single block type from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Type with no unknown fields.
// Postcondition: Returns a validated *Type, or an error.
func LoadTypeFromBytes(data []byte) (*Type, error) {
	var t Type
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parsing block type YAML: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadTypes reads all *.yaml files in dir and returns the parsed types.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all types or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTypes(dir string) ([]*Type, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading block dir %q: %w", dir, err)
	}

	var types []*Type
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		t, err := LoadTypeFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		types = append(types, t)
	}
	return types, nil
}

// Catalog is the ordered, immutable set of block types available for
// selection.
type Catalog struct {
	types []*Type
	index map[string]int
}

// NewCatalog builds a Catalog sorted by Order then ID.
//
// Precondition: every type must validate; IDs must be unique.
// Postcondition: Returns a Catalog or an error naming the first violation.
func NewCatalog(types []*Type) (*Catalog, error) {
	sorted := make([]*Type, 0, len(types))
	seen := make(map[string]bool, len(types))
	for _, t := range types {
		if t == nil {
			return nil, fmt.Errorf("block.NewCatalog: nil type")
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("block.NewCatalog: %w", err)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("block.NewCatalog: duplicate type id %q", t.ID)
		}
		seen[t.ID] = true
		sorted = append(sorted, t)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID < sorted[j].ID
	})
	c := &Catalog{types: sorted, index: make(map[string]int, len(sorted))}
	for i, t := range sorted {
		c.index[t.ID] = i
	}
	return c, nil
}

// MustCatalog is NewCatalog that panics on error. Intended for tests and
// static tables.
func MustCatalog(types ...*Type) *Catalog {
	c, err := NewCatalog(types)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog loads every type in dir into a Catalog.
func LoadCatalog(dir string) (*Catalog, error) {
	types, err := LoadTypes(dir)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("block.LoadCatalog: no block types found in %q", dir)
	}
	return NewCatalog(types)
}

// Len returns the number of types.
func (c *Catalog) Len() int { return len(c.types) }

// At returns the type at selection index i.
func (c *Catalog) At(i int) (*Type, bool) {
	if i < 0 || i >= len(c.types) {
		return nil, false
	}
	return c.types[i], true
}

// Get returns the type with the given ID.
func (c *Catalog) Get(id string) (*Type, bool) {
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return c.types[i], true
}

// Index returns the selection index of id, or -1.
func (c *Catalog) Index(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}

// All returns the types in selection order.
//
// Postcondition: the returned slice is a copy; the Types are shared.
func (c *Catalog) All() []*Type {
	out := make([]*Type, len(c.types))
	copy(out, c.types)
	return out
}
