package block

import (
	"math"

	"github.com/google/uuid"

	"github.com/gdhsf3701/island/internal/game/grid"
)

// Entity is a placed block occupying one grid cell.
type Entity struct {
	// ID uniquely identifies this runtime entity.
	ID string
	// Type is the block variant; shared, never mutated.
	Type *Type
	// Cell is fixed at placement.
	Cell grid.Cell

	health    float64
	destroyed bool
}

// NewID returns a fresh entity identifier.
func NewID() string {
	return "blk-" + uuid.NewString()
}

// NewEntity creates a live entity of type t at cell.
//
// Precondition: id must be non-empty; t must be non-nil and valid.
// Postcondition: Health() equals t.MaxHealth.
func NewEntity(id string, t *Type, cell grid.Cell) *Entity {
	return &Entity{ID: id, Type: t, Cell: cell, health: t.MaxHealth}
}

// Damage describes one application of hazard damage.
type Damage struct {
	Kind       HazardKind
	Level      ResistanceLevel
	Multiplier float64
	// Amount is the health actually removed: base damage times Multiplier.
	Amount float64
	// Remaining is the health after the hit; it may be negative.
	Remaining float64
	// Destroyed is true only on the hit that destroyed the entity.
	Destroyed bool
}

// Health returns the current health.
func (e *Entity) Health() float64 { return e.health }

// Alive reports whether the entity has not been destroyed.
func (e *Entity) Alive() bool { return !e.destroyed }

// ApplyDamage applies base damage of kind k scaled by the type's resistance.
//
// Precondition: base >= 0; negative and non-finite values are treated as 0 so
// health never increases and never becomes NaN.
// Postcondition: a destroyed entity is inert and returns the zero Damage.
// Destroyed is reported exactly once, on the transition to health <= 0.
func (e *Entity) ApplyDamage(k HazardKind, base float64) Damage {
	if e.destroyed {
		return Damage{}
	}
	if base < 0 || math.IsNaN(base) || math.IsInf(base, 0) {
		base = 0
	}
	level := e.Type.Resistance(k)
	mult := level.Multiplier()
	amount := base * mult
	e.health -= amount
	d := Damage{Kind: k, Level: level, Multiplier: mult, Amount: amount, Remaining: e.health}
	if e.health <= 0 {
		e.destroyed = true
		d.Destroyed = true
	}
	return d
}

// conditionBands maps the lowest health fraction of each band to its label,
// highest band first.
var conditionBands = []struct {
	atLeast float64
	label   string
}{
	{1, "unharmed"},
	{0.75, "cracked"},
	{0.5, "damaged"},
	{0.25, "badly damaged"},
}

// Condition describes the entity's health for status output: "unharmed" at
// full health, "destroyed" once destroyed, otherwise a band such as
// "badly damaged".
func (e *Entity) Condition() string {
	if e.destroyed {
		return "destroyed"
	}
	frac := e.health / e.Type.MaxHealth
	for _, b := range conditionBands {
		if frac >= b.atLeast {
			return b.label
		}
	}
	return "critically damaged"
}
