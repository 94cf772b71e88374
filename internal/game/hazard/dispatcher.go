// Package hazard applies typed disaster damage to every live block and picks
// the nightly hazard.
package hazard

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gdhsf3701/island/internal/game/block"
)

// DefaultDamage is the base damage used when no damage expression is configured.
const DefaultDamage = 25

// Population owns the live block set that hazards strike.
type Population interface {
	// LiveBlocks returns a snapshot of the live entities. Later changes to the
	// population must not affect the returned slice.
	LiveBlocks() []*block.Entity
	// Release removes a destroyed entity: its cell is freed and its
	// representation despawned.
	Release(e *block.Entity)
}

// Report summarizes one hazard.
type Report struct {
	Kind       block.HazardKind
	BaseDamage float64
	// Affected lists the IDs of every entity that took damage, in snapshot order.
	Affected []string
	// Destroyed lists the IDs of entities destroyed by this hazard.
	Destroyed []string
	// TotalDamage is the summed health removed across Affected.
	TotalDamage float64
}

// String renders a one-line summary such as
// "Acid Rain (25 base): 3 blocks hit, 1 destroyed".
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%g base): %d blocks hit", r.Kind.DisplayName(), r.BaseDamage, len(r.Affected))
	if n := len(r.Destroyed); n > 0 {
		fmt.Fprintf(&b, ", %d destroyed", n)
	}
	return b.String()
}

// Dispatcher broadcasts hazards to a Population.
type Dispatcher struct {
	pop    Population
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher.
//
// Precondition: pop and logger must be non-nil.
func NewDispatcher(pop Population, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{pop: pop, logger: logger}
}

// Trigger applies base damage of kind to every entity that is live when the
// hazard starts.
//
// Postcondition: each destroyed entity is released exactly once; entities
// that are no longer alive in the snapshot are skipped.
func (d *Dispatcher) Trigger(kind block.HazardKind, base float64) Report {
	rep := Report{Kind: kind, BaseDamage: base}
	for _, e := range d.pop.LiveBlocks() {
		if !e.Alive() {
			continue
		}
		dmg := e.ApplyDamage(kind, base)
		rep.Affected = append(rep.Affected, e.ID)
		rep.TotalDamage += dmg.Amount
		d.logger.Debug("hazard damage",
			zap.String("kind", string(kind)),
			zap.String("block", e.ID),
			zap.String("resistance", dmg.Level.String()),
			zap.Float64("amount", dmg.Amount),
			zap.Float64("remaining", dmg.Remaining),
		)
		if dmg.Destroyed {
			rep.Destroyed = append(rep.Destroyed, e.ID)
			d.pop.Release(e)
		}
	}
	d.logger.Info("hazard",
		zap.String("kind", string(kind)),
		zap.Float64("base", base),
		zap.Int("affected", len(rep.Affected)),
		zap.Int("destroyed", len(rep.Destroyed)),
	)
	return rep
}
