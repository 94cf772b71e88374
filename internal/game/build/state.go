// Package build implements the build session: aim, validate, pay, and
// place blocks one tick at a time.
package build

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gdhsf3701/island/internal/game/block"
	"github.com/gdhsf3701/island/internal/game/economy"
	"github.com/gdhsf3701/island/internal/game/grid"
	"github.com/gdhsf3701/island/internal/game/placement"
)

// PreviewState is the placement preview signal.
type PreviewState int

const (
	// PreviewHidden means there is nothing to preview: build mode is off or
	// no aim candidate was found.
	PreviewHidden PreviewState = iota
	// PreviewNoResources means the selected type is unaffordable.
	PreviewNoResources
	// PreviewInvalidPosition means the target cell was rejected.
	PreviewInvalidPosition
	// PreviewValid means a commit would succeed.
	PreviewValid
)

// String returns the state name.
func (s PreviewState) String() string {
	switch s {
	case PreviewHidden:
		return "hidden"
	case PreviewNoResources:
		return "no resources"
	case PreviewInvalidPosition:
		return "invalid position"
	case PreviewValid:
		return "valid"
	default:
		return fmt.Sprintf("preview(%d)", int(s))
	}
}

// previewState applies the precedence no-resources, then invalid-position,
// then valid.
func previewState(affordable bool, v placement.Verdict) PreviewState {
	switch {
	case !affordable:
		return PreviewNoResources
	case !v.OK():
		return PreviewInvalidPosition
	default:
		return PreviewValid
	}
}

// Reason explains a rejected commit.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonModeOff
	ReasonNoTarget
	ReasonInsufficientResources
	ReasonInvalidPosition
	ReasonSpawnFailed
)

// String returns the user-facing reason text.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonModeOff:
		return "building mode off"
	case ReasonNoTarget:
		return "no target"
	case ReasonInsufficientResources:
		return "insufficient resources"
	case ReasonInvalidPosition:
		return "invalid position"
	case ReasonSpawnFailed:
		return "spawn failed"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Preview is the placement preview shown to the player.
type Preview struct {
	State PreviewState
	// TypeID is the selected block type.
	TypeID string
	// Cell and Position are meaningful unless State is PreviewHidden.
	Cell     grid.Cell
	Position r3.Vec
	Verdict  placement.Verdict
}

// Visible reports whether the preview should be drawn.
func (p Preview) Visible() bool { return p.State != PreviewHidden }

// Frame is the outcome of one Tick.
type Frame struct {
	Preview Preview
	// Committed is true when the tick carried a commit signal.
	Committed bool
	// Placed is the new entity on a successful commit.
	Placed *block.Entity
	// Reason is ReasonNone unless a commit was rejected.
	Reason Reason
}

// Spawner instantiates and destroys the representation of a placed block.
type Spawner interface {
	Spawn(id, typeID string, center r3.Vec) error
	Despawn(id string)
}

// Sink observes the build session. It also receives the resource ledger's
// notifications.
//
// Sink methods run on the simulation goroutine while the Controller holds its
// lock; they must not call back into the Controller.
type Sink interface {
	economy.Listener
	PreviewChanged(p Preview)
	BuildModeChanged(on bool)
	SelectionChanged(t *block.Type)
	BuildSucceeded(e *block.Entity)
	BuildFailed(r Reason)
	BlockRemoved(e *block.Entity)
}

// NopSink ignores every notification.
type NopSink struct {
	economy.NopListener
}

func (NopSink) PreviewChanged(Preview)       {}
func (NopSink) BuildModeChanged(bool)        {}
func (NopSink) SelectionChanged(*block.Type) {}
func (NopSink) BuildSucceeded(*block.Entity) {}
func (NopSink) BuildFailed(Reason)           {}
func (NopSink) BlockRemoved(*block.Entity)   {}
