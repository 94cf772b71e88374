// Package simulation drives the island one tick at a time: input edges, the
// day clock, resource regeneration, hazards, and the build session all run
// inside Engine.Step on a single goroutine.
package simulation

import (
	"fmt"

	"github.com/gdhsf3701/island/internal/game/block"
	"github.com/gdhsf3701/island/internal/game/spatial"
)

// InputKind identifies an input event.
type InputKind int

const (
	// InputToggleBuild flips build mode.
	InputToggleBuild InputKind = iota
	// InputSelect selects the block type at Index.
	InputSelect
	// InputCommit requests a placement at the current pointer.
	InputCommit
	// InputAdvanceDay ends the current day immediately.
	InputAdvanceDay
	// InputSkipToNight ends the current day phase and starts the night.
	InputSkipToNight
	// InputHazard triggers Hazard with Damage immediately.
	InputHazard
	// InputPointer moves the pointer sample to Pointer.
	InputPointer
)

// String returns the kind name.
func (k InputKind) String() string {
	switch k {
	case InputToggleBuild:
		return "toggle_build"
	case InputSelect:
		return "select"
	case InputCommit:
		return "commit"
	case InputAdvanceDay:
		return "advance_day"
	case InputSkipToNight:
		return "skip_to_night"
	case InputHazard:
		return "hazard"
	case InputPointer:
		return "pointer"
	default:
		return fmt.Sprintf("input(%d)", int(k))
	}
}

// Input is one discrete input event. Only the fields relevant to Kind are read.
type Input struct {
	Kind    InputKind
	Index   int
	Hazard  block.HazardKind
	Damage  float64
	Pointer spatial.ScreenPoint
}

// ToggleBuild returns an InputToggleBuild event.
func ToggleBuild() Input { return Input{Kind: InputToggleBuild} }

// Select returns an InputSelect event for index.
func Select(index int) Input { return Input{Kind: InputSelect, Index: index} }

// Commit returns an InputCommit event.
func Commit() Input { return Input{Kind: InputCommit} }

// AdvanceDay returns an InputAdvanceDay event.
func AdvanceDay() Input { return Input{Kind: InputAdvanceDay} }

// SkipToNight returns an InputSkipToNight event.
func SkipToNight() Input { return Input{Kind: InputSkipToNight} }

// Hazard returns an InputHazard event.
func Hazard(kind block.HazardKind, damage float64) Input {
	return Input{Kind: InputHazard, Hazard: kind, Damage: damage}
}

// Pointer returns an InputPointer event.
func Pointer(x, y float64) Input {
	return Input{Kind: InputPointer, Pointer: spatial.ScreenPoint{X: x, Y: y}}
}

// String renders the event for logs.
func (in Input) String() string {
	switch in.Kind {
	case InputSelect:
		return fmt.Sprintf("select(%d)", in.Index)
	case InputHazard:
		return fmt.Sprintf("hazard(%s, %g)", in.Hazard, in.Damage)
	case InputPointer:
		return fmt.Sprintf("pointer(%g, %g)", in.Pointer.X, in.Pointer.Y)
	default:
		return in.Kind.String()
	}
}
