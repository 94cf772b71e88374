package simulation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/gdhsf3701/island/internal/game/block"
	"github.com/gdhsf3701/island/internal/game/build"
	"github.com/gdhsf3701/island/internal/game/daycycle"
	"github.com/gdhsf3701/island/internal/game/economy"
	"github.com/gdhsf3701/island/internal/game/grid"
	"github.com/gdhsf3701/island/internal/game/hazard"
	"github.com/gdhsf3701/island/internal/game/spatial"
	"github.com/gdhsf3701/island/internal/scripting"
)

// dayBuffer bounds the clock events queued between drains. The engine drains
// after every clock-changing input, so at most two events are ever pending.
const dayBuffer = 8

// Config controls the tick loop.
type Config struct {
	// TickInterval is the wall-clock period of Run.
	TickInterval time.Duration
	// AdvanceClock advances the day clock by one tick per Step.
	AdvanceClock bool
}

// Validate checks that c is usable.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("simulation config: tick_interval must be > 0, got %s", c.TickInterval)
	}
	return nil
}

// Frame is the input gathered for one Step. Edge events apply in order.
type Frame struct {
	Inputs []Input
}

// StepResult describes everything one Step did.
type StepResult struct {
	Tick  uint64
	Day   int
	Phase daycycle.Phase
	// DayEvents are the clock transitions that happened during the step.
	DayEvents []daycycle.Event
	// Regenerations counts ledger refills triggered by NewDay events.
	Regenerations int
	// Hazards holds reports for manual and nightly hazards, in order.
	Hazards []hazard.Report
	Build   build.Frame
	// Errors collects rejected inputs such as an out-of-range selection.
	Errors []error
}

// Status is a read-only summary for display. Published values are never
// modified; callers must not modify them either.
type Status struct {
	Day   int
	Phase daycycle.Phase
	// Progress is the fraction of the phase elapsed, in [0, 1).
	Progress  float64
	Remaining int
	BuildMode bool
	Selected  string
	Blocks    int
	// Placed counts standing blocks per type ID.
	Placed map[string]int
	// Damaged lists standing blocks below full health, sorted by ID.
	Damaged   []BlockCondition
	Resources string
}

// BlockCondition is one damaged block in a Status.
type BlockCondition struct {
	Name      string
	Cell      grid.Cell
	Health    float64
	MaxHealth float64
	Condition string
}

// Engine owns the simulation ordering: every state change happens inside
// Step, and Step calls are serialized.
type Engine struct {
	cfg        Config
	ctrl       *build.Controller
	clock      *daycycle.Clock
	dispatcher *hazard.Dispatcher
	director   *hazard.Director
	logger     *zap.Logger

	dayCh    chan daycycle.Event
	ledgerCh chan daycycle.Event

	mu        sync.Mutex
	pointer   spatial.ScreenPoint
	tick      uint64
	observers []func(StepResult)

	// status is replaced at the end of every Step so readers on other
	// goroutines never touch entity state.
	status atomic.Pointer[Status]
}

// NewEngine creates an Engine and subscribes it and the controller's ledger
// to clock.
//
// Precondition: cfg must validate; ctrl, clock and logger must be non-nil.
// director may be nil to disable nightly hazards.
func NewEngine(cfg Config, ctrl *build.Controller, clock *daycycle.Clock, director *hazard.Director, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("simulation.NewEngine: %w", err)
	}
	if ctrl == nil || clock == nil || logger == nil {
		return nil, fmt.Errorf("simulation.NewEngine: controller, clock and logger must not be nil")
	}
	e := &Engine{
		cfg:        cfg,
		ctrl:       ctrl,
		clock:      clock,
		dispatcher: hazard.NewDispatcher(ctrl, logger),
		director:   director,
		logger:     logger,
		dayCh:      make(chan daycycle.Event, dayBuffer),
		ledgerCh:   make(chan daycycle.Event, dayBuffer),
	}
	clock.Subscribe(e.dayCh)
	clock.Subscribe(e.ledgerCh)
	e.publishLocked()
	return e, nil
}

// OnStep registers fn to receive every StepResult. fn runs on the stepping
// goroutine after the step completes.
func (e *Engine) OnStep(fn func(StepResult)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// Step applies f's inputs in order, advances the clock when configured,
// handles the resulting day events, then runs one build tick at the latest
// pointer with the frame's commit signal.
func (e *Engine) Step(f Frame) StepResult {
	e.mu.Lock()
	e.tick++
	res := StepResult{Tick: e.tick}
	commit := false

	for _, in := range f.Inputs {
		switch in.Kind {
		case InputPointer:
			e.pointer = in.Pointer
		case InputToggleBuild:
			e.ctrl.ToggleBuildMode()
		case InputSelect:
			if err := e.ctrl.Select(in.Index); err != nil {
				res.Errors = append(res.Errors, err)
			}
		case InputCommit:
			commit = true
		case InputAdvanceDay:
			e.clock.StartNewDay()
			e.drainLocked(&res)
		case InputSkipToNight:
			if _, ok := e.clock.SkipToNight(); !ok {
				res.Errors = append(res.Errors, fmt.Errorf("already night"))
			}
			e.drainLocked(&res)
		case InputHazard:
			res.Hazards = append(res.Hazards, e.dispatcher.Trigger(in.Hazard, in.Damage))
		default:
			res.Errors = append(res.Errors, fmt.Errorf("unknown input %s", in))
		}
	}

	if e.cfg.AdvanceClock {
		e.clock.Advance()
	}
	e.drainLocked(&res)

	res.Build = e.ctrl.Tick(e.pointer, commit)
	res.Day = e.clock.Day()
	res.Phase = e.clock.Phase()
	e.publishLocked()
	observers := append([]func(StepResult){}, e.observers...)
	e.mu.Unlock()

	for _, fn := range observers {
		fn(res)
	}
	return res
}

// drainLocked handles every queued clock event: nightly hazards from the
// engine subscription, regeneration from the ledger subscription.
func (e *Engine) drainLocked(res *StepResult) {
	for {
		var ev daycycle.Event
		select {
		case ev = <-e.dayCh:
		default:
			res.Regenerations += e.ctrl.Ledger().ConsumeDayEvents(e.ledgerCh)
			return
		}
		res.DayEvents = append(res.DayEvents, ev)
		e.logger.Info("day event", zap.Stringer("kind", ev.Kind), zap.Int("day", ev.Day))
		if e.director == nil {
			continue
		}
		if rep, ok := e.director.HandleEvent(ev, len(e.ctrl.LiveBlocks())); ok {
			res.Hazards = append(res.Hazards, rep)
		}
	}
}

// Run steps the engine every TickInterval, batching the inputs received
// between ticks into one Frame.
//
// Postcondition: returns nil when ctx is cancelled or inputs is closed; a
// closed channel flushes the pending inputs in a final Step first.
func (e *Engine) Run(ctx context.Context, inputs <-chan Input) error {
	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	var pending []Input
	for {
		select {
		case <-ctx.Done():
			return nil
		case in, ok := <-inputs:
			if !ok {
				if len(pending) > 0 {
					e.Step(Frame{Inputs: pending})
				}
				return nil
			}
			pending = append(pending, in)
		case <-ticker.C:
			e.Step(Frame{Inputs: pending})
			pending = nil
		}
	}
}

// publishLocked snapshots the state Status reports.
func (e *Engine) publishLocked() {
	st := &Status{
		Day:       e.clock.Day(),
		Phase:     e.clock.Phase(),
		Progress:  e.clock.Progress(),
		Remaining: e.clock.Remaining(),
		BuildMode: e.ctrl.BuildMode(),
		Placed:    e.ctrl.PlacedCounts(),
		Resources: e.ctrl.Ledger().Summary(),
	}
	if t := e.ctrl.Selected(); t != nil {
		st.Selected = t.Name
	}
	live := e.ctrl.LiveBlocks()
	st.Blocks = len(live)
	for _, b := range live {
		if b.Health() < b.Type.MaxHealth {
			st.Damaged = append(st.Damaged, conditionOf(b))
		}
	}
	e.status.Store(st)
}

func conditionOf(b *block.Entity) BlockCondition {
	return BlockCondition{
		Name:      b.Type.Name,
		Cell:      b.Cell,
		Health:    b.Health(),
		MaxHealth: b.Type.MaxHealth,
		Condition: b.Condition(),
	}
}

// Status returns the summary published by the most recent Step. It is safe
// to call from any goroutine.
func (e *Engine) Status() Status {
	return *e.status.Load()
}

// Pools returns the resource pools in catalog order.
func (e *Engine) Pools() []economy.Pool { return e.ctrl.Ledger().Pools() }

// ScriptBlocks converts the live blocks for the scripting engine.
//
// Precondition: called on the stepping goroutine, as script hooks are; it
// reads entity state without taking the engine lock.
func (e *Engine) ScriptBlocks() []scripting.BlockInfo {
	live := e.ctrl.LiveBlocks()
	out := make([]scripting.BlockInfo, len(live))
	for i, b := range live {
		out[i] = scripting.BlockInfo{
			ID:        b.ID,
			Type:      b.Type.ID,
			X:         b.Cell.X,
			Y:         b.Cell.Y,
			Z:         b.Cell.Z,
			Health:    b.Health(),
			MaxHealth: b.Type.MaxHealth,
			Condition: b.Condition(),
		}
	}
	return out
}
