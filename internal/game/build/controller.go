package build

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gdhsf3701/island/internal/game/aim"
	"github.com/gdhsf3701/island/internal/game/block"
	"github.com/gdhsf3701/island/internal/game/economy"
	"github.com/gdhsf3701/island/internal/game/grid"
	"github.com/gdhsf3701/island/internal/game/placement"
	"github.com/gdhsf3701/island/internal/game/spatial"
)

// Aimer resolves a pointer to a build candidate. *aim.Resolver satisfies it.
type Aimer interface {
	Resolve(pointer spatial.ScreenPoint) (aim.Candidate, bool)
}

// Deps are the Controller's collaborators.
type Deps struct {
	Aimer     Aimer
	Validator *placement.Validator
	Grid      grid.Grid
	Catalog   *block.Catalog
	Spawner   Spawner
	Sink      Sink
	Economy   economy.Config
	Logger    *zap.Logger
}

// Controller runs the build session. It owns the occupancy index, the live
// block registry and the resource ledger; every mutation of the three goes
// through Tick (placement) or Release (destruction).
//
// All methods are safe for concurrent use.
//
// Invariant: a cell is in the occupancy index iff a live registered entity
// owns it.
type Controller struct {
	aimer     Aimer
	validator *placement.Validator
	grid      grid.Grid
	catalog   *block.Catalog
	spawner   Spawner
	sink      Sink
	logger    *zap.Logger

	mu        sync.Mutex
	occ       *grid.Occupancy
	blocks    *block.Manager
	ledger    *economy.Ledger
	buildMode bool
	selected  int
	pointer   spatial.ScreenPoint
	preview   Preview
}

// NewController creates a Controller with build mode off and the first
// catalog type selected. The ledger is created with one pool per catalog
// type and reports to d.Sink.
//
// Precondition: every Deps field must be set and the catalog non-empty.
// Postcondition: Returns a Controller or a non-nil error.
func NewController(d Deps) (*Controller, error) {
	if d.Aimer == nil || d.Validator == nil || d.Catalog == nil || d.Spawner == nil || d.Sink == nil || d.Logger == nil {
		return nil, fmt.Errorf("build.NewController: all collaborators must be non-nil")
	}
	if d.Catalog.Len() == 0 {
		return nil, fmt.Errorf("build.NewController: catalog is empty")
	}
	if d.Grid.CellSize <= 0 {
		return nil, fmt.Errorf("build.NewController: grid cell size must be > 0")
	}
	ledger, err := economy.NewLedger(d.Economy, d.Catalog.All(), d.Sink, d.Logger)
	if err != nil {
		return nil, fmt.Errorf("build.NewController: %w", err)
	}
	return &Controller{
		aimer:     d.Aimer,
		validator: d.Validator,
		grid:      d.Grid,
		catalog:   d.Catalog,
		spawner:   d.Spawner,
		sink:      d.Sink,
		logger:    d.Logger,
		occ:       grid.NewOccupancy(),
		blocks:    block.NewManager(),
		ledger:    ledger,
	}, nil
}

// Ledger returns the resource ledger.
func (c *Controller) Ledger() *economy.Ledger { return c.ledger }

// BuildMode reports whether build mode is on.
func (c *Controller) BuildMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildMode
}

// Selected returns the selected block type.
func (c *Controller) Selected() *block.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, _ := c.catalog.At(c.selected)
	return t
}

// Preview returns the most recent preview.
func (c *Controller) Preview() Preview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preview
}

// ToggleBuildMode flips build mode and returns the new mode. Turning build
// mode off hides the preview; turning it on previews at the last pointer.
func (c *Controller) ToggleBuildMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buildMode = !c.buildMode
	c.logger.Debug("build mode", zap.Bool("on", c.buildMode))
	c.sink.BuildModeChanged(c.buildMode)
	c.refreshLocked()
	return c.buildMode
}

// Select makes the catalog type at index the selected type. In build mode
// the preview is refreshed for the new type.
//
// Postcondition: an out-of-range index returns an error and changes nothing.
func (c *Controller) Select(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.catalog.At(index)
	if !ok {
		return fmt.Errorf("build.Controller.Select: index %d out of range [0, %d)", index, c.catalog.Len())
	}
	if index == c.selected {
		return nil
	}
	c.selected = index
	c.sink.SelectionChanged(t)
	if c.buildMode {
		c.refreshLocked()
	}
	return nil
}

// Tick runs one build step at pointer. commit is the edge-triggered place
// signal for this tick.
//
// Postcondition: a rejected commit changes no state and reports its Reason;
// a tick without an aim candidate hides the preview and refuses commits.
func (c *Controller) Tick(pointer spatial.ScreenPoint, commit bool) Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pointer = pointer
	f := Frame{Committed: commit}

	if !c.buildMode {
		c.setPreviewLocked(Preview{State: PreviewHidden})
		f.Preview = c.preview
		if commit {
			f.Reason = ReasonModeOff
			c.sink.BuildFailed(ReasonModeOff)
		}
		return f
	}

	t, _ := c.catalog.At(c.selected)
	p, ok := c.evaluateLocked(t)
	c.setPreviewLocked(p)
	f.Preview = p
	if !commit {
		return f
	}
	if !ok {
		f.Reason = ReasonNoTarget
		return f
	}

	e, reason := c.commitLocked(t, p.Cell)
	f.Reason = reason
	if reason != ReasonNone {
		c.sink.BuildFailed(reason)
		return f
	}
	f.Placed = e
	c.sink.BuildSucceeded(e)
	c.refreshLocked()
	f.Preview = c.preview
	return f
}

// evaluateLocked resolves the aim and checks the target cell for t.
// ok is false when there is no aim candidate.
func (c *Controller) evaluateLocked(t *block.Type) (Preview, bool) {
	cand, ok := c.aimer.Resolve(c.pointer)
	if !ok {
		return Preview{State: PreviewHidden, TypeID: t.ID}, false
	}
	cell := c.validator.TargetCell(c.grid, cand.Point, cand.Normal)
	center := c.grid.CellCenter(cell)
	verdict := c.validator.CanPlace(cell, center, c.occ)
	return Preview{
		State:    previewState(c.ledger.HasEnough(t.ID), verdict),
		TypeID:   t.ID,
		Cell:     cell,
		Position: center,
		Verdict:  verdict,
	}, true
}

// commitLocked re-checks and places t at cell. Every failure rolls back the
// steps already taken.
func (c *Controller) commitLocked(t *block.Type, cell grid.Cell) (*block.Entity, Reason) {
	if !c.ledger.HasEnough(t.ID) {
		return nil, ReasonInsufficientResources
	}
	center := c.grid.CellCenter(cell)
	if !c.validator.CanPlace(cell, center, c.occ).OK() {
		return nil, ReasonInvalidPosition
	}

	e := block.NewEntity(block.NewID(), t, cell)
	if err := c.spawner.Spawn(e.ID, t.ID, center); err != nil {
		c.logger.Warn("spawn failed", zap.String("type", t.ID), zap.Stringer("cell", cell), zap.Error(err))
		return nil, ReasonSpawnFailed
	}
	if err := c.blocks.Add(e); err != nil {
		c.spawner.Despawn(e.ID)
		c.logger.Warn("register failed", zap.String("block", e.ID), zap.Error(err))
		return nil, ReasonInvalidPosition
	}
	if !c.occ.Insert(cell) {
		_ = c.blocks.Remove(e.ID)
		c.spawner.Despawn(e.ID)
		return nil, ReasonInvalidPosition
	}
	if !c.ledger.Consume(t.ID) {
		c.occ.Remove(cell)
		_ = c.blocks.Remove(e.ID)
		c.spawner.Despawn(e.ID)
		return nil, ReasonInsufficientResources
	}
	c.logger.Info("block placed", zap.String("block", e.ID), zap.String("type", t.ID), zap.Stringer("cell", cell))
	return e, ReasonNone
}

// refreshLocked recomputes the preview at the last pointer.
func (c *Controller) refreshLocked() {
	if !c.buildMode {
		c.setPreviewLocked(Preview{State: PreviewHidden})
		return
	}
	t, _ := c.catalog.At(c.selected)
	p, _ := c.evaluateLocked(t)
	c.setPreviewLocked(p)
}

func (c *Controller) setPreviewLocked(p Preview) {
	if p == c.preview {
		return
	}
	c.preview = p
	c.sink.PreviewChanged(p)
}

// LiveBlocks returns the live entities sorted by ID.
func (c *Controller) LiveBlocks() []*block.Entity {
	snap := c.blocks.Snapshot()
	out := snap[:0]
	for _, e := range snap {
		if e.Alive() {
			out = append(out, e)
		}
	}
	return out
}

// Release removes a destroyed entity: its cell becomes free, its
// representation is despawned, and the sink is told. Releasing an entity
// that is not registered is a no-op, so each entity is released at most once.
func (c *Controller) Release(e *block.Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if got, ok := c.blocks.Get(e.ID); !ok || got != e {
		return
	}
	_ = c.blocks.Remove(e.ID)
	c.occ.Remove(e.Cell)
	c.spawner.Despawn(e.ID)
	c.logger.Info("block destroyed", zap.String("block", e.ID), zap.String("type", e.Type.ID), zap.Stringer("cell", e.Cell))
	c.sink.BlockRemoved(e)
}

// Occupied reports whether cell holds a block.
func (c *Controller) Occupied(cell grid.Cell) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.occ.Contains(cell)
}

// OccupiedCells returns every occupied cell in (y, x, z) order.
func (c *Controller) OccupiedCells() []grid.Cell {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.occ.Cells()
}

// PlacedCounts returns the number of standing blocks per type ID.
func (c *Controller) PlacedCounts() map[string]int {
	return c.blocks.CountByType()
}
