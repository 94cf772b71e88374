// Package placement decides whether a block may occupy a grid cell.
package placement

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gdhsf3701/island/internal/game/grid"
	"github.com/gdhsf3701/island/internal/game/spatial"
)

// Verdict is the outcome of a placement check.
type Verdict int

const (
	// Valid means the cell is free and nothing conflicts with the volume.
	Valid Verdict = iota
	// CellOccupied means a live block already owns the cell.
	CellOccupied
	// Collision means a conflicting collider overlaps the placement volume.
	Collision
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case CellOccupied:
		return "cell occupied"
	case Collision:
		return "collision"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// OK reports whether v permits placement.
func (v Verdict) OK() bool { return v == Valid }

// ShapeMode selects the overlap volume.
type ShapeMode int

const (
	// ShapeSphere overlaps a sphere of SphereRadius.
	ShapeSphere ShapeMode = iota
	// ShapeBox overlaps an axis-aligned box of BoxSize.
	ShapeBox
)

// Policy selects which overlapping colliders count as conflicts.
type Policy int

const (
	// PolicyBuildable treats every non-buildable collider as a conflict.
	PolicyBuildable Policy = iota
	// PolicySmartObstacle treats only explicit obstacles as conflicts.
	PolicySmartObstacle
)

// ParseShapeMode parses "sphere" or "box".
func ParseShapeMode(s string) (ShapeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sphere":
		return ShapeSphere, nil
	case "box":
		return ShapeBox, nil
	}
	return ShapeSphere, fmt.Errorf("placement: unknown shape %q (want sphere or box)", s)
}

// ParsePolicy parses "buildable" or "smart_obstacle".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buildable":
		return PolicyBuildable, nil
	case "smart_obstacle", "smart-obstacle":
		return PolicySmartObstacle, nil
	}
	return PolicyBuildable, fmt.Errorf("placement: unknown policy %q (want buildable or smart_obstacle)", s)
}

// Config holds placement validation settings.
type Config struct {
	Shape ShapeMode
	// SphereRadius is used when Shape is ShapeSphere.
	SphereRadius float64
	// BoxSize is the full edge length per axis used when Shape is ShapeBox.
	BoxSize r3.Vec
	Policy  Policy
	// SnapTolerance is the grid stabilization tolerance in world units.
	SnapTolerance float64
	// OffsetAlongNormal moves the hit point half a cell along the surface
	// normal so blocks land against the struck face rather than inside it.
	OffsetAlongNormal bool
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		Shape:             ShapeSphere,
		SphereRadius:      0.4,
		BoxSize:           r3.Vec{X: 0.9, Y: 0.9, Z: 0.9},
		Policy:            PolicyBuildable,
		SnapTolerance:     0.05,
		OffsetAlongNormal: true,
	}
}

// Validate checks that c is usable.
//
// Postcondition: Returns nil if valid, or an error listing every violation.
func (c Config) Validate() error {
	var errs []string
	switch c.Shape {
	case ShapeSphere:
		if c.SphereRadius <= 0 {
			errs = append(errs, fmt.Sprintf("sphere_radius must be > 0, got %v", c.SphereRadius))
		}
	case ShapeBox:
		if c.BoxSize.X <= 0 || c.BoxSize.Y <= 0 || c.BoxSize.Z <= 0 {
			errs = append(errs, fmt.Sprintf("box_size must be positive on every axis, got %v", c.BoxSize))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown shape %d", int(c.Shape)))
	}
	if c.Policy != PolicyBuildable && c.Policy != PolicySmartObstacle {
		errs = append(errs, fmt.Sprintf("unknown policy %d", int(c.Policy)))
	}
	if c.SnapTolerance < 0 {
		errs = append(errs, fmt.Sprintf("snap_tolerance must be >= 0, got %v", c.SnapTolerance))
	}
	if len(errs) > 0 {
		return fmt.Errorf("placement config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validator checks cells against the occupancy index and scene geometry.
//
// Validator is stateless: identical inputs always produce identical verdicts,
// so the preview check and the commit check agree.
type Validator struct {
	cfg    Config
	query  spatial.Query
	shape  spatial.Shape
	logger *zap.Logger
}

// NewValidator creates a Validator.
//
// Precondition: query and logger must be non-nil; cfg must validate.
// Postcondition: Returns a Validator or a non-nil error.
func NewValidator(cfg Config, query spatial.Query, logger *zap.Logger) (*Validator, error) {
	if query == nil {
		return nil, fmt.Errorf("placement.NewValidator: query must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("placement.NewValidator: logger must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("placement.NewValidator: %w", err)
	}
	var shape spatial.Shape = spatial.Sphere{Radius: cfg.SphereRadius}
	if cfg.Shape == ShapeBox {
		shape = spatial.Box{HalfExtents: r3.Scale(0.5, cfg.BoxSize)}
	}
	return &Validator{cfg: cfg, query: query, shape: shape, logger: logger}, nil
}

// Config returns the validator settings.
func (v *Validator) Config() Config { return v.cfg }

// CanPlace returns the verdict for placing a block in cell with its volume
// centered at point.
//
// Precondition: occ must be non-nil.
// Postcondition: CellOccupied when occ contains cell, regardless of geometry.
// Occupied cells are rejected; placement never stacks upward.
func (v *Validator) CanPlace(cell grid.Cell, point r3.Vec, occ *grid.Occupancy) Verdict {
	if occ.Contains(cell) {
		v.logger.Debug("placement rejected: cell occupied", zap.Stringer("cell", cell))
		return CellOccupied
	}
	if conflicts := v.Conflicts(point); len(conflicts) > 0 {
		v.logger.Debug("placement rejected: collision",
			zap.Stringer("cell", cell),
			zap.String("collider", conflicts[0].ColliderID),
			zap.Int("conflicts", len(conflicts)),
		)
		return Collision
	}
	return Valid
}

// Conflicts returns the colliders overlapping the placement volume at point
// that the active policy treats as blocking. Preview colliders never conflict.
func (v *Validator) Conflicts(point r3.Vec) []spatial.Hit {
	var out []spatial.Hit
	for _, hit := range v.query.Overlap(point, v.shape) {
		if hit.IsPreview() {
			continue
		}
		if v.conflicting(hit) {
			out = append(out, hit)
		}
	}
	return out
}

func (v *Validator) conflicting(hit spatial.Hit) bool {
	if v.cfg.Policy == PolicySmartObstacle {
		return hit.Class == spatial.ClassObstacle
	}
	return hit.Class != spatial.ClassBuildable
}

// TargetCell converts an aim point and surface normal to the cell a new block
// should occupy.
//
// Postcondition: the result is the stabilized cell containing the (optionally
// normal-offset) point.
func (v *Validator) TargetCell(g grid.Grid, point, normal r3.Vec) grid.Cell {
	p := point
	if v.cfg.OffsetAlongNormal {
		p = r3.Add(p, r3.Scale(g.CellSize/2, normal))
	}
	raw := g.WorldToCell(p)
	cell := g.Stabilize(p, raw, v.cfg.SnapTolerance)
	if cell != raw {
		v.logger.Debug("target cell stabilized", zap.Stringer("from", raw), zap.Stringer("to", cell))
	}
	return cell
}
