// Package aim turns a pointer position into a world-space build target.
//
// Resolution walks a fixed ladder of strategies, each strictly weaker than the
// last: a primary ray cast, the same cast at an extended distance, a cast from
// a fixed screen anchor scored by on-screen proximity to the pointer, and
// finally a thick sphere sweep along the pointer ray.
package aim

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gdhsf3701/island/internal/game/spatial"
)

// Strategy identifies the rung of the fallback ladder that produced a Candidate.
type Strategy int

const (
	// StrategyPrimary is the pointer ray cast at the configured distance.
	StrategyPrimary Strategy = iota
	// StrategyExtended repeats the pointer cast at an extended distance.
	StrategyExtended
	// StrategyAnchor casts from a fixed screen anchor and picks the hit whose
	// projection is nearest the pointer.
	StrategyAnchor
	// StrategySweep sweeps a sphere along the pointer ray.
	StrategySweep
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyPrimary:
		return "primary"
	case StrategyExtended:
		return "extended"
	case StrategyAnchor:
		return "anchor"
	case StrategySweep:
		return "sweep"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Candidate is a resolved build target.
type Candidate struct {
	Point    r3.Vec
	Normal   r3.Vec
	Hit      spatial.Hit
	Strategy Strategy
}

// Config holds aim resolution tuning.
type Config struct {
	// MaxDistance bounds the primary, anchor and sweep casts.
	MaxDistance float64
	// ExtendedFactor multiplies MaxDistance for the extended cast.
	ExtendedFactor float64
	// SweepRadius is the radius of the final sphere sweep.
	SweepRadius float64
	// AnchorX and AnchorY locate the secondary cast origin as fractions of
	// the screen width and height.
	AnchorX float64
	AnchorY float64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		MaxDistance:    100,
		ExtendedFactor: 2,
		SweepRadius:    0.5,
		AnchorX:        0.5,
		AnchorY:        0.3,
	}
}

// Validate checks that c is usable.
//
// Postcondition: Returns nil if valid, or an error listing every violation.
func (c Config) Validate() error {
	var errs []string
	if c.MaxDistance <= 0 {
		errs = append(errs, fmt.Sprintf("max_distance must be > 0, got %v", c.MaxDistance))
	}
	if c.ExtendedFactor < 1 {
		errs = append(errs, fmt.Sprintf("extended_factor must be >= 1, got %v", c.ExtendedFactor))
	}
	if c.SweepRadius <= 0 {
		errs = append(errs, fmt.Sprintf("sweep_radius must be > 0, got %v", c.SweepRadius))
	}
	if c.AnchorX < 0 || c.AnchorX > 1 || c.AnchorY < 0 || c.AnchorY > 1 {
		errs = append(errs, fmt.Sprintf("anchor must lie within the screen, got (%v, %v)", c.AnchorX, c.AnchorY))
	}
	if len(errs) > 0 {
		return fmt.Errorf("aim config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Resolver resolves pointer positions against a spatial Query.
//
// Resolver holds no mutable state; Resolve has no side effects beyond logging.
type Resolver struct {
	cfg    Config
	query  spatial.Query
	view   spatial.Viewport
	logger *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: query, view and logger must be non-nil; cfg must validate.
// Postcondition: Returns a Resolver or a non-nil error.
func NewResolver(cfg Config, query spatial.Query, view spatial.Viewport, logger *zap.Logger) (*Resolver, error) {
	if query == nil || view == nil {
		return nil, fmt.Errorf("aim.NewResolver: query and viewport must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("aim.NewResolver: logger must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("aim.NewResolver: %w", err)
	}
	return &Resolver{cfg: cfg, query: query, view: view, logger: logger}, nil
}

// Resolve returns the build target under pointer.
//
// Postcondition: ok is false when every strategy fails; the caller must hide
// any preview and refuse commits for this tick.
func (r *Resolver) Resolve(pointer spatial.ScreenPoint) (Candidate, bool) {
	ray := r.view.ScreenPointToRay(pointer)

	if hit, ok := nearest(r.query.CastRay(ray, r.cfg.MaxDistance)); ok {
		return candidate(hit, StrategyPrimary), true
	}
	if hit, ok := nearest(r.query.CastRay(ray, r.cfg.MaxDistance*r.cfg.ExtendedFactor)); ok {
		r.logger.Debug("aim resolved by extended cast", zap.String("collider", hit.ColliderID))
		return candidate(hit, StrategyExtended), true
	}
	if hit, ok := r.fromAnchor(pointer); ok {
		r.logger.Debug("aim resolved from screen anchor", zap.String("collider", hit.ColliderID))
		return candidate(hit, StrategyAnchor), true
	}
	if hit, ok := r.query.SweepSphere(ray, r.cfg.SweepRadius, r.cfg.MaxDistance); ok && hit.IsBuildable() {
		r.logger.Debug("aim resolved by sphere sweep", zap.String("collider", hit.ColliderID))
		return candidate(hit, StrategySweep), true
	}
	return Candidate{}, false
}

// fromAnchor casts from the fixed screen anchor and returns the buildable hit
// whose on-screen projection lies closest to pointer. Ties go to the lower ray
// distance, then to input order.
func (r *Resolver) fromAnchor(pointer spatial.ScreenPoint) (spatial.Hit, bool) {
	w, h := r.view.Size()
	anchor := spatial.ScreenPoint{X: w * r.cfg.AnchorX, Y: h * r.cfg.AnchorY}
	hits := r.query.CastRay(r.view.ScreenPointToRay(anchor), r.cfg.MaxDistance)

	var best spatial.Hit
	bestScreen := 0.0
	found := false
	for _, hit := range hits {
		if !hit.IsBuildable() {
			continue
		}
		projected, visible := r.view.WorldToScreen(hit.Point)
		if !visible {
			continue
		}
		d := projected.DistanceTo(pointer)
		if !found || d < bestScreen || (d == bestScreen && hit.Distance < best.Distance) {
			best, bestScreen, found = hit, d, true
		}
	}
	return best, found
}

// nearest returns the closest buildable, non-preview hit. Equal distances keep
// the earliest hit in input order.
func nearest(hits []spatial.Hit) (spatial.Hit, bool) {
	var best spatial.Hit
	found := false
	for _, hit := range hits {
		if !hit.IsBuildable() {
			continue
		}
		if !found || hit.Distance < best.Distance {
			best, found = hit, true
		}
	}
	return best, found
}

func candidate(hit spatial.Hit, s Strategy) Candidate {
	return Candidate{Point: hit.Point, Normal: hit.Normal, Hit: hit, Strategy: s}
}
