// Package spatial defines the spatial-query and viewport collaborators consumed
// by aiming and placement, together with in-memory reference implementations
// (an axis-aligned collider Scene and a pinhole Camera).
package spatial

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// TagPreview marks the ghost placement visual. Hits carrying it are ignored by
// aiming and by collision analysis.
const TagPreview = "preview"

// TagBlock marks colliders that represent placed blocks.
const TagBlock = "block"

// Class is the surface classification of a collider.
type Class int

const (
	// ClassNone is neither buildable nor an explicit obstacle.
	ClassNone Class = iota
	// ClassBuildable surfaces accept placement on or against them.
	ClassBuildable
	// ClassObstacle surfaces block placement under the smart-obstacle policy.
	ClassObstacle
)

// String returns the lower-case class name.
func (c Class) String() string {
	switch c {
	case ClassBuildable:
		return "buildable"
	case ClassObstacle:
		return "obstacle"
	default:
		return "none"
	}
}

// ParseClass parses a class name as produced by String.
//
// Postcondition: Returns a Class or an error for unknown names.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ClassNone, nil
	case "buildable":
		return ClassBuildable, nil
	case "obstacle":
		return ClassObstacle, nil
	}
	return ClassNone, fmt.Errorf("spatial: unknown class %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Class) UnmarshalText(b []byte) error {
	v, err := ParseClass(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Hit is a single intersection reported by a Query.
type Hit struct {
	// ColliderID identifies the struck collider.
	ColliderID string
	// Point is the world-space contact point.
	Point r3.Vec
	// Normal is the unit surface normal at Point.
	Normal r3.Vec
	// Distance is the distance from the query origin to Point.
	Distance float64
	// Class is the collider's surface classification.
	Class Class
	// Tag is the collider's free-form tag ("preview", "block", ...).
	Tag string
}

// IsPreview reports whether the hit belongs to the placement preview.
func (h Hit) IsPreview() bool {
	return h.Tag == TagPreview
}

// IsBuildable reports whether the hit is a buildable, non-preview surface.
func (h Hit) IsBuildable() bool {
	return h.Class == ClassBuildable && !h.IsPreview()
}

// Ray is a half-line from Origin along Dir.
//
// Invariant: Dir has unit length when produced by a Viewport.
type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Dir))
}

// ScreenPoint is a pointer position in screen pixels, origin bottom-left.
type ScreenPoint struct {
	X float64
	Y float64
}

// DistanceTo returns the Euclidean pixel distance between p and q.
func (p ScreenPoint) DistanceTo(q ScreenPoint) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Shape is a volume used for overlap queries: Sphere or Box.
type Shape interface {
	// Bounds returns the half extents of the shape's bounding box.
	Bounds() r3.Vec
	isShape()
}

// Sphere is a ball of the given radius.
type Sphere struct {
	Radius float64
}

// Bounds implements Shape.
func (s Sphere) Bounds() r3.Vec { return r3.Vec{X: s.Radius, Y: s.Radius, Z: s.Radius} }

func (Sphere) isShape() {}

// Box is an axis-aligned box with the given half extents.
type Box struct {
	HalfExtents r3.Vec
}

// Bounds implements Shape.
func (b Box) Bounds() r3.Vec { return b.HalfExtents }

func (Box) isShape() {}

// Query is the read-only spatial collaborator. All calls are synchronous.
type Query interface {
	// CastRay returns every intersection of ray within maxDist, in any order.
	CastRay(ray Ray, maxDist float64) []Hit
	// SweepSphere moves a sphere of radius along ray and returns the first
	// collider it touches within maxDist.
	SweepSphere(ray Ray, radius, maxDist float64) (Hit, bool)
	// Overlap returns every collider intersecting shape centered at center.
	Overlap(center r3.Vec, shape Shape) []Hit
}

// Viewport converts between screen and world space.
type Viewport interface {
	// ScreenPointToRay returns the world ray through screen point p.
	ScreenPointToRay(p ScreenPoint) Ray
	// WorldToScreen projects w onto the screen; ok is false when w is behind
	// the viewer.
	WorldToScreen(w r3.Vec) (p ScreenPoint, ok bool)
	// Size returns the screen width and height in pixels.
	Size() (width, height float64)
}
