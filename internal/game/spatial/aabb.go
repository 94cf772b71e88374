package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// parallelEpsilon is the direction component below which a ray is treated as
// parallel to a slab.
const parallelEpsilon = 1e-12

// AABB is an axis-aligned bounding box.
//
// Invariant: Min is component-wise <= Max.
type AABB struct {
	Min r3.Vec
	Max r3.Vec
}

// BoxAt returns the box centered at c with the given half extents.
func BoxAt(c, half r3.Vec) AABB {
	return AABB{Min: r3.Sub(c, half), Max: r3.Add(c, half)}
}

// Center returns the box center.
func (b AABB) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Expand returns b grown by r on every side.
func (b AABB) Expand(r float64) AABB {
	d := r3.Vec{X: r, Y: r, Z: r}
	return AABB{Min: r3.Sub(b.Min, d), Max: r3.Add(b.Max, d)}
}

// Contains reports whether p lies strictly inside b.
func (b AABB) Contains(p r3.Vec) bool {
	for i := 0; i < 3; i++ {
		v := component(p, i)
		if v <= component(b.Min, i) || v >= component(b.Max, i) {
			return false
		}
	}
	return true
}

// ClosestPoint returns the point of b nearest to p.
func (b AABB) ClosestPoint(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: clamp(p.X, b.Min.X, b.Max.X),
		Y: clamp(p.Y, b.Min.Y, b.Max.Y),
		Z: clamp(p.Z, b.Min.Z, b.Max.Z),
	}
}

// Intersects reports whether b and o share interior volume.
func (b AABB) Intersects(o AABB) bool {
	for i := 0; i < 3; i++ {
		if component(b.Min, i) >= component(o.Max, i) || component(o.Min, i) >= component(b.Max, i) {
			return false
		}
	}
	return true
}

// RayEntry returns the distance at which ray enters b and the outward normal of
// the entered face.
//
// Postcondition: ok is false when the ray misses, starts inside b, or enters
// beyond maxDist.
func (b AABB) RayEntry(ray Ray, maxDist float64) (t float64, normal r3.Vec, ok bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	axis, sign := -1, 0.0
	for i := 0; i < 3; i++ {
		o, d := component(ray.Origin, i), component(ray.Dir, i)
		lo, hi := component(b.Min, i), component(b.Max, i)
		if math.Abs(d) < parallelEpsilon {
			if o < lo || o > hi {
				return 0, r3.Vec{}, false
			}
			continue
		}
		t1, t2 := (lo-o)/d, (hi-o)/d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
			axis = i
			sign = -math.Copysign(1, d)
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, r3.Vec{}, false
		}
	}
	if axis < 0 || tmin < 0 || tmin > maxDist {
		return 0, r3.Vec{}, false
	}
	return tmin, withComponent(r3.Vec{}, axis, sign), true
}

func component(v r3.Vec, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func withComponent(v r3.Vec, i int, x float64) r3.Vec {
	switch i {
	case 0:
		v.X = x
	case 1:
		v.Y = x
	default:
		v.Z = x
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
