package spatial

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// worldUp is the reference up direction used to build the camera basis.
var worldUp = r3.Vec{Y: 1}

// Camera is a pinhole Viewport looking from Position toward a target.
//
// Screen coordinates have their origin at the bottom-left corner.
type Camera struct {
	Position r3.Vec

	forward r3.Vec
	right   r3.Vec
	up      r3.Vec
	width   float64
	height  float64
	// tanHalf is tan(fov/2) for the vertical field of view.
	tanHalf float64
}

// NewCamera builds a Camera at position looking at target with a vertical
// field of view of fovDeg degrees over a width x height pixel screen.
//
// Precondition: position != target; 0 < fovDeg < 180; width, height > 0.
// Postcondition: Returns a usable Camera or a non-nil error.
func NewCamera(position, target r3.Vec, fovDeg, width, height float64) (*Camera, error) {
	if fovDeg <= 0 || fovDeg >= 180 {
		return nil, fmt.Errorf("spatial.NewCamera: fov must be in (0, 180), got %v", fovDeg)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("spatial.NewCamera: screen size must be positive, got %vx%v", width, height)
	}
	look := r3.Sub(target, position)
	if r3.Norm(look) == 0 {
		return nil, fmt.Errorf("spatial.NewCamera: position and target coincide at %v", position)
	}
	forward := r3.Unit(look)
	ref := worldUp
	if math.Abs(r3.Dot(forward, ref)) > 0.999 {
		// Looking straight up or down; screen up follows world -Z.
		ref = r3.Vec{Z: -1}
	}
	right := r3.Unit(r3.Cross(forward, ref))
	return &Camera{
		Position: position,
		forward:  forward,
		right:    right,
		up:       r3.Cross(right, forward),
		width:    width,
		height:   height,
		tanHalf:  math.Tan(fovDeg * math.Pi / 360),
	}, nil
}

// Size implements Viewport.
func (c *Camera) Size() (float64, float64) {
	return c.width, c.height
}

// ScreenPointToRay implements Viewport.
func (c *Camera) ScreenPointToRay(p ScreenPoint) Ray {
	aspect := c.width / c.height
	nx := (2*p.X/c.width - 1) * c.tanHalf * aspect
	ny := (2*p.Y/c.height - 1) * c.tanHalf
	dir := r3.Add(c.forward, r3.Add(r3.Scale(nx, c.right), r3.Scale(ny, c.up)))
	return Ray{Origin: c.Position, Dir: r3.Unit(dir)}
}

// WorldToScreen implements Viewport.
func (c *Camera) WorldToScreen(w r3.Vec) (ScreenPoint, bool) {
	d := r3.Sub(w, c.Position)
	depth := r3.Dot(d, c.forward)
	if depth <= 0 {
		return ScreenPoint{}, false
	}
	aspect := c.width / c.height
	nx := r3.Dot(d, c.right) / depth / (c.tanHalf * aspect)
	ny := r3.Dot(d, c.up) / depth / c.tanHalf
	return ScreenPoint{
		X: (nx + 1) / 2 * c.width,
		Y: (ny + 1) / 2 * c.height,
	}, true
}
