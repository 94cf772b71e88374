// Package grid provides the discrete build grid: cell addressing, world/cell
// conversion, hit-point stabilization, and the occupancy index.
package grid

import "fmt"

// Cell addresses one unit-size cell of the build grid.
//
// Invariant: Cell is an immutable value type; equality is component-wise.
type Cell struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

// Add returns the component-wise sum of c and d.
func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y, Z: c.Z + d.Z}
}

// String returns the cell in "(x,y,z)" form.
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// less orders cells by level first, then X, then Z.
func less(a, b Cell) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Z < b.Z
}
