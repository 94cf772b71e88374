package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Grid maps continuous world positions onto cells of a uniform lattice.
//
// Invariant: CellSize > 0.
type Grid struct {
	// CellSize is the edge length of one cell in world units.
	CellSize float64
	// Origin is the world position of the minimum corner of cell (0,0,0).
	Origin r3.Vec
}

// NewGrid returns a Grid with the given cell size and origin.
//
// Precondition: cellSize > 0.
// Postcondition: Returns a usable Grid or a non-nil error.
func NewGrid(cellSize float64, origin r3.Vec) (Grid, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return Grid{}, fmt.Errorf("grid.NewGrid: cell size must be a positive finite number, got %v", cellSize)
	}
	return Grid{CellSize: cellSize, Origin: origin}, nil
}

// WorldToCell returns the cell containing world point p.
//
// Postcondition: p lies inside the half-open box [min, min+CellSize) of the result.
func (g Grid) WorldToCell(p r3.Vec) Cell {
	local := r3.Scale(1/g.CellSize, r3.Sub(p, g.Origin))
	return Cell{
		X: int(math.Floor(local.X)),
		Y: int(math.Floor(local.Y)),
		Z: int(math.Floor(local.Z)),
	}
}

// CellCenter returns the world position of the geometric center of c.
func (g Grid) CellCenter(c Cell) r3.Vec {
	return r3.Add(g.Origin, r3.Vec{
		X: (float64(c.X) + 0.5) * g.CellSize,
		Y: (float64(c.Y) + 0.5) * g.CellSize,
		Z: (float64(c.Z) + 0.5) * g.CellSize,
	})
}

// Stabilize corrects numerical jitter when converting p to a cell.
//
// The candidate is kept when p lies within tolerance of its center. Otherwise
// the candidate and its 8 planar neighbours (same Y) are scanned in a fixed
// order and the one whose center is strictly nearest to p wins.
//
// Precondition: tolerance >= 0.
// Postcondition: the result differs from candidate by at most 1 in X and Z and
// never in Y.
func (g Grid) Stabilize(p r3.Vec, candidate Cell, tolerance float64) Cell {
	best := candidate
	bestDist := r3.Norm(r3.Sub(p, g.CellCenter(candidate)))
	if bestDist <= tolerance {
		return candidate
	}
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			if dx == 0 && dz == 0 {
				continue
			}
			n := candidate.Add(Cell{X: dx, Z: dz})
			d := r3.Norm(r3.Sub(p, g.CellCenter(n)))
			if d < bestDist {
				best, bestDist = n, d
			}
		}
	}
	return best
}
