package grid

import "sort"

// Occupancy is the authoritative set of filled cells.
//
// Invariant: a cell is present iff exactly one live block owns it.
// Occupancy is not safe for concurrent use; it is owned by the simulation
// goroutine.
type Occupancy struct {
	cells map[Cell]struct{}
}

// NewOccupancy returns an empty index.
func NewOccupancy() *Occupancy {
	return &Occupancy{cells: make(map[Cell]struct{})}
}

// Contains reports whether c is occupied.
func (o *Occupancy) Contains(c Cell) bool {
	_, ok := o.cells[c]
	return ok
}

// Insert marks c occupied.
//
// Postcondition: returns false and leaves the index unchanged when c was
// already occupied.
func (o *Occupancy) Insert(c Cell) bool {
	if _, ok := o.cells[c]; ok {
		return false
	}
	o.cells[c] = struct{}{}
	return true
}

// Remove frees c.
//
// Postcondition: returns false when c was not occupied.
func (o *Occupancy) Remove(c Cell) bool {
	if _, ok := o.cells[c]; !ok {
		return false
	}
	delete(o.cells, c)
	return true
}

// Len returns the number of occupied cells.
func (o *Occupancy) Len() int {
	return len(o.cells)
}

// Cells returns a sorted snapshot of the occupied cells.
func (o *Occupancy) Cells() []Cell {
	out := make([]Cell, 0, len(o.cells))
	for c := range o.cells {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
