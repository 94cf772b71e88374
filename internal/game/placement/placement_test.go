package placement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
	"pgregory.net/rapid"

	"github.com/gdhsf3701/island/internal/game/grid"
	"github.com/gdhsf3701/island/internal/game/placement"
	"github.com/gdhsf3701/island/internal/game/spatial"
)

func groundScene(t *testing.T) *spatial.Scene {
	t.Helper()
	s := spatial.NewScene(1)
	require.NoError(t, s.Add(spatial.Collider{
		ID:     "ground",
		Bounds: spatial.AABB{Min: r3.Vec{X: -20, Y: -1, Z: -20}, Max: r3.Vec{X: 20, Z: 20}},
		Class:  spatial.ClassBuildable,
	}))
	return s
}

func newValidator(t *testing.T, cfg placement.Config, q spatial.Query) *placement.Validator {
	t.Helper()
	v, err := placement.NewValidator(cfg, q, zap.NewNop())
	require.NoError(t, err)
	return v
}

func unitGrid(t *testing.T) grid.Grid {
	t.Helper()
	g, err := grid.NewGrid(1, r3.Vec{})
	require.NoError(t, err)
	return g
}

// Cell (3,0,5) is free and valid; once occupied it reports CellOccupied.
func TestCanPlace_FreeThenOccupied(t *testing.T) {
	g := unitGrid(t)
	v := newValidator(t, placement.DefaultConfig(), groundScene(t))
	occ := grid.NewOccupancy()
	cell := grid.Cell{X: 3, Y: 0, Z: 5}

	assert.Equal(t, placement.Valid, v.CanPlace(cell, g.CellCenter(cell), occ))
	require.True(t, occ.Insert(cell))
	assert.Equal(t, placement.CellOccupied, v.CanPlace(cell, g.CellCenter(cell), occ))
}

func TestCanPlace_OccupiedTakesPrecedenceOverCollision(t *testing.T) {
	g := unitGrid(t)
	s := groundScene(t)
	require.NoError(t, s.Add(spatial.Collider{ID: "rock", Bounds: spatial.AABB{Min: r3.Vec{X: 3, Z: 5}, Max: r3.Vec{X: 4, Y: 1, Z: 6}}, Class: spatial.ClassObstacle}))
	v := newValidator(t, placement.DefaultConfig(), s)
	occ := grid.NewOccupancy()
	cell := grid.Cell{X: 3, Z: 5}

	assert.Equal(t, placement.Collision, v.CanPlace(cell, g.CellCenter(cell), occ))
	occ.Insert(cell)
	assert.Equal(t, placement.CellOccupied, v.CanPlace(cell, g.CellCenter(cell), occ))
}

func TestCanPlace_Policies(t *testing.T) {
	g := unitGrid(t)
	s := groundScene(t)
	require.NoError(t, s.Add(spatial.Collider{ID: "tree", Bounds: spatial.AABB{Min: r3.Vec{X: 1, Z: 1}, Max: r3.Vec{X: 2, Y: 3, Z: 2}}, Class: spatial.ClassNone}))
	require.NoError(t, s.Add(spatial.Collider{ID: "wall", Bounds: spatial.AABB{Min: r3.Vec{X: 5, Z: 5}, Max: r3.Vec{X: 6, Y: 3, Z: 6}}, Class: spatial.ClassObstacle}))
	require.NoError(t, s.Add(spatial.Collider{ID: "ghost", Bounds: spatial.AABB{Min: r3.Vec{X: -3, Z: -3}, Max: r3.Vec{X: -2, Y: 1, Z: -2}}, Class: spatial.ClassNone, Tag: spatial.TagPreview}))
	occ := grid.NewOccupancy()

	tree := grid.Cell{X: 1, Z: 1}
	wall := grid.Cell{X: 5, Z: 5}
	ghost := grid.Cell{X: -3, Z: -3}

	strict := newValidator(t, placement.DefaultConfig(), s)
	assert.Equal(t, placement.Collision, strict.CanPlace(tree, g.CellCenter(tree), occ))
	assert.Equal(t, placement.Collision, strict.CanPlace(wall, g.CellCenter(wall), occ))
	assert.Equal(t, placement.Valid, strict.CanPlace(ghost, g.CellCenter(ghost), occ))

	cfg := placement.DefaultConfig()
	cfg.Policy = placement.PolicySmartObstacle
	smart := newValidator(t, cfg, s)
	assert.Equal(t, placement.Valid, smart.CanPlace(tree, g.CellCenter(tree), occ))
	assert.Equal(t, placement.Collision, smart.CanPlace(wall, g.CellCenter(wall), occ))
	assert.Equal(t, placement.Valid, smart.CanPlace(ghost, g.CellCenter(ghost), occ))
}

func TestCanPlace_AdjacentBlocksDoNotConflict(t *testing.T) {
	g := unitGrid(t)
	for _, shape := range []placement.ShapeMode{placement.ShapeSphere, placement.ShapeBox} {
		s := groundScene(t)
		require.NoError(t, s.Spawn("blk", "stone", g.CellCenter(grid.Cell{X: 3, Z: 5})))
		cfg := placement.DefaultConfig()
		cfg.Shape = shape
		v := newValidator(t, cfg, s)
		occ := grid.NewOccupancy()
		for _, c := range []grid.Cell{{X: 4, Z: 5}, {X: 3, Y: 1, Z: 5}, {X: 4, Y: 0, Z: 6}} {
			assert.Equal(t, placement.Valid, v.CanPlace(c, g.CellCenter(c), occ), "shape %d cell %v", shape, c)
		}
	}
}

func TestCanPlace_BoxShapeCatchesWhatSphereMisses(t *testing.T) {
	s := spatial.NewScene(1)
	// A thin pole near the corner of cell (0,0,0).
	require.NoError(t, s.Add(spatial.Collider{ID: "pole", Bounds: spatial.AABB{Min: r3.Vec{X: 0.85, Z: 0.85}, Max: r3.Vec{X: 0.9, Y: 1, Z: 0.9}}, Class: spatial.ClassObstacle}))
	occ := grid.NewOccupancy()
	center := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}

	sphere := newValidator(t, placement.DefaultConfig(), s)
	assert.Equal(t, placement.Valid, sphere.CanPlace(grid.Cell{}, center, occ))

	cfg := placement.DefaultConfig()
	cfg.Shape = placement.ShapeBox
	box := newValidator(t, cfg, s)
	assert.Equal(t, placement.Collision, box.CanPlace(grid.Cell{}, center, occ))
}

func TestCanPlace_Property_Deterministic(t *testing.T) {
	g := unitGrid(t)
	s := groundScene(t)
	require.NoError(t, s.Add(spatial.Collider{ID: "rock", Bounds: spatial.AABB{Min: r3.Vec{X: 2, Z: 2}, Max: r3.Vec{X: 3, Y: 1, Z: 3}}, Class: spatial.ClassObstacle}))
	v := newValidator(t, placement.DefaultConfig(), s)
	rapid.Check(t, func(rt *rapid.T) {
		occ := grid.NewOccupancy()
		for _, c := range rapid.SliceOfN(rapid.Custom(func(rt *rapid.T) grid.Cell {
			return grid.Cell{X: rapid.IntRange(-4, 4).Draw(rt, "x"), Z: rapid.IntRange(-4, 4).Draw(rt, "z")}
		}), 0, 10).Draw(rt, "occupied") {
			occ.Insert(c)
		}
		cell := grid.Cell{X: rapid.IntRange(-4, 4).Draw(rt, "cx"), Z: rapid.IntRange(-4, 4).Draw(rt, "cz")}
		first := v.CanPlace(cell, g.CellCenter(cell), occ)
		second := v.CanPlace(cell, g.CellCenter(cell), occ)
		assert.Equal(rt, first, second)
		if occ.Contains(cell) {
			assert.Equal(rt, placement.CellOccupied, first)
		}
		if first.OK() {
			assert.False(rt, occ.Contains(cell))
		}
	})
}

func TestTargetCell(t *testing.T) {
	g := unitGrid(t)
	v := newValidator(t, placement.DefaultConfig(), groundScene(t))
	tests := []struct {
		name          string
		point, normal r3.Vec
		want          grid.Cell
	}{
		{"ground top", r3.Vec{X: 3.2, Y: 0, Z: 5.7}, r3.Vec{Y: 1}, grid.Cell{X: 3, Y: 0, Z: 5}},
		{"block top", r3.Vec{X: 3.5, Y: 1, Z: 5.5}, r3.Vec{Y: 1}, grid.Cell{X: 3, Y: 1, Z: 5}},
		{"block +x face", r3.Vec{X: 4, Y: 0.5, Z: 5.5}, r3.Vec{X: 1}, grid.Cell{X: 4, Y: 0, Z: 5}},
		{"block -x face", r3.Vec{X: 3, Y: 0.5, Z: 5.5}, r3.Vec{X: -1}, grid.Cell{X: 2, Y: 0, Z: 5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, v.TargetCell(g, tc.point, tc.normal))
		})
	}
}

func TestTargetCell_WithoutNormalOffset(t *testing.T) {
	g := unitGrid(t)
	cfg := placement.DefaultConfig()
	cfg.OffsetAlongNormal = false
	v := newValidator(t, cfg, groundScene(t))
	// Without the offset a hit on a -X face resolves to the struck block's own cell.
	assert.Equal(t, grid.Cell{X: 3, Y: 0, Z: 5}, v.TargetCell(g, r3.Vec{X: 3, Y: 0.5, Z: 5.5}, r3.Vec{X: -1}))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, placement.DefaultConfig().Validate())

	cfg := placement.DefaultConfig()
	cfg.SphereRadius = 0
	cfg.SnapTolerance = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sphere_radius")
	assert.Contains(t, err.Error(), "snap_tolerance")

	cfg = placement.DefaultConfig()
	cfg.Shape = placement.ShapeBox
	cfg.BoxSize = r3.Vec{X: 1, Y: 0, Z: 1}
	assert.Error(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	s, err := placement.ParseShapeMode("Box")
	require.NoError(t, err)
	assert.Equal(t, placement.ShapeBox, s)
	_, err = placement.ParseShapeMode("cone")
	assert.Error(t, err)

	p, err := placement.ParsePolicy("smart_obstacle")
	require.NoError(t, err)
	assert.Equal(t, placement.PolicySmartObstacle, p)
	_, err = placement.ParsePolicy("anything")
	assert.Error(t, err)
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "valid", placement.Valid.String())
	assert.Equal(t, "cell occupied", placement.CellOccupied.String())
	assert.Equal(t, "collision", placement.Collision.String())
	assert.True(t, placement.Valid.OK())
	assert.False(t, placement.Collision.OK())
}
