package spatial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gdhsf3701/island/internal/game/spatial"
)

func unitBox() spatial.AABB {
	return spatial.AABB{Max: r3.Vec{X: 1, Y: 1, Z: 1}}
}

func TestAABB_RayEntry(t *testing.T) {
	box := unitBox()

	dist, n, ok := box.RayEntry(spatial.Ray{Origin: r3.Vec{X: -1, Y: 0.5, Z: 0.5}, Dir: r3.Vec{X: 1}}, 10)
	require.True(t, ok)
	assert.InDelta(t, 1.0, dist, 1e-9)
	assert.Equal(t, r3.Vec{X: -1}, n)

	dist, n, ok = box.RayEntry(spatial.Ray{Origin: r3.Vec{X: 0.5, Y: 4, Z: 0.5}, Dir: r3.Vec{Y: -1}}, 10)
	require.True(t, ok)
	assert.InDelta(t, 3.0, dist, 1e-9)
	assert.Equal(t, r3.Vec{Y: 1}, n)
}

func TestAABB_RayEntry_Misses(t *testing.T) {
	box := unitBox()
	tests := []struct {
		name    string
		ray     spatial.Ray
		maxDist float64
	}{
		{"pointing away", spatial.Ray{Origin: r3.Vec{X: -1, Y: 0.5, Z: 0.5}, Dir: r3.Vec{X: -1}}, 10},
		{"passes beside", spatial.Ray{Origin: r3.Vec{X: -1, Y: 2, Z: 0.5}, Dir: r3.Vec{X: 1}}, 10},
		{"beyond max distance", spatial.Ray{Origin: r3.Vec{X: -1, Y: 0.5, Z: 0.5}, Dir: r3.Vec{X: 1}}, 0.5},
		{"starts inside", spatial.Ray{Origin: r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, Dir: r3.Vec{X: 1}}, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, ok := box.RayEntry(tc.ray, tc.maxDist)
			assert.False(t, ok)
		})
	}
}

func TestAABB_Intersects_TouchingIsNotIntersecting(t *testing.T) {
	a := unitBox()
	b := spatial.AABB{Min: r3.Vec{X: 1}, Max: r3.Vec{X: 2, Y: 1, Z: 1}}
	assert.False(t, a.Intersects(b))
	c := spatial.AABB{Min: r3.Vec{X: 0.9}, Max: r3.Vec{X: 2, Y: 1, Z: 1}}
	assert.True(t, a.Intersects(c))
}

func TestScene_AddRejectsDuplicates(t *testing.T) {
	s := spatial.NewScene(1)
	require.NoError(t, s.Add(spatial.Collider{ID: "a", Bounds: unitBox()}))
	assert.Error(t, s.Add(spatial.Collider{ID: "a", Bounds: unitBox()}))
	assert.Error(t, s.Add(spatial.Collider{Bounds: unitBox()}))
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
}

func TestScene_CastRay_ReturnsAllHits(t *testing.T) {
	s := spatial.NewScene(1)
	require.NoError(t, s.Add(spatial.Collider{ID: "near", Bounds: unitBox(), Class: spatial.ClassBuildable}))
	require.NoError(t, s.Add(spatial.Collider{
		ID:     "far",
		Bounds: spatial.AABB{Min: r3.Vec{X: 3}, Max: r3.Vec{X: 4, Y: 1, Z: 1}},
		Class:  spatial.ClassObstacle,
		Tag:    "rock",
	}))

	hits := s.CastRay(spatial.Ray{Origin: r3.Vec{X: -1, Y: 0.5, Z: 0.5}, Dir: r3.Vec{X: 1}}, 100)
	require.Len(t, hits, 2)
	byID := map[string]spatial.Hit{}
	for _, h := range hits {
		byID[h.ColliderID] = h
	}
	assert.InDelta(t, 1.0, byID["near"].Distance, 1e-9)
	assert.InDelta(t, 4.0, byID["far"].Distance, 1e-9)
	assert.Equal(t, spatial.ClassObstacle, byID["far"].Class)
	assert.Equal(t, "rock", byID["far"].Tag)
	assert.InDelta(t, 3.0, byID["far"].Point.X, 1e-9)
}

func TestScene_SweepSphere_CatchesNearMiss(t *testing.T) {
	s := spatial.NewScene(1)
	require.NoError(t, s.Add(spatial.Collider{ID: "box", Bounds: unitBox(), Class: spatial.ClassBuildable}))
	ray := spatial.Ray{Origin: r3.Vec{X: -2, Y: 1.3, Z: 0.5}, Dir: r3.Vec{X: 1}}

	assert.Empty(t, s.CastRay(ray, 10), "a thin ray passes above the box")

	hit, ok := s.SweepSphere(ray, 0.5, 10)
	require.True(t, ok)
	assert.Equal(t, "box", hit.ColliderID)
	assert.InDelta(t, 1.5, hit.Distance, 1e-9)
	assert.InDelta(t, 0.0, hit.Point.X, 1e-9)
	assert.InDelta(t, 1.0, hit.Point.Y, 1e-9)
}

func TestScene_SweepSphere_PicksNearest(t *testing.T) {
	s := spatial.NewScene(1)
	require.NoError(t, s.Add(spatial.Collider{ID: "a-far", Bounds: spatial.AABB{Min: r3.Vec{X: 5}, Max: r3.Vec{X: 6, Y: 1, Z: 1}}}))
	require.NoError(t, s.Add(spatial.Collider{ID: "b-near", Bounds: unitBox()}))
	hit, ok := s.SweepSphere(spatial.Ray{Origin: r3.Vec{X: -3, Y: 0.5, Z: 0.5}, Dir: r3.Vec{X: 1}}, 0.25, 20)
	require.True(t, ok)
	assert.Equal(t, "b-near", hit.ColliderID)
}

func TestScene_Overlap_Sphere(t *testing.T) {
	s := spatial.NewScene(1)
	require.NoError(t, s.Add(spatial.Collider{ID: "box", Bounds: unitBox()}))
	assert.Empty(t, s.Overlap(r3.Vec{X: 1.5, Y: 0.5, Z: 0.5}, spatial.Sphere{Radius: 0.4}))
	hits := s.Overlap(r3.Vec{X: 1.3, Y: 0.5, Z: 0.5}, spatial.Sphere{Radius: 0.4})
	require.Len(t, hits, 1)
	assert.Equal(t, "box", hits[0].ColliderID)
}

func TestScene_Overlap_Box(t *testing.T) {
	s := spatial.NewScene(1)
	require.NoError(t, s.Add(spatial.Collider{ID: "box", Bounds: unitBox()}))
	half := spatial.Box{HalfExtents: r3.Vec{X: 0.45, Y: 0.45, Z: 0.45}}
	assert.Empty(t, s.Overlap(r3.Vec{X: 1.5, Y: 0.5, Z: 0.5}, half))
	assert.Len(t, s.Overlap(r3.Vec{X: 1.4, Y: 0.5, Z: 0.5}, half), 1)
}

func TestScene_SpawnDespawn(t *testing.T) {
	s := spatial.NewScene(1)
	require.NoError(t, s.Spawn("blk-1", "stone", r3.Vec{X: 3.5, Y: 0.5, Z: 5.5}))
	c, ok := s.Get("blk-1")
	require.True(t, ok)
	assert.Equal(t, spatial.ClassBuildable, c.Class)
	assert.Equal(t, spatial.TagBlock, c.Tag)
	assert.Equal(t, r3.Vec{X: 3, Y: 0, Z: 5}, c.Bounds.Min)
	assert.Equal(t, r3.Vec{X: 4, Y: 1, Z: 6}, c.Bounds.Max)

	assert.Error(t, s.Spawn("blk-1", "stone", r3.Vec{}), "ids are unique")
	s.Despawn("blk-1")
	assert.Equal(t, 0, s.Len())
}

func TestLoadSceneFromBytes(t *testing.T) {
	data := []byte(`
block_size: 1
colliders:
  - id: ground
    min: [-20, -1, -20]
    max: [20, 0, 20]
    class: buildable
  - id: rock
    min: [2, 0, 2]
    max: [3, 1, 3]
    class: obstacle
    tag: rock
`)
	s, err := spatial.LoadSceneFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	rock, ok := s.Get("rock")
	require.True(t, ok)
	assert.Equal(t, spatial.ClassObstacle, rock.Class)
	assert.Equal(t, "rock", rock.Tag)
}

func TestLoadSceneFromBytes_Errors(t *testing.T) {
	tests := map[string]string{
		"inverted box":  "colliders:\n  - id: bad\n    min: [1, 1, 1]\n    max: [0, 0, 0]\n",
		"unknown class": "colliders:\n  - id: bad\n    min: [0, 0, 0]\n    max: [1, 1, 1]\n    class: lava\n",
		"duplicate id":  "colliders:\n  - id: a\n    max: [1, 1, 1]\n  - id: a\n    max: [1, 1, 1]\n",
		"negative size": "block_size: -1\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := spatial.LoadSceneFromBytes([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadScene_MissingFile(t *testing.T) {
	_, err := spatial.LoadScene(t.TempDir() + "/nope.yaml")
	assert.Error(t, err)
}
