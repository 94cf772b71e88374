package aim_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
	"pgregory.net/rapid"

	"github.com/gdhsf3701/island/internal/game/aim"
	"github.com/gdhsf3701/island/internal/game/spatial"
)

// flatView maps screen (x, y) to a ray starting at (x, y, 0) pointing +Z and
// projects world points by dropping Z.
type flatView struct{}

func (flatView) ScreenPointToRay(p spatial.ScreenPoint) spatial.Ray {
	return spatial.Ray{Origin: r3.Vec{X: p.X, Y: p.Y}, Dir: r3.Vec{Z: 1}}
}

func (flatView) WorldToScreen(w r3.Vec) (spatial.ScreenPoint, bool) {
	return spatial.ScreenPoint{X: w.X, Y: w.Y}, w.Z >= 0
}

func (flatView) Size() (float64, float64) { return 800, 600 }

// isAnchorRay reports whether ray starts at the default anchor (0.5w, 0.3h).
func isAnchorRay(ray spatial.Ray) bool {
	return math.Abs(ray.Origin.X-400) < 1e-9 && math.Abs(ray.Origin.Y-180) < 1e-9
}

// scriptedQuery returns canned hits per ladder rung and records the call order.
type scriptedQuery struct {
	primary  []spatial.Hit
	extended []spatial.Hit
	anchor   []spatial.Hit
	sweep    *spatial.Hit
	calls    []string
}

func (q *scriptedQuery) CastRay(ray spatial.Ray, maxDist float64) []spatial.Hit {
	switch {
	case isAnchorRay(ray):
		q.calls = append(q.calls, "anchor")
		return q.anchor
	case maxDist > 100:
		q.calls = append(q.calls, "extended")
		return q.extended
	default:
		q.calls = append(q.calls, "primary")
		return q.primary
	}
}

func (q *scriptedQuery) SweepSphere(spatial.Ray, float64, float64) (spatial.Hit, bool) {
	q.calls = append(q.calls, "sweep")
	if q.sweep == nil {
		return spatial.Hit{}, false
	}
	return *q.sweep, true
}

func (q *scriptedQuery) Overlap(r3.Vec, spatial.Shape) []spatial.Hit { return nil }

func newResolver(t *testing.T, q spatial.Query) *aim.Resolver {
	t.Helper()
	r, err := aim.NewResolver(aim.DefaultConfig(), q, flatView{}, zap.NewNop())
	require.NoError(t, err)
	return r
}

func buildable(id string, dist float64, point r3.Vec) spatial.Hit {
	return spatial.Hit{ColliderID: id, Distance: dist, Point: point, Normal: r3.Vec{Y: 1}, Class: spatial.ClassBuildable}
}

func TestResolve_PrimaryPicksNearestBuildable(t *testing.T) {
	q := &scriptedQuery{primary: []spatial.Hit{
		buildable("far", 9, r3.Vec{Z: 9}),
		{ColliderID: "ghost", Distance: 1, Class: spatial.ClassBuildable, Tag: spatial.TagPreview},
		{ColliderID: "rock", Distance: 2, Class: spatial.ClassObstacle},
		buildable("near", 4, r3.Vec{Z: 4}),
	}}
	c, ok := newResolver(t, q).Resolve(spatial.ScreenPoint{X: 10, Y: 10})
	require.True(t, ok)
	assert.Equal(t, "near", c.Hit.ColliderID)
	assert.Equal(t, aim.StrategyPrimary, c.Strategy)
	assert.Equal(t, r3.Vec{Z: 4}, c.Point)
	assert.Equal(t, r3.Vec{Y: 1}, c.Normal)
	assert.Equal(t, []string{"primary"}, q.calls)
}

func TestResolve_EqualDistancesKeepInputOrder(t *testing.T) {
	q := &scriptedQuery{primary: []spatial.Hit{
		buildable("first", 3, r3.Vec{}),
		buildable("second", 3, r3.Vec{}),
	}}
	c, ok := newResolver(t, q).Resolve(spatial.ScreenPoint{})
	require.True(t, ok)
	assert.Equal(t, "first", c.Hit.ColliderID)
}

func TestResolve_FallsBackToExtendedCast(t *testing.T) {
	q := &scriptedQuery{extended: []spatial.Hit{buildable("distant", 150, r3.Vec{Z: 150})}}
	c, ok := newResolver(t, q).Resolve(spatial.ScreenPoint{})
	require.True(t, ok)
	assert.Equal(t, aim.StrategyExtended, c.Strategy)
	assert.Equal(t, []string{"primary", "extended"}, q.calls)
}

// Primary cast finds nothing buildable; the anchor cast finds two buildable
// hits 5px and 50px from the pointer on screen, and the 5px one must win.
func TestResolve_AnchorPicksClosestOnScreen(t *testing.T) {
	pointer := spatial.ScreenPoint{X: 300, Y: 200}
	q := &scriptedQuery{
		primary: []spatial.Hit{{ColliderID: "rock", Distance: 2, Class: spatial.ClassObstacle}},
		anchor: []spatial.Hit{
			buildable("fifty", 1, r3.Vec{X: 350, Y: 200, Z: 1}),
			buildable("five", 30, r3.Vec{X: 303, Y: 204, Z: 30}),
		},
	}
	c, ok := newResolver(t, q).Resolve(pointer)
	require.True(t, ok)
	assert.Equal(t, "five", c.Hit.ColliderID)
	assert.Equal(t, aim.StrategyAnchor, c.Strategy)
	assert.Equal(t, []string{"primary", "extended", "anchor"}, q.calls)
}

func TestResolve_AnchorTieBreaksOnRayDistance(t *testing.T) {
	q := &scriptedQuery{anchor: []spatial.Hit{
		buildable("deep", 20, r3.Vec{X: 10, Z: 20}),
		buildable("shallow", 5, r3.Vec{X: -10, Z: 5}),
	}}
	c, ok := newResolver(t, q).Resolve(spatial.ScreenPoint{})
	require.True(t, ok)
	assert.Equal(t, "shallow", c.Hit.ColliderID)
}

func TestResolve_AnchorSkipsHitsBehindViewer(t *testing.T) {
	sweep := buildable("swept", 3, r3.Vec{})
	q := &scriptedQuery{
		anchor: []spatial.Hit{buildable("behind", 1, r3.Vec{Z: -1})},
		sweep:  &sweep,
	}
	c, ok := newResolver(t, q).Resolve(spatial.ScreenPoint{})
	require.True(t, ok)
	assert.Equal(t, aim.StrategySweep, c.Strategy)
}

func TestResolve_SweepRejectsPreviewAndObstacles(t *testing.T) {
	for _, hit := range []spatial.Hit{
		{ColliderID: "ghost", Class: spatial.ClassBuildable, Tag: spatial.TagPreview},
		{ColliderID: "rock", Class: spatial.ClassObstacle},
	} {
		h := hit
		q := &scriptedQuery{sweep: &h}
		_, ok := newResolver(t, q).Resolve(spatial.ScreenPoint{})
		assert.False(t, ok, hit.ColliderID)
		assert.Equal(t, []string{"primary", "extended", "anchor", "sweep"}, q.calls)
	}
}

func TestResolve_NoCandidate(t *testing.T) {
	q := &scriptedQuery{}
	_, ok := newResolver(t, q).Resolve(spatial.ScreenPoint{})
	assert.False(t, ok)
}

// TestResolve_Property_LadderStopsAtFirstSuccess pins the strategy order: the
// first rung with a buildable hit wins and later rungs are never consulted.
func TestResolve_Property_LadderStopsAtFirstSuccess(t *testing.T) {
	order := []string{"primary", "extended", "anchor", "sweep"}
	rapid.Check(t, func(rt *rapid.T) {
		have := rapid.SliceOfN(rapid.Bool(), 4, 4).Draw(rt, "rungs")
		q := &scriptedQuery{}
		hit := buildable("x", 1, r3.Vec{Z: 1})
		if have[0] {
			q.primary = []spatial.Hit{hit}
		}
		if have[1] {
			q.extended = []spatial.Hit{hit}
		}
		if have[2] {
			q.anchor = []spatial.Hit{hit}
		}
		if have[3] {
			q.sweep = &hit
		}
		r, err := aim.NewResolver(aim.DefaultConfig(), q, flatView{}, zap.NewNop())
		require.NoError(rt, err)
		c, ok := r.Resolve(spatial.ScreenPoint{})

		first := -1
		for i, h := range have {
			if h {
				first = i
				break
			}
		}
		if first < 0 {
			assert.False(rt, ok)
			assert.Equal(rt, order, q.calls)
			return
		}
		require.True(rt, ok)
		assert.Equal(rt, aim.Strategy(first), c.Strategy)
		assert.Equal(rt, order[:first+1], q.calls)
	})
}

func TestResolve_AgainstSceneAndCamera(t *testing.T) {
	scene := spatial.NewScene(1)
	require.NoError(t, scene.Add(spatial.Collider{
		ID:     "ground",
		Bounds: spatial.AABB{Min: r3.Vec{X: -20, Y: -1, Z: -20}, Max: r3.Vec{X: 20, Z: 20}},
		Class:  spatial.ClassBuildable,
	}))
	cam, err := spatial.NewCamera(r3.Vec{Y: 10, Z: 10}, r3.Vec{}, 60, 800, 600)
	require.NoError(t, err)
	r, err := aim.NewResolver(aim.DefaultConfig(), scene, cam, zap.NewNop())
	require.NoError(t, err)

	c, ok := r.Resolve(spatial.ScreenPoint{X: 400, Y: 300})
	require.True(t, ok)
	assert.Equal(t, "ground", c.Hit.ColliderID)
	assert.InDelta(t, 0, c.Point.X, 1e-9)
	assert.InDelta(t, 0, c.Point.Y, 1e-9)
	assert.InDelta(t, 0, c.Point.Z, 1e-9)
	assert.Equal(t, r3.Vec{Y: 1}, c.Normal)
}

func TestNewResolver_Validates(t *testing.T) {
	cfg := aim.DefaultConfig()
	cfg.MaxDistance = 0
	cfg.SweepRadius = -1
	_, err := aim.NewResolver(cfg, &scriptedQuery{}, flatView{}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_distance")
	assert.Contains(t, err.Error(), "sweep_radius")

	_, err = aim.NewResolver(aim.DefaultConfig(), nil, flatView{}, zap.NewNop())
	assert.Error(t, err)
}

func TestStrategy_String(t *testing.T) {
	assert.Equal(t, "primary", aim.StrategyPrimary.String())
	assert.Equal(t, "sweep", aim.StrategySweep.String())
}
