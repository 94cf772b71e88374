package spatial

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Collider is a static axis-aligned volume in a Scene.
type Collider struct {
	ID     string
	Bounds AABB
	Class  Class
	Tag    string
}

// Scene is an in-memory collider set implementing Query.
//
// It also serves as the visual spawn factory for placed blocks: Spawn adds a
// buildable unit box for a block and Despawn removes it.
// All methods are safe for concurrent use.
type Scene struct {
	mu        sync.RWMutex
	colliders map[string]Collider
	blockSize float64
}

// NewScene returns an empty Scene whose spawned blocks are cubes of blockSize.
//
// Precondition: blockSize > 0.
func NewScene(blockSize float64) *Scene {
	if blockSize <= 0 {
		panic("spatial.NewScene: blockSize must be > 0")
	}
	return &Scene{
		colliders: make(map[string]Collider),
		blockSize: blockSize,
	}
}

// Add registers c.
//
// Postcondition: returns an error if c.ID is empty or already registered.
func (s *Scene) Add(c Collider) error {
	if c.ID == "" {
		return fmt.Errorf("spatial.Scene.Add: collider id must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.colliders[c.ID]; exists {
		return fmt.Errorf("spatial.Scene.Add: collider %q already registered", c.ID)
	}
	s.colliders[c.ID] = c
	return nil
}

// Remove deletes the collider with the given id and reports whether it existed.
func (s *Scene) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.colliders[id]; !ok {
		return false
	}
	delete(s.colliders, id)
	return true
}

// Get returns the collider with the given id.
func (s *Scene) Get(id string) (Collider, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.colliders[id]
	return c, ok
}

// Len returns the number of colliders.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.colliders)
}

// Spawn adds the visual representation of a placed block: a buildable cube
// tagged TagBlock centered at center.
func (s *Scene) Spawn(id, typeID string, center r3.Vec) error {
	half := s.blockSize / 2
	return s.Add(Collider{
		ID:     id,
		Bounds: BoxAt(center, r3.Vec{X: half, Y: half, Z: half}),
		Class:  ClassBuildable,
		Tag:    TagBlock,
	})
}

// Despawn removes the representation added by Spawn.
func (s *Scene) Despawn(id string) {
	s.Remove(id)
}

// snapshot returns the colliders sorted by ID so query results are stable.
func (s *Scene) snapshot() []Collider {
	s.mu.RLock()
	out := make([]Collider, 0, len(s.colliders))
	for _, c := range s.colliders {
		out = append(out, c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CastRay implements Query.
func (s *Scene) CastRay(ray Ray, maxDist float64) []Hit {
	var hits []Hit
	for _, c := range s.snapshot() {
		t, n, ok := c.Bounds.RayEntry(ray, maxDist)
		if !ok {
			continue
		}
		hits = append(hits, Hit{
			ColliderID: c.ID,
			Point:      ray.At(t),
			Normal:     n,
			Distance:   t,
			Class:      c.Class,
			Tag:        c.Tag,
		})
	}
	return hits
}

// SweepSphere implements Query. Colliders the sphere already overlaps at the
// ray origin are ignored.
func (s *Scene) SweepSphere(ray Ray, radius, maxDist float64) (Hit, bool) {
	var best Hit
	found := false
	for _, c := range s.snapshot() {
		grown := c.Bounds.Expand(radius)
		if grown.Contains(ray.Origin) {
			continue
		}
		t, n, ok := grown.RayEntry(ray, maxDist)
		if !ok {
			continue
		}
		if found && t >= best.Distance {
			continue
		}
		center := ray.At(t)
		best = Hit{
			ColliderID: c.ID,
			Point:      c.Bounds.ClosestPoint(center),
			Normal:     n,
			Distance:   t,
			Class:      c.Class,
			Tag:        c.Tag,
		}
		found = true
	}
	return best, found
}

// Overlap implements Query.
func (s *Scene) Overlap(center r3.Vec, shape Shape) []Hit {
	var hits []Hit
	for _, c := range s.snapshot() {
		closest := c.Bounds.ClosestPoint(center)
		dist := r3.Norm(r3.Sub(closest, center))
		switch sh := shape.(type) {
		case Sphere:
			if dist >= sh.Radius {
				continue
			}
		case Box:
			if !BoxAt(center, sh.HalfExtents).Intersects(c.Bounds) {
				continue
			}
		default:
			continue
		}
		hits = append(hits, Hit{
			ColliderID: c.ID,
			Point:      closest,
			Distance:   dist,
			Class:      c.Class,
			Tag:        c.Tag,
		})
	}
	return hits
}

// sceneFile is the YAML layout read by LoadScene.
type sceneFile struct {
	BlockSize float64 `yaml:"block_size"`
	Colliders []struct {
		ID    string     `yaml:"id"`
		Min   [3]float64 `yaml:"min"`
		Max   [3]float64 `yaml:"max"`
		Class Class      `yaml:"class"`
		Tag   string     `yaml:"tag"`
	} `yaml:"colliders"`
}

// LoadScene reads a YAML scene description from path.
//
// Precondition: path names a readable YAML file.
// Postcondition: Returns a populated Scene or the first error encountered.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadScene: cannot read %q: %w", path, err)
	}
	return LoadSceneFromBytes(data)
}

// LoadSceneFromBytes parses a YAML scene description.
//
// Postcondition: every collider has Min <= Max and a unique ID, or an error is
// returned.
func LoadSceneFromBytes(data []byte) (*Scene, error) {
	var f sceneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("LoadScene: cannot parse scene: %w", err)
	}
	if f.BlockSize == 0 {
		f.BlockSize = 1
	}
	if f.BlockSize < 0 {
		return nil, fmt.Errorf("LoadScene: block_size must be > 0, got %v", f.BlockSize)
	}
	scene := NewScene(f.BlockSize)
	for _, c := range f.Colliders {
		min := r3.Vec{X: c.Min[0], Y: c.Min[1], Z: c.Min[2]}
		max := r3.Vec{X: c.Max[0], Y: c.Max[1], Z: c.Max[2]}
		if min.X > max.X || min.Y > max.Y || min.Z > max.Z {
			return nil, fmt.Errorf("LoadScene: collider %q has min %v greater than max %v", c.ID, c.Min, c.Max)
		}
		if err := scene.Add(Collider{
			ID:     c.ID,
			Bounds: AABB{Min: min, Max: max},
			Class:  c.Class,
			Tag:    c.Tag,
		}); err != nil {
			return nil, fmt.Errorf("LoadScene: %w", err)
		}
	}
	return scene, nil
}
