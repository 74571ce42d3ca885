// Package scene holds the static geometry the smoke collides with, plus a small CPU
// pass that renders it into the color and linear-depth images the compositor blends over.
package scene

import (
	"github.com/Faultbox/voxsmoke/internal/engine/lighting"
	"github.com/Faultbox/voxsmoke/internal/engine/picking"
	"github.com/Faultbox/voxsmoke/pkg/math"
)

// DefaultRaycastDistance is how far a trigger ray searches for an impact point.
const DefaultRaycastDistance = 50

// Scene is a list of static meshes lit by a single sun.
type Scene struct {
	Meshes []*Mesh
	Sun    lighting.Sun

	// Sky gradient used where no geometry is hit
	SkyHorizon math.Vec3
	SkyZenith  math.Vec3

	// Optional viewer and trigger defaults from the scene file
	CameraPosition math.Vec3
	CameraTarget   math.Vec3
	Trigger        *math.Vec3
}

// New creates an empty scene with the default sun.
func New() *Scene {
	return &Scene{
		Sun:            lighting.DefaultSun(),
		SkyHorizon:     math.Vec3{X: 0.65, Y: 0.72, Z: 0.8},
		SkyZenith:      math.Vec3{X: 0.25, Y: 0.4, Z: 0.7},
		CameraPosition: math.Vec3{X: 0, Y: 3, Z: 10},
		CameraTarget:   math.Vec3{X: 0, Y: 2, Z: 0},
	}
}

// Add appends meshes to the scene.
func (s *Scene) Add(meshes ...*Mesh) {
	s.Meshes = append(s.Meshes, meshes...)
}

// Bounds returns the box around every mesh.
func (s *Scene) Bounds() picking.AABB {
	var out picking.AABB
	for i, m := range s.Meshes {
		if i == 0 {
			out = m.Bounds()
			continue
		}
		out = out.Union(m.Bounds())
	}
	return out
}

// TriangleCount returns the total triangle count.
func (s *Scene) TriangleCount() int {
	n := 0
	for _, m := range s.Meshes {
		n += m.TriangleCount()
	}
	return n
}

// Hit describes a ray/scene intersection.
type Hit struct {
	Point    math.Vec3
	Normal   math.Vec3 // faces the ray origin
	Distance float32
	Mesh     *Mesh
}

// Raycast returns the closest hit within maxDist.
func (s *Scene) Raycast(ray picking.Ray, maxDist float32) (Hit, bool) {
	best := Hit{Distance: maxDist}
	found := false

	for _, m := range s.Meshes {
		tNear, _, ok := ray.ClipAABB(m.Bounds())
		if !ok || tNear > best.Distance {
			continue
		}
		for i := 0; i < m.TriangleCount(); i++ {
			a, b, c := m.Triangle(i)
			t, hit := ray.IntersectTriangle(a, b, c)
			if !hit || t >= best.Distance {
				continue
			}
			n := b.Sub(a).Cross(c.Sub(a)).Normalize()
			if n.Dot(ray.Direction) > 0 {
				n = n.Scale(-1)
			}
			best = Hit{Point: ray.At(t), Normal: n, Distance: t, Mesh: m}
			found = true
		}
	}
	return best, found
}

// Occluded reports whether anything blocks the segment from ray origin to maxDist.
func (s *Scene) Occluded(ray picking.Ray, maxDist float32) bool {
	_, hit := s.Raycast(ray, maxDist)
	return hit
}
