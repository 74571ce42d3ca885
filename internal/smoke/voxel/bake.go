package voxel

import (
	"time"

	"github.com/Faultbox/voxsmoke/internal/engine/scene"
	"github.com/Faultbox/voxsmoke/internal/logger"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

// triangle is a world-space triangle with its voxel index range.
type triangle struct {
	a, b, c math.Vec3
	lo, hi  [3]int
}

// Bake rasterizes every mesh into the static mask (union with previous bakes).
// A voxel is static when its box, scaled by the intersection bias, overlaps a triangle.
// Meshes with no triangles contribute nothing. Baking a grid that already holds smoke
// clears it and ends the episode, so no static voxel is ever filled.
func (g *Grid) Bake(meshes []*scene.Mesh) {
	if g.state == Released {
		return
	}
	start := time.Now()
	g.ensureBuffers()

	half := math.Splat(g.cfg.VoxelSize / 2 * g.cfg.IntersectionBias)
	tris := g.collectTriangles(meshes, half)

	// One invocation per z slice; each owns the writes to its slice.
	static := g.static.Data()
	g.dispatcher.Dispatch(g.nz, func(k int) {
		for t := range tris {
			tri := &tris[t]
			if k < tri.lo[2] || k > tri.hi[2] {
				continue
			}
			for j := tri.lo[1]; j <= tri.hi[1]; j++ {
				for i := tri.lo[0]; i <= tri.hi[0]; i++ {
					idx := g.index(i, j, k)
					if static[idx] != 0 {
						continue
					}
					if triangleOverlapsBox(g.VoxelCenter(i, j, k), half, tri.a, tri.b, tri.c) {
						static[idx] = 1
					}
				}
			}
		}
	})

	switch g.state {
	case Uninitialized:
		g.state = StaticBaked
	case Growing, Idle:
		g.endEpisode()
	}
	g.staticCount = countNonZero(static)
	g.log.Debug("static mask baked",
		zap.Int("meshes", len(meshes)),
		zap.Int("triangles", len(tris)),
		zap.Int("static_voxels", g.staticCount),
		logger.Took(start))
}

// collectTriangles flattens meshes and drops triangles outside the grid.
func (g *Grid) collectTriangles(meshes []*scene.Mesh, half math.Vec3) []triangle {
	var tris []triangle
	gridMin := g.bounds.Min
	for _, m := range meshes {
		if m == nil {
			continue
		}
		verts := m.WorldTriangles()
		for v := 0; v+2 < len(verts); v += 3 {
			a, b, c := verts[v], verts[v+1], verts[v+2]
			lo := a.Min(b).Min(c).Sub(half)
			hi := a.Max(b).Max(c).Add(half)
			if hi.X < gridMin.X || hi.Y < gridMin.Y || hi.Z < gridMin.Z ||
				lo.X > g.bounds.Max.X || lo.Y > g.bounds.Max.Y || lo.Z > g.bounds.Max.Z {
				continue
			}
			t := triangle{a: a, b: b, c: c}
			t.lo = g.cellOf(lo)
			t.hi = g.cellOf(hi)
			tris = append(tris, t)
		}
	}
	return tris
}

// cellOf returns the clamped voxel index containing p.
func (g *Grid) cellOf(p math.Vec3) [3]int {
	rel := p.Sub(g.bounds.Min).Scale(1 / g.cfg.VoxelSize)
	return [3]int{
		clampInt(int(math32.Floor(rel.X)), 0, g.nx-1),
		clampInt(int(math32.Floor(rel.Y)), 0, g.ny-1),
		clampInt(int(math32.Floor(rel.Z)), 0, g.nz-1),
	}
}

// triangleOverlapsBox is the separating axis test between a triangle and the box
// centred at c with half extent h: 9 edge cross axes, 3 box normals, the triangle normal.
func triangleOverlapsBox(c, h, a, b, t math.Vec3) bool {
	v0, v1, v2 := a.Sub(c), b.Sub(c), t.Sub(c)
	edges := [3]math.Vec3{v1.Sub(v0), v2.Sub(v1), v0.Sub(v2)}
	axes := [3]math.Vec3{{X: 1}, {Y: 1}, {Z: 1}}

	for _, e := range edges {
		for _, u := range axes {
			axis := u.Cross(e)
			if separated(axis, h, v0, v1, v2) {
				return false
			}
		}
	}

	if min3(v0.X, v1.X, v2.X) > h.X || max3(v0.X, v1.X, v2.X) < -h.X ||
		min3(v0.Y, v1.Y, v2.Y) > h.Y || max3(v0.Y, v1.Y, v2.Y) < -h.Y ||
		min3(v0.Z, v1.Z, v2.Z) > h.Z || max3(v0.Z, v1.Z, v2.Z) < -h.Z {
		return false
	}

	n := edges[0].Cross(edges[1])
	d := n.Dot(v0)
	r := h.X*math32.Abs(n.X) + h.Y*math32.Abs(n.Y) + h.Z*math32.Abs(n.Z)
	return math32.Abs(d) <= r
}

func separated(axis, h, v0, v1, v2 math.Vec3) bool {
	if axis == (math.Vec3{}) {
		return false
	}
	p0, p1, p2 := v0.Dot(axis), v1.Dot(axis), v2.Dot(axis)
	r := h.X*math32.Abs(axis.X) + h.Y*math32.Abs(axis.Y) + h.Z*math32.Abs(axis.Z)
	return min3(p0, p1, p2) > r || max3(p0, p1, p2) < -r
}

func min3(a, b, c float32) float32 { return math32.Min(a, math32.Min(b, c)) }
func max3(a, b, c float32) float32 { return math32.Max(a, math32.Max(b, c)) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func countNonZero[T uint8 | int32](data []T) int {
	n := 0
	for _, v := range data {
		if v != 0 {
			n++
		}
	}
	return n
}
