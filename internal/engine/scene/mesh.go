package scene

import (
	"github.com/Faultbox/voxsmoke/internal/engine/picking"
	"github.com/Faultbox/voxsmoke/pkg/math"
)

// Mesh is an indexed triangle list with a local-to-world transform.
type Mesh struct {
	Name         string
	Positions    []math.Vec3
	Indices      []uint32
	LocalToWorld math.Mat4
	Color        math.Vec3 // diffuse albedo, linear
}

// TriangleCount returns the number of complete triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangle returns triangle i in world space.
func (m *Mesh) Triangle(i int) (a, b, c math.Vec3) {
	a = m.LocalToWorld.TransformVec3(m.Positions[m.Indices[3*i]])
	b = m.LocalToWorld.TransformVec3(m.Positions[m.Indices[3*i+1]])
	c = m.LocalToWorld.TransformVec3(m.Positions[m.Indices[3*i+2]])
	return a, b, c
}

// WorldTriangles returns every triangle in world space as a flat list of vertices.
// Triangles referencing out-of-range vertices are skipped.
func (m *Mesh) WorldTriangles() []math.Vec3 {
	world := make([]math.Vec3, len(m.Positions))
	for i, p := range m.Positions {
		world[i] = m.LocalToWorld.TransformVec3(p)
	}

	out := make([]math.Vec3, 0, m.TriangleCount()*3)
	n := uint32(len(world))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		ia, ib, ic := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if ia >= n || ib >= n || ic >= n {
			continue
		}
		out = append(out, world[ia], world[ib], world[ic])
	}
	return out
}

// Bounds returns the world-space box around the mesh. Empty meshes return a zero box.
func (m *Mesh) Bounds() picking.AABB {
	if len(m.Positions) == 0 {
		return picking.AABB{}
	}
	local := picking.AABB{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		local.Min = local.Min.Min(p)
		local.Max = local.Max.Max(p)
	}
	return picking.TransformAABB(local, m.LocalToWorld)
}
