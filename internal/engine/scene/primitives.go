package scene

import "github.com/Faultbox/voxsmoke/pkg/math"

// Box returns an axis-aligned box mesh of the given full size, centred on the origin.
func Box(name string, size math.Vec3, localToWorld math.Mat4) *Mesh {
	h := size.Scale(0.5)
	positions := []math.Vec3{
		{X: -h.X, Y: -h.Y, Z: -h.Z},
		{X: h.X, Y: -h.Y, Z: -h.Z},
		{X: h.X, Y: h.Y, Z: -h.Z},
		{X: -h.X, Y: h.Y, Z: -h.Z},
		{X: -h.X, Y: -h.Y, Z: h.Z},
		{X: h.X, Y: -h.Y, Z: h.Z},
		{X: h.X, Y: h.Y, Z: h.Z},
		{X: -h.X, Y: h.Y, Z: h.Z},
	}
	indices := []uint32{
		0, 2, 1, 0, 3, 2, // -Z
		4, 5, 6, 4, 6, 7, // +Z
		0, 4, 7, 0, 7, 3, // -X
		1, 2, 6, 1, 6, 5, // +X
		0, 1, 5, 0, 5, 4, // -Y
		3, 7, 6, 3, 6, 2, // +Y
	}
	return &Mesh{
		Name:         name,
		Positions:    positions,
		Indices:      indices,
		LocalToWorld: localToWorld,
		Color:        math.Splat(0.7),
	}
}

// Plane returns a horizontal quad of the given width (X) and depth (Z), facing +Y.
func Plane(name string, width, depth float32, localToWorld math.Mat4) *Mesh {
	hw, hd := width/2, depth/2
	return &Mesh{
		Name: name,
		Positions: []math.Vec3{
			{X: -hw, Z: -hd},
			{X: hw, Z: -hd},
			{X: hw, Z: hd},
			{X: -hw, Z: hd},
		},
		Indices:      []uint32{0, 2, 1, 0, 3, 2},
		LocalToWorld: localToWorld,
		Color:        math.Splat(0.5),
	}
}
