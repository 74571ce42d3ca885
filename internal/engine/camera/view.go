package camera

import (
	"github.com/Faultbox/voxsmoke/internal/engine/picking"
	"github.com/Faultbox/voxsmoke/pkg/math"
)

// Lens holds the projection parameters.
type Lens struct {
	FovY float32 // degrees
	Near float32
	Far  float32
}

// DefaultLens returns a 60 degree lens with a 0.1..200 depth range.
func DefaultLens() Lens {
	return Lens{FovY: 60, Near: 0.1, Far: 200}
}

// Projection returns the perspective matrix for a width×height viewport.
func (l Lens) Projection(width, height int) math.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return math.Perspective(math.Radians(l.FovY), aspect, l.Near, l.Far)
}

// View is the per-frame viewer state handed to the renderers.
type View struct {
	ViewMatrix  math.Mat4
	Projection  math.Mat4
	InvViewProj math.Mat4

	Position math.Vec3
	Forward  math.Vec3

	Width, Height int
	Near, Far     float32
}

// NewView captures the viewer state for a frame.
func NewView(v Viewer, lens Lens, width, height int) View {
	viewM := v.ViewMatrix()
	proj := lens.Projection(width, height)
	return View{
		ViewMatrix:  viewM,
		Projection:  proj,
		InvViewProj: proj.Mul(viewM).Inverse(),
		Position:    v.Position(),
		// Row 2 of the view rotation is the camera back axis.
		Forward: math.Vec3{X: -viewM[2], Y: -viewM[6], Z: -viewM[10]}.Normalize(),
		Width:   width,
		Height:  height,
		Near:    lens.Near,
		Far:     lens.Far,
	}
}

// WithViewport returns the same view for a different pixel grid (sub-resolution passes).
func (v View) WithViewport(width, height int) View {
	v.Width = width
	v.Height = height
	return v
}

// Ray returns the world-space ray through pixel (px, py). Integer coordinates address
// pixel corners, so pass x+0.5 for pixel centres. The origin is moved to the camera.
func (v View) Ray(px, py float32) picking.Ray {
	r := picking.ScreenToRay(px, py, float32(v.Width), float32(v.Height), v.InvViewProj)
	r.Origin = v.Position
	return r
}

// LinearDepth returns the view-space depth of p (distance along Forward).
func (v View) LinearDepth(p math.Vec3) float32 {
	return p.Sub(v.Position).Dot(v.Forward)
}

// RayDistance converts a linear depth to a distance along a ray with direction dir.
func (v View) RayDistance(depth float32, dir math.Vec3) float32 {
	c := dir.Dot(v.Forward)
	if c <= 1e-6 {
		return depth
	}
	return depth / c
}

// Project maps a world point to pixel coordinates. ok is false for points behind the
// near plane.
func (v View) Project(p math.Vec3) (x, y float32, ok bool) {
	clip := v.Projection.Mul(v.ViewMatrix).MulVec4(math.Vec4{p.X, p.Y, p.Z, 1})
	if clip[3] < v.Near {
		return 0, 0, false
	}
	ndcX := clip[0] / clip[3]
	ndcY := clip[1] / clip[3]
	x = (ndcX + 1) / 2 * float32(v.Width)
	y = (1 - ndcY) / 2 * float32(v.Height)
	return x, y, true
}
