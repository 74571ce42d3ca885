// Package camera provides camera implementations for 3D rendering.
package camera

import (
	"github.com/Faultbox/voxsmoke/internal/engine/picking"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
)

// Viewer is anything that can produce a view matrix from a world position.
type Viewer interface {
	Position() math.Vec3
	ViewMatrix() math.Mat4
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	CenterX, CenterY, CenterZ float32

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        12.0,
		RotationX:       0.35,
		RotationY:       0.0,
		MinDistance:     1.0,
		MaxDistance:     100.0,
		MinPitch:        -1.2,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	x := c.Distance * math32.Cos(c.RotationX) * math32.Sin(c.RotationY)
	y := c.Distance * math32.Sin(c.RotationX)
	z := c.Distance * math32.Cos(c.RotationX) * math32.Cos(c.RotationY)

	return math.Vec3{
		X: c.CenterX + x,
		Y: c.CenterY + y,
		Z: c.CenterZ + z,
	}
}

// Center returns the orbit target.
func (c *OrbitCamera) Center() math.Vec3 {
	return math.Vec3{X: c.CenterX, Y: c.CenterY, Z: c.CenterZ}
}

// Forward returns the unit vector from the camera towards its center.
func (c *OrbitCamera) Forward() math.Vec3 {
	return c.Center().Sub(c.Position()).Normalize()
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(c.Position(), c.Center(), up)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity
	c.RotationX = math.Clamp(c.RotationX, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = math.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// SetCenter sets the camera's center point.
func (c *OrbitCamera) SetCenter(x, y, z float32) {
	c.CenterX = x
	c.CenterY = y
	c.CenterZ = z
}

// FitToBounds adjusts camera to view the given bounding box.
func (c *OrbitCamera) FitToBounds(box picking.AABB) {
	center := box.Center()
	c.SetCenter(center.X, center.Y, center.Z)

	radius := box.Extent().Length()
	c.Distance = math.Clamp(radius*2.5, c.MinDistance, c.MaxDistance)
	c.RotationX = 0.35
	c.RotationY = 0.0
}

// FlyCamera is a first-person camera. Yaw 0 looks down -Z.
type FlyCamera struct {
	Pos   math.Vec3
	Yaw   float32 // radians, positive turns left
	Pitch float32 // radians, positive looks up

	MaxPitch        float32
	MoveSpeed       float32 // units per second
	LookSensitivity float32 // radians per pixel
}

// NewFlyCamera creates a fly camera at pos.
func NewFlyCamera(pos math.Vec3) *FlyCamera {
	return &FlyCamera{
		Pos:             pos,
		MaxPitch:        1.5,
		MoveSpeed:       4.0,
		LookSensitivity: 0.004,
	}
}

// Position returns the camera position.
func (c *FlyCamera) Position() math.Vec3 { return c.Pos }

// Forward returns the unit view direction.
func (c *FlyCamera) Forward() math.Vec3 {
	cp := math32.Cos(c.Pitch)
	return math.Vec3{
		X: -math32.Sin(c.Yaw) * cp,
		Y: math32.Sin(c.Pitch),
		Z: -math32.Cos(c.Yaw) * cp,
	}
}

// Right returns the unit right vector on the XZ plane.
func (c *FlyCamera) Right() math.Vec3 {
	return math.Vec3{X: math32.Cos(c.Yaw), Z: -math32.Sin(c.Yaw)}
}

// ViewMatrix returns the view matrix for this camera.
func (c *FlyCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Pos, c.Pos.Add(c.Forward()), math.Vec3{Y: 1})
}

// LookAt points the camera at target.
func (c *FlyCamera) LookAt(target math.Vec3) {
	d := target.Sub(c.Pos).Normalize()
	if d == (math.Vec3{}) {
		return
	}
	c.Pitch = math.Clamp(math32.Asin(d.Y), -c.MaxPitch, c.MaxPitch)
	c.Yaw = math32.Atan2(-d.X, -d.Z)
}

// HandleLook rotates the camera by a mouse delta in pixels.
func (c *FlyCamera) HandleLook(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.LookSensitivity
	c.Pitch -= deltaY * c.LookSensitivity
	c.Pitch = math.Clamp(c.Pitch, -c.MaxPitch, c.MaxPitch)
}

// HandleMovement moves the camera along its forward/right axes and world up.
func (c *FlyCamera) HandleMovement(forward, right, up, dt float32) {
	step := c.MoveSpeed * dt
	move := c.Forward().Scale(forward).
		Add(c.Right().Scale(right)).
		Add(math.Vec3{Y: up})
	c.Pos = c.Pos.Add(move.Scale(step))
}
