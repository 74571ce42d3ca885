package raymarch

import (
	"fmt"
	"strings"

	"github.com/Faultbox/voxsmoke/internal/engine/lighting"
	"github.com/Faultbox/voxsmoke/pkg/math"
)

// ShapeKind selects the optional procedural volume unioned with the grid.
type ShapeKind int

// Procedural shapes.
const (
	ShapeNone ShapeKind = iota
	ShapeSphere
	ShapeBox
)

// ParseShape converts a config string to a ShapeKind.
func ParseShape(s string) (ShapeKind, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return ShapeNone, nil
	case "sphere":
		return ShapeSphere, nil
	case "box":
		return ShapeBox, nil
	}
	return ShapeNone, fmt.Errorf("unknown shape %q", s)
}

// Shape is anchored at the growth origin plus Offset. For a sphere Size.X is the radius,
// for a box Size is the half extent. Softness is the width of the density ramp at the surface.
type Shape struct {
	Kind     ShapeKind
	Offset   math.Vec3
	Size     math.Vec3
	Softness float32
}

// Slice paints raw density on an axis-aligned plane instead of marching.
// Position is normalised across the grid bounds on Axis (0 = x, 1 = y, 2 = z).
type Slice struct {
	Enabled  bool
	Axis     int
	Position float32
}

// Params are the per-frame render settings.
type Params struct {
	StepCount      int
	StepSize       float32
	LightStepCount int
	LightStepSize  float32

	VolumeDensity  float32
	ShadowDensity  float32
	DensityFalloff float32 // exponent on the ellipsoid falloff, 0 disables it
	Absorption     float32
	Scattering     float32
	Extinction     math.Vec3 // per-channel extinction tint

	SmokeColor   math.Vec3
	LightColor   math.Vec3
	LightDir     math.Vec3 // towards the light
	AmbientColor math.Vec3

	Phase Phase
	G     float32

	NoiseScale    float32 // world units to noise tiles
	NoiseStrength float32
	NoiseWarp     float32
	NoiseScroll   math.Vec3 // tiles per second

	AlphaThreshold float32 // stop once mean transmittance falls below this

	Shape Shape
	Slice Slice
}

// DefaultParams returns the look used by the demos.
func DefaultParams() Params {
	return Params{
		StepCount:      96,
		StepSize:       0.08,
		LightStepCount: 6,
		LightStepSize:  0.25,

		VolumeDensity:  6,
		ShadowDensity:  1.5,
		DensityFalloff: 0.6,
		Absorption:     1,
		Scattering:     1,
		Extinction:     math.Vec3{X: 1, Y: 0.97, Z: 0.92},

		SmokeColor:   math.Vec3{X: 0.82, Y: 0.83, Z: 0.85},
		LightColor:   math.Vec3{X: 3, Y: 2.85, Z: 2.55},
		LightDir:     math.Vec3{X: 0.45, Y: 0.77, Z: 0.45}.Normalize(),
		AmbientColor: math.Vec3{X: 0.25, Y: 0.28, Z: 0.32},

		Phase: HenyeyGreenstein,
		G:     0.3,

		NoiseScale:    0.12,
		NoiseStrength: 0.9,
		NoiseWarp:     0.5,
		NoiseScroll:   math.Vec3{X: 0.01, Y: 0.03, Z: 0.005},

		AlphaThreshold: 0.01,

		Shape: Shape{Kind: ShapeNone, Size: math.Splat(1), Softness: 0.25},
	}
}

// WithSun returns p lit by the scene sun.
func (p Params) WithSun(sun lighting.Sun) Params {
	p.LightDir = sun.Direction()
	p.LightColor = sun.Radiance()
	p.AmbientColor = sun.Ambient
	return p
}

// Validate reports settings the renderer cannot use.
func (p Params) Validate() error {
	if p.StepCount < 1 || p.StepSize <= 0 {
		return fmt.Errorf("step count and size must be positive, got %d / %v", p.StepCount, p.StepSize)
	}
	if p.LightStepCount < 0 || p.LightStepSize < 0 {
		return fmt.Errorf("light steps must not be negative")
	}
	if p.G <= -1 || p.G >= 1 {
		return fmt.Errorf("anisotropy g must be within (-1, 1), got %v", p.G)
	}
	if p.AlphaThreshold < 0 || p.AlphaThreshold > 1 {
		return fmt.Errorf("alpha threshold must be within [0, 1], got %v", p.AlphaThreshold)
	}
	if p.VolumeDensity < 0 || p.ShadowDensity < 0 || p.DensityFalloff < 0 {
		return fmt.Errorf("densities must not be negative")
	}
	if p.Slice.Axis < 0 || p.Slice.Axis > 2 {
		return fmt.Errorf("slice axis must be 0, 1 or 2, got %d", p.Slice.Axis)
	}
	return nil
}
