// Package lighting provides lighting utilities for 3D rendering.
package lighting

import (
	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
)

// SunDirection converts longitude/latitude angles to a light direction vector.
// Longitude is rotation around Y axis (0-360), latitude is elevation from horizon (0-90).
// Returns a normalized direction vector pointing towards the sun.
func SunDirection(longitude, latitude float32) math.Vec3 {
	lonRad := math.Radians(longitude)
	latRad := math.Radians(latitude)

	// Spherical to Cartesian conversion
	// Longitude is around Y axis, latitude is elevation from horizon
	return math.Vec3{
		X: math32.Cos(latRad) * math32.Sin(lonRad),
		Y: math32.Sin(latRad),
		Z: math32.Cos(latRad) * math32.Cos(lonRad),
	}
}

// Sun is a directional light.
type Sun struct {
	Longitude float32
	Latitude  float32
	Color     math.Vec3
	Intensity float32
	Ambient   math.Vec3
}

// DefaultSun returns a warm late-afternoon sun.
func DefaultSun() Sun {
	return Sun{
		Longitude: 45,
		Latitude:  50,
		Color:     math.Vec3{X: 1.0, Y: 0.95, Z: 0.85},
		Intensity: 3.0,
		Ambient:   math.Vec3{X: 0.25, Y: 0.28, Z: 0.32},
	}
}

// Direction returns the unit vector towards the sun.
func (s Sun) Direction() math.Vec3 {
	return SunDirection(s.Longitude, s.Latitude)
}

// Radiance returns the light color scaled by intensity.
func (s Sun) Radiance() math.Vec3 {
	return s.Color.Scale(s.Intensity)
}
