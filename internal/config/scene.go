package config

import (
	"github.com/Faultbox/voxsmoke/internal/engine/scene"
	"github.com/Faultbox/voxsmoke/pkg/math"
)

// LoadScene builds the obstacle scene named by Scene.File, or the built-in courtyard.
func (c *Config) LoadScene() (*scene.Scene, error) {
	f := scene.DefaultFile()
	if c.Scene.File != "" {
		var err error
		if f, err = scene.LoadFile(c.Scene.File); err != nil {
			return nil, err
		}
	}
	return f.Build()
}

// TriggerPoint returns where the grenade detonates: the config override, then the
// scene's own trigger, then the floor below the grid center.
func (c *Config) TriggerPoint(s *scene.Scene) math.Vec3 {
	if c.Scene.Trigger != nil {
		return math.FromArray(*c.Scene.Trigger)
	}
	if s != nil && s.Trigger != nil {
		return *s.Trigger
	}
	center := math.FromArray(c.Voxel.Center)
	return math.Vec3{X: center.X, Y: 0.25, Z: center.Z}
}
