package voxel

import (
	"fmt"

	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
)

// Connectivity is the neighbourhood used by one flood step.
type Connectivity int

const (
	// Faces propagates to the 6 face neighbours.
	Faces Connectivity = 6
	// Full propagates to all 26 neighbours.
	Full Connectivity = 26
)

// Config describes the grid and its growth animation.
type Config struct {
	BoundsExtent     math.Vec3 // half size of the grid in world units
	Center           math.Vec3
	VoxelSize        float32
	IntersectionBias float32 // scales the voxel box used by the bake, 0..2
	MaxRadius        math.Vec3
	GrowthSpeed      float32 // progress per second
	MaxFillSteps     int     // flood iterations per Step
	Connectivity     Connectivity
	Ease             string
}

// DefaultConfig returns a 6×6×6 unit volume resting on the ground at the origin.
func DefaultConfig() Config {
	extent := math.Vec3{X: 3, Y: 3, Z: 3}
	return Config{
		BoundsExtent:     extent,
		Center:           math.Vec3{Y: extent.Y},
		VoxelSize:        0.25,
		IntersectionBias: 1,
		MaxRadius:        math.Vec3{X: 2.5, Y: 2, Z: 2.5},
		GrowthSpeed:      1,
		MaxFillSteps:     8,
		Connectivity:     Full,
		Ease:             DefaultEase,
	}
}

// Resolution returns the voxel count per axis: ceil(2·extent/voxelSize), at least 1.
func (c Config) Resolution() (nx, ny, nz int) {
	axis := func(extent float32) int {
		n := int(math32.Ceil(2 * extent / c.VoxelSize))
		if n < 1 {
			return 1
		}
		return n
	}
	return axis(c.BoundsExtent.X), axis(c.BoundsExtent.Y), axis(c.BoundsExtent.Z)
}

// Validate reports configuration the grid cannot run with.
func (c Config) Validate() error {
	if c.VoxelSize <= 0 {
		return fmt.Errorf("voxel size must be positive, got %v", c.VoxelSize)
	}
	if c.BoundsExtent.X <= 0 || c.BoundsExtent.Y <= 0 || c.BoundsExtent.Z <= 0 {
		return fmt.Errorf("bounds extent must be positive, got %v", c.BoundsExtent)
	}
	if c.IntersectionBias < 0 || c.IntersectionBias > 2 {
		return fmt.Errorf("intersection bias must be within [0, 2], got %v", c.IntersectionBias)
	}
	if c.MaxFillSteps < 1 {
		return fmt.Errorf("max fill steps must be at least 1, got %d", c.MaxFillSteps)
	}
	if c.Connectivity != Faces && c.Connectivity != Full {
		return fmt.Errorf("connectivity must be 6 or 26, got %d", c.Connectivity)
	}
	if _, err := LookupEase(c.Ease); err != nil {
		return err
	}
	return nil
}
