package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/voxsmoke/internal/smoke"
	"github.com/Faultbox/voxsmoke/internal/smoke/composite"
	"github.com/Faultbox/voxsmoke/internal/smoke/decal"
	"github.com/Faultbox/voxsmoke/internal/smoke/noise"
	"github.com/Faultbox/voxsmoke/internal/smoke/raymarch"
	"github.com/Faultbox/voxsmoke/internal/smoke/voxel"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"go.uber.org/multierr"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var err error
	add := func(e error) {
		if e != nil {
			err = multierr.Append(err, e)
		}
	}

	if c.Viewport.Width < 1 || c.Viewport.Height < 1 {
		add(fmt.Errorf("viewport: size must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height))
	}
	add(prefix("voxel", c.VoxelConfig().Validate()))

	np, e := c.NoiseParams()
	add(e)
	if e == nil && (np.Resolution < 1 || np.Octaves < 1) {
		add(fmt.Errorf("noise: resolution and octaves must be positive"))
	}

	rp, e := c.RenderParams()
	add(e)
	if e == nil {
		add(prefix("render", rp.Validate()))
	}

	cc, e := c.CompositeConfig()
	add(e)
	if e == nil && (cc.Sharpness < 0 || cc.Sharpness > 1) {
		add(fmt.Errorf("composite: sharpness must be within [0, 1], got %v", cc.Sharpness))
	}

	if c.Decals.Capacity < 1 {
		add(fmt.Errorf("decals: capacity must be at least 1, got %d", c.Decals.Capacity))
	}
	if c.Output.Frames < 0 || c.Output.FrameStep <= 0 {
		add(fmt.Errorf("output: frames must not be negative and frame_step must be positive"))
	}
	if c.Output.EveryN < 1 {
		add(fmt.Errorf("output: every_n must be at least 1, got %d", c.Output.EveryN))
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func prefix(section string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", section, err)
}

// VoxelConfig converts the voxel section.
func (c *Config) VoxelConfig() voxel.Config {
	v := c.Voxel
	return voxel.Config{
		BoundsExtent:     math.FromArray(v.BoundsExtent),
		Center:           math.FromArray(v.Center),
		VoxelSize:        v.VoxelSize,
		IntersectionBias: v.IntersectionBias,
		MaxRadius:        math.FromArray(v.MaxRadius),
		GrowthSpeed:      v.GrowthSpeed,
		MaxFillSteps:     v.MaxFillSteps,
		Connectivity:     voxel.Connectivity(v.Connectivity),
		Ease:             v.Ease,
	}
}

// NoiseParams converts the noise section.
func (c *Config) NoiseParams() (noise.Params, error) {
	n := c.Noise
	mode, err := noise.ParseAbsMode(n.AbsMode)
	if err != nil {
		return noise.Params{}, prefix("noise", err)
	}
	return noise.Params{
		Resolution:  n.Resolution,
		Octaves:     n.Octaves,
		CellSize:    n.CellSize,
		Frequency:   n.Frequency,
		Persistence: n.Persistence,
		Warp:        n.Warp,
		Add:         n.Add,
		Invert:      n.Invert,
		Seed:        n.Seed,
		AbsMode:     mode,
		Clamp:       n.Clamp,
	}, nil
}

// RenderParams converts the render section. Light direction and colours are left at the
// raymarch defaults; callers take them from the scene.
func (c *Config) RenderParams() (raymarch.Params, error) {
	r := c.Render
	phase, err := raymarch.ParsePhase(r.Phase)
	if err != nil {
		return raymarch.Params{}, prefix("render", err)
	}
	shape, err := raymarch.ParseShape(r.Shape.Kind)
	if err != nil {
		return raymarch.Params{}, prefix("render", err)
	}

	p := raymarch.DefaultParams()
	p.StepCount = r.StepCount
	p.StepSize = r.StepSize
	p.LightStepCount = r.LightStepCount
	p.LightStepSize = r.LightStepSize
	p.VolumeDensity = r.VolumeDensity
	p.ShadowDensity = r.ShadowDensity
	p.DensityFalloff = r.DensityFalloff
	p.Absorption = r.Absorption
	p.Scattering = r.Scattering
	p.Extinction = math.FromArray(r.Extinction)
	p.SmokeColor = math.FromArray(r.SmokeColor)
	p.Phase = phase
	p.G = r.Anisotropy
	p.NoiseScale = r.NoiseScale
	p.NoiseStrength = r.NoiseStrength
	p.NoiseWarp = r.NoiseWarp
	p.NoiseScroll = math.FromArray(r.NoiseScroll)
	p.AlphaThreshold = r.AlphaThreshold
	p.Shape = raymarch.Shape{
		Kind:     shape,
		Offset:   math.FromArray(r.Shape.Offset),
		Size:     math.FromArray(r.Shape.Size),
		Softness: r.Shape.Softness,
	}
	p.Slice = raymarch.Slice{
		Enabled:  r.Slice.Enabled,
		Axis:     r.Slice.Axis,
		Position: r.Slice.Position,
	}
	return p, nil
}

// CompositeConfig converts the composite section.
func (c *Config) CompositeConfig() (composite.Config, error) {
	s := c.Composite
	res, err := composite.ParseResolution(s.Resolution)
	if err != nil {
		return composite.Config{}, prefix("composite", err)
	}
	filter, err := composite.ParseFilter(s.Filter)
	if err != nil {
		return composite.Config{}, prefix("composite", err)
	}
	view, err := composite.ParseDebugView(s.DebugView)
	if err != nil {
		return composite.Config{}, prefix("composite", err)
	}
	return composite.Config{
		Resolution: res,
		Filter:     filter,
		Sharpness:  s.Sharpness,
		DepthAware: s.DepthAware,
		DebugView:  view,
		DepthRange: s.DepthRange,
	}, nil
}

// DecalConfig converts the decals section.
func (c *Config) DecalConfig() decal.Config {
	d := c.Decals
	return decal.Config{
		Capacity: d.Capacity,
		Speed:    d.Speed,
		Jitter:   d.Jitter,
		MaxRadii: d.MaxRadii,
		Depth:    d.Depth,
		Seed:     d.Seed,
	}
}

// EffectConfig assembles the full smoke effect configuration.
func (c *Config) EffectConfig() (smoke.Config, error) {
	if err := c.Validate(); err != nil {
		return smoke.Config{}, err
	}
	np, _ := c.NoiseParams()
	rp, _ := c.RenderParams()
	cc, _ := c.CompositeConfig()
	return smoke.Config{
		Workers:   c.Viewport.Workers,
		Width:     c.Viewport.Width,
		Height:    c.Viewport.Height,
		Voxel:     c.VoxelConfig(),
		Noise:     np,
		Render:    rp,
		Composite: cc,
		Decals:    c.DecalConfig(),
	}, nil
}
