// Package composite reconstructs sub-resolution smoke to the viewport and blends it over the
// opaque scene.
package composite

import (
	"fmt"

	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/Faultbox/voxsmoke/internal/logger"
	"github.com/Faultbox/voxsmoke/internal/smoke/raymarch"
	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

// Compositor owns the smoke targets for every resolution level. Level 0 is what the
// raymarcher writes into; the last level is always full resolution.
type Compositor struct {
	cfg        Config
	dispatcher *compute.Dispatcher
	log        *zap.Logger

	width, height int
	levels        []raymarch.Targets
	depth         *buffer.Image // scene depth at level 0 resolution, nil at full resolution
	released      bool
}

// New creates a compositor for a width x height viewport.
func New(d *compute.Dispatcher, cfg Config, width, height int) *Compositor {
	c := &Compositor{
		cfg:        cfg,
		dispatcher: d,
		log:        logger.Named("composite"),
	}
	c.allocate(width, height)
	return c
}

// levelSizes lists the resolution of each level, smallest first. Each level is one octave
// below the next so every upscale pass doubles the resolution at most.
func levelSizes(res Resolution, width, height int) [][2]int {
	sizes := [][2]int{{width, height}}
	for div := 1; div < int(res); div *= 2 {
		w, h := sizes[0][0], sizes[0][1]
		sizes = append([][2]int{{halve(w), halve(h)}}, sizes...)
	}
	return sizes
}

func halve(n int) int {
	n = (n + 1) / 2
	if n < 1 {
		return 1
	}
	return n
}

func (c *Compositor) allocate(width, height int) {
	c.width, c.height = max(width, 1), max(height, 1)
	sizes := levelSizes(c.cfg.Resolution, c.width, c.height)
	c.levels = make([]raymarch.Targets, len(sizes))
	for i, s := range sizes {
		c.levels[i] = raymarch.NewTargets(fmt.Sprintf("smoke-%dx%d", s[0], s[1]), s[0], s[1])
	}
	if len(sizes) > 1 {
		c.depth = buffer.NewImage("scene-depth-low", sizes[0][0], sizes[0][1], buffer.ChannelsScalar)
	} else {
		c.depth = nil
	}
	c.released = false
	c.log.Debug("targets allocated",
		zap.Stringer("resolution", c.cfg.Resolution),
		zap.Int("levels", len(sizes)),
		zap.Int("width", sizes[0][0]),
		zap.Int("height", sizes[0][1]))
}

func (c *Compositor) free() {
	for _, l := range c.levels {
		l.Release()
	}
	if c.depth != nil {
		c.depth.Release()
	}
}

// Config returns the active settings.
func (c *Compositor) Config() Config { return c.cfg }

// SetConfig applies new settings. A resolution change reallocates the targets.
func (c *Compositor) SetConfig(cfg Config) {
	old := c.cfg.Resolution
	c.cfg = cfg
	if cfg.Resolution != old && !c.released {
		c.free()
		c.allocate(c.width, c.height)
	}
}

// Size returns the viewport resolution.
func (c *Compositor) Size() (width, height int) { return c.width, c.height }

// Resize reallocates every level for a new viewport. Must be called before the next render
// after the viewport changes.
func (c *Compositor) Resize(width, height int) {
	if width == c.width && height == c.height && !c.released {
		return
	}
	c.free()
	c.allocate(width, height)
}

// Targets returns the level the raymarcher renders into.
func (c *Compositor) Targets() raymarch.Targets { return c.levels[0] }

// Output returns the full resolution smoke after Upscale.
func (c *Compositor) Output() raymarch.Targets { return c.levels[len(c.levels)-1] }

// Levels returns every level, smallest first. Intermediates keep their contents until the
// next Upscale.
func (c *Compositor) Levels() []raymarch.Targets { return c.levels }

// SceneDepth returns the scene depth at render resolution, downsampling sceneDepth if needed.
func (c *Compositor) SceneDepth(sceneDepth *buffer.Image) *buffer.Image {
	if sceneDepth == nil || c.depth == nil {
		return sceneDepth
	}
	downsampleDepth(c.dispatcher, sceneDepth, c.depth)
	return c.depth
}

// Upscale reconstructs level 0 to full resolution one octave at a time.
func (c *Compositor) Upscale() {
	for i := 1; i < len(c.levels); i++ {
		upscale(c.dispatcher, c.levels[i-1], c.levels[i], c.cfg.Filter, c.cfg.Sharpness)
	}
}

// Blend writes the final image into out (RGBA, viewport size). sceneDepth may be nil.
func (c *Compositor) Blend(sceneColor, sceneDepth, out *buffer.Image) {
	smoke := c.Output()
	view := c.cfg.DebugView
	depthRange := c.cfg.DepthRange
	if depthRange <= 0 {
		depthRange = 1
	}

	c.dispatcher.Dispatch2D(c.width, c.height, func(x, y int) {
		px := out.Pixel(x, y)
		albedo := smoke.Albedo.Pixel(x, y)
		mask := smoke.Mask.At(x, y, 0)
		smokeDepth := smoke.Depth.At(x, y, 0)

		sceneZ := math32.Inf(1)
		if sceneDepth != nil {
			sceneZ = sceneDepth.AtClamped(x, y, 0)
		}
		visible := !c.cfg.DepthAware || smokeDepth <= sceneZ

		switch view {
		case ViewAlbedo:
			gray(px, 0)
			copy(px[:3], albedo[:3])
			px[3] = 1
		case ViewMask:
			gray(px, mask)
		case ViewSmokeDepth:
			gray(px, depthShade(smokeDepth, depthRange))
		case ViewSceneDepth:
			gray(px, depthShade(sceneZ, depthRange))
		default:
			scene := sceneColor.Pixel(x, y)
			if !visible {
				copy(px[:3], scene[:3])
				px[3] = 1
				return
			}
			for ch := 0; ch < 3; ch++ {
				px[ch] = scene[ch]*(1-mask) + albedo[ch]
			}
			px[3] = 1
		}
	})
}

// Composite upscales and blends in one call.
func (c *Compositor) Composite(sceneColor, sceneDepth, out *buffer.Image) {
	c.Upscale()
	c.Blend(sceneColor, sceneDepth, out)
}

// Release frees every level. Safe to call twice; Resize reallocates.
func (c *Compositor) Release() error {
	if c.released {
		return nil
	}
	c.free()
	c.released = true

	resources := []buffer.Resource{}
	for _, l := range c.levels {
		resources = append(resources, l.Albedo, l.Mask, l.Depth)
	}
	if c.depth != nil {
		resources = append(resources, c.depth)
	}
	return buffer.CheckReleased(resources...)
}

// Released reports whether Release was called since the last allocation.
func (c *Compositor) Released() bool { return c.released }

func gray(px []float32, v float32) {
	px[0], px[1], px[2], px[3] = v, v, v, 1
}

// depthShade maps a view depth to [0, 1]; empty depth reads as white.
func depthShade(z, depthRange float32) float32 {
	if math32.IsInf(z, 1) || z > depthRange {
		return 1
	}
	if z < 0 {
		return 0
	}
	return z / depthRange
}
