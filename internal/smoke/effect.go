// Package smoke wires the smoke pipeline into one owning object.
//
// A frame is two calls from the caller's loop: Tick advances the simulation (noise when
// its parameters changed, then grid growth, then decal ageing) and Render draws it
// (raymarch at the compositor's resolution, then upscale and blend). Each stage returns
// only after every invocation of its dispatch has finished, so a stage always reads the
// complete output of the stages before it.
package smoke

import (
	"errors"
	"fmt"
	"time"

	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/camera"
	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/Faultbox/voxsmoke/internal/engine/scene"
	"github.com/Faultbox/voxsmoke/internal/logger"
	"github.com/Faultbox/voxsmoke/internal/smoke/composite"
	"github.com/Faultbox/voxsmoke/internal/smoke/decal"
	"github.com/Faultbox/voxsmoke/internal/smoke/noise"
	"github.com/Faultbox/voxsmoke/internal/smoke/raymarch"
	"github.com/Faultbox/voxsmoke/internal/smoke/voxel"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrShutdown is returned by operations on an effect that was shut down.
var ErrShutdown = errors.New("smoke effect is shut down")

// Stage identifies one step of the frame pipeline.
type Stage int

// Pipeline stages in execution order.
const (
	StageNoise Stage = iota
	StageGrid
	StageDecals
	StageRaymarch
	StageComposite
)

func (s Stage) String() string {
	switch s {
	case StageNoise:
		return "noise"
	case StageGrid:
		return "grid"
	case StageDecals:
		return "decals"
	case StageRaymarch:
		return "raymarch"
	case StageComposite:
		return "composite"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Observer is told about every stage after it completes.
type Observer func(stage Stage, took time.Duration)

// Config gathers the settings of every component.
type Config struct {
	Workers   int // 0 uses every CPU
	Width     int
	Height    int
	Voxel     voxel.Config
	Noise     noise.Params
	Render    raymarch.Params
	Composite composite.Config
	Decals    decal.Config
}

// DefaultConfig returns a 1280x720 effect with component defaults.
func DefaultConfig() Config {
	return Config{
		Width:     1280,
		Height:    720,
		Voxel:     voxel.DefaultConfig(),
		Noise:     noise.DefaultParams(),
		Render:    raymarch.DefaultParams(),
		Composite: composite.DefaultConfig(),
		Decals:    decal.DefaultConfig(),
	}
}

// Frame carries the per-frame inputs of Render. View is the full resolution view and
// must match the size last passed to New or Resize, as must every image.
type Frame struct {
	View       camera.View
	SceneColor *buffer.Image // RGBA
	SceneDepth *buffer.Image // linear view depth, may be nil
	Out        *buffer.Image // RGBA
}

// Effect owns every smoke resource.
type Effect struct {
	log        *zap.Logger
	dispatcher *compute.Dispatcher
	noise      *noise.Field
	grid       *voxel.Grid
	decals     *decal.Pool
	renderer   *raymarch.Renderer
	compositor *composite.Compositor

	params   raymarch.Params
	observer Observer

	time        float32
	initialized bool
	shutdown    bool
}

// New creates an effect. Buffers are allocated lazily; Initialize bakes the obstacles.
func New(cfg Config) (*Effect, error) {
	if err := cfg.Render.Validate(); err != nil {
		return nil, fmt.Errorf("render params: %w", err)
	}

	d := compute.NewDispatcher(cfg.Workers)
	grid, err := voxel.New(d, cfg.Voxel)
	if err != nil {
		d.Close()
		return nil, err
	}

	e := &Effect{
		log:        logger.Named("smoke"),
		dispatcher: d,
		noise:      noise.NewField(d, cfg.Noise),
		grid:       grid,
		decals:     decal.NewPool(cfg.Decals),
		renderer:   raymarch.NewRenderer(d),
		compositor: composite.New(d, cfg.Composite, cfg.Width, cfg.Height),
		params:     cfg.Render,
	}
	e.log.Info("effect created",
		zap.Int("workers", d.Workers()),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Stringer("resolution", cfg.Composite.Resolution))
	return e, nil
}

// Initialize bakes the static obstacle mask from the scene meshes.
func (e *Effect) Initialize(meshes []*scene.Mesh) error {
	if e.shutdown {
		return ErrShutdown
	}
	start := time.Now()
	e.grid.Bake(meshes)
	e.initialized = true
	e.log.Info("effect initialized",
		zap.Int("meshes", len(meshes)),
		zap.Int("static_voxels", e.grid.StaticCount()),
		logger.Took(start))
	return nil
}

// Initialized reports whether Initialize has run.
func (e *Effect) Initialized() bool { return e.initialized }

// SetObserver installs a stage observer; nil removes it.
func (e *Effect) SetObserver(o Observer) { e.observer = o }

func (e *Effect) observe(stage Stage, start time.Time) {
	if e.observer != nil {
		e.observer(stage, time.Since(start))
	}
}

// Trigger starts a new growth episode at a world-space impact point.
func (e *Effect) Trigger(point math.Vec3) {
	if e.shutdown {
		return
	}
	e.grid.Trigger(point)
}

// Fire spawns a decal tunnel from origin along forward. Returns false when the pool is
// full; the shot is dropped.
func (e *Effect) Fire(origin, forward math.Vec3) bool {
	if e.shutdown {
		return false
	}
	return e.decals.Trigger(origin, forward)
}

// RequestNoise schedules a noise regeneration for the next Tick.
func (e *Effect) RequestNoise(params noise.Params) {
	if e.shutdown {
		return
	}
	e.noise.Request(params)
}

// SetRenderParams replaces the raymarch parameters.
func (e *Effect) SetRenderParams(p raymarch.Params) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("render params: %w", err)
	}
	e.params = p
	return nil
}

// RenderParams returns the active raymarch parameters.
func (e *Effect) RenderParams() raymarch.Params { return e.params }

// SetCompositeConfig replaces the compositor settings.
func (e *Effect) SetCompositeConfig(cfg composite.Config) {
	if e.shutdown {
		return
	}
	e.compositor.SetConfig(cfg)
}

// Tick advances the simulation by dt seconds.
func (e *Effect) Tick(dt float32) {
	if e.shutdown {
		return
	}
	e.time += dt

	start := time.Now()
	if e.noise.Update() {
		e.observe(StageNoise, start)
	}

	start = time.Now()
	e.grid.Step(dt)
	e.observe(StageGrid, start)

	start = time.Now()
	e.decals.Advance(dt)
	e.observe(StageDecals, start)
}

// Render draws the smoke over frame.SceneColor into frame.Out.
func (e *Effect) Render(frame Frame) {
	if e.shutdown {
		return
	}
	// The raymarch samples noise from many workers; make sure the volume exists first.
	if e.noise.Dirty() {
		start := time.Now()
		e.noise.Update()
		e.observe(StageNoise, start)
	}

	start := time.Now()
	low := e.compositor.Targets()
	w, h := low.Size()
	src := raymarch.Sources{
		Grid:       e.grid,
		Noise:      e.noise,
		Decals:     e.decals.Active(),
		SceneDepth: e.compositor.SceneDepth(frame.SceneDepth),
		Time:       e.time,
	}
	e.renderer.Render(frame.View.WithViewport(w, h), src, e.params, low)
	e.observe(StageRaymarch, start)

	start = time.Now()
	e.compositor.Composite(frame.SceneColor, frame.SceneDepth, frame.Out)
	e.observe(StageComposite, start)
}

// Resize reallocates the viewport sized targets.
func (e *Effect) Resize(width, height int) {
	if e.shutdown {
		return
	}
	e.compositor.Resize(width, height)
	e.log.Debug("resized", zap.Int("width", width), zap.Int("height", height))
}

// Grid exposes the voxel grid for debug views.
func (e *Effect) Grid() *voxel.Grid { return e.grid }

// Noise exposes the noise field for debug views.
func (e *Effect) Noise() *noise.Field { return e.noise }

// Decals exposes the decal pool.
func (e *Effect) Decals() *decal.Pool { return e.decals }

// DecalBuffer returns the packed active decals for reuse by other effects.
func (e *Effect) DecalBuffer() []decal.GPUDecal { return e.decals.Active() }

// Smoke returns the full resolution albedo, mask and depth of the last Render.
func (e *Effect) Smoke() raymarch.Targets { return e.compositor.Output() }

// Compositor exposes the compositor.
func (e *Effect) Compositor() *composite.Compositor { return e.compositor }

// Time returns the accumulated simulation time in seconds.
func (e *Effect) Time() float32 { return e.time }

// Shutdown releases every resource and stops the workers. Safe to call twice.
func (e *Effect) Shutdown() error {
	if e.shutdown {
		return nil
	}
	e.shutdown = true

	e.grid.Release()
	e.noise.Release()
	e.decals.Reset()

	err := e.compositor.Release()
	if v := e.noise.Volume(); v != nil {
		err = multierr.Append(err, buffer.CheckReleased(v))
	}
	if e.grid.State() != voxel.Released {
		err = multierr.Append(err, fmt.Errorf("voxel grid still %s after release", e.grid.State()))
	}
	e.dispatcher.Close()

	if err != nil {
		e.log.Error("shutdown", zap.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}
	e.log.Info("effect shut down")
	return nil
}
