package main

import (
	"fmt"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/voxsmoke/internal/config"
	"github.com/Faultbox/voxsmoke/internal/engine/audio"
	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/camera"
	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/Faultbox/voxsmoke/internal/engine/debug"
	"github.com/Faultbox/voxsmoke/internal/engine/input"
	"github.com/Faultbox/voxsmoke/internal/engine/present"
	"github.com/Faultbox/voxsmoke/internal/engine/scene"
	"github.com/Faultbox/voxsmoke/internal/engine/window"
	"github.com/Faultbox/voxsmoke/internal/logger"
	"github.com/Faultbox/voxsmoke/internal/smoke"
	"github.com/Faultbox/voxsmoke/internal/smoke/composite"
	"github.com/Faultbox/voxsmoke/pkg/math"
)

var debugKeys = map[sdl.Scancode]composite.DebugView{
	sdl.SCANCODE_F1: composite.ViewNone,
	sdl.SCANCODE_F2: composite.ViewAlbedo,
	sdl.SCANCODE_F3: composite.ViewMask,
	sdl.SCANCODE_F4: composite.ViewSmokeDepth,
	sdl.SCANCODE_F5: composite.ViewSceneDepth,
}

var resolutionKeys = map[sdl.Scancode]composite.Resolution{
	sdl.SCANCODE_1: composite.Full,
	sdl.SCANCODE_2: composite.Half,
	sdl.SCANCODE_3: composite.Quarter,
}

// playground owns the window, the effect and everything drawn around it.
type playground struct {
	cfg *config.Config
	log *zap.Logger

	win       *window.Window
	input     *input.Input
	presenter *present.Presenter
	audio     *audio.Manager
	capture   *debug.Capture

	scene      *scene.Scene
	effect     *smoke.Effect
	dispatcher *compute.Dispatcher
	opaque     scene.OpaqueTargets
	out        *buffer.Image

	cam    *camera.FlyCamera
	lens   camera.Lens
	width  int
	height int

	mouseLook bool
	lastTicks uint64
	fpsFrames int
	fpsTimer  float32
}

func newPlayground(cfg *config.Config) (*playground, error) {
	p := &playground{
		cfg:    cfg,
		log:    logger.Named("playground"),
		lens:   camera.DefaultLens(),
		width:  cfg.Viewport.Width,
		height: cfg.Viewport.Height,
	}

	var err error
	p.scene, err = cfg.LoadScene()
	if err != nil {
		return nil, fmt.Errorf("loading scene: %w", err)
	}

	p.win, err = window.New(window.Config{
		Title:      "VoxSmoke",
		Width:      cfg.Viewport.Width,
		Height:     cfg.Viewport.Height,
		Fullscreen: cfg.Viewport.Fullscreen,
		VSync:      cfg.Viewport.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("creating window: %w", err)
	}

	p.presenter, err = present.New()
	if err != nil {
		p.win.Close()
		return nil, err
	}

	effCfg, err := cfg.EffectConfig()
	if err != nil {
		p.Close()
		return nil, err
	}
	effCfg.Render = effCfg.Render.WithSun(p.scene.Sun)
	p.effect, err = smoke.New(effCfg)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("creating effect: %w", err)
	}

	p.input = input.New()
	p.dispatcher = compute.NewDispatcher(cfg.Viewport.Workers)
	p.opaque = scene.NewOpaqueTargets(p.width, p.height)
	p.out = buffer.NewImage("frame", p.width, p.height, buffer.ChannelsRGBA)
	p.capture = debug.NewCapture(cfg.Output.Dir, "screenshot")

	p.cam = camera.NewFlyCamera(p.scene.CameraPosition)
	p.cam.LookAt(p.scene.CameraTarget)

	p.audio = p.initAudio()
	return p, nil
}

// initAudio starts the speaker. Audio failures only disable sound.
func (p *playground) initAudio() *audio.Manager {
	a := audio.New()
	a.SetMasterVolume(float64(p.cfg.Audio.MasterVolume))
	a.SetSFXVolume(float64(p.cfg.Audio.SFXVolume))
	a.SetMuted(p.cfg.Audio.Muted)

	for sound, path := range map[audio.Sound]string{
		audio.SoundDetonate: p.cfg.Audio.DetonateWAV,
		audio.SoundFire:     p.cfg.Audio.FireWAV,
	} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err == nil {
			err = a.LoadWAV(sound, data)
		}
		if err != nil {
			p.log.Warn("sound not loaded, using generated burst",
				zap.Stringer("sound", sound), zap.String("path", path), zap.Error(err))
		}
	}

	if err := a.Init(); err != nil {
		p.log.Warn("audio disabled", zap.Error(err))
	}
	return a
}

// Run initialises the effect and runs the frame loop until the window closes.
func (p *playground) Run() error {
	if err := p.effect.Initialize(p.scene.Meshes); err != nil {
		return err
	}
	p.detonate(p.cfg.TriggerPoint(p.scene))

	p.lastTicks = window.Ticks()
	for {
		frameStart := time.Now()
		if p.input.Update() {
			return nil
		}

		now := window.Ticks()
		dt := float32(now-p.lastTicks) / 1000
		p.lastTicks = now
		if dt > 0.1 {
			dt = 0.1
		}

		p.handleInput(dt)
		p.effect.Tick(dt)
		p.render()
		p.updateTitle(dt)
		p.limitFPS(frameStart)
	}
}

func (p *playground) handleInput(dt float32) {
	for _, e := range p.input.Events() {
		switch e.Type {
		case input.EventKeyDown:
			p.handleKey(e.Key)

		case input.EventMouseMove:
			if p.mouseLook {
				p.cam.HandleLook(float32(e.DeltaX), float32(e.DeltaY))
			}

		case input.EventMouseDown:
			switch e.Button {
			case input.ButtonLeft:
				p.detonateAtCursor(e.MouseX, e.MouseY)
			case input.ButtonRight:
				p.fire()
			}

		case input.EventMouseWheel:
			p.cam.MoveSpeed *= 1 + 0.1*float32(e.DeltaY)
			if p.cam.MoveSpeed < 0.5 {
				p.cam.MoveSpeed = 0.5
			}
		}
	}

	p.cam.HandleMovement(
		p.input.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S),
		p.input.Axis(sdl.SCANCODE_D, sdl.SCANCODE_A),
		p.input.Axis(sdl.SCANCODE_E, sdl.SCANCODE_Q),
		dt,
	)
}

func (p *playground) handleKey(key sdl.Scancode) {
	if view, ok := debugKeys[key]; ok {
		cfg := p.effect.Compositor().Config()
		cfg.DebugView = view
		p.effect.SetCompositeConfig(cfg)
		p.log.Info("debug view", zap.Stringer("view", view))
		return
	}
	if res, ok := resolutionKeys[key]; ok {
		cfg := p.effect.Compositor().Config()
		cfg.Resolution = res
		p.effect.SetCompositeConfig(cfg)
		p.log.Info("smoke resolution", zap.Stringer("resolution", res))
		return
	}

	switch key {
	case sdl.SCANCODE_ESCAPE:
		if p.mouseLook {
			p.setMouseLook(false)
		}
	case sdl.SCANCODE_TAB:
		p.setMouseLook(!p.mouseLook)
	case sdl.SCANCODE_SPACE:
		p.fire()
	case sdl.SCANCODE_N:
		params := p.effect.Noise().Params()
		params.Seed++
		p.effect.RequestNoise(params)
		p.log.Info("noise regeneration requested", zap.Uint32("seed", params.Seed))
	case sdl.SCANCODE_F11:
		p.win.SetFullscreen(!p.win.Fullscreen())
	case sdl.SCANCODE_F12:
		p.screenshot()
	}
}

func (p *playground) setMouseLook(on bool) {
	p.mouseLook = on
	p.win.SetMouseCaptured(on)
}

// detonateAtCursor casts a ray through the cursor and detonates at the first scene hit.
func (p *playground) detonateAtCursor(mx, my int) {
	winW, winH := p.win.Size()
	if winW == 0 || winH == 0 {
		return
	}
	px := (float32(mx) + 0.5) * float32(p.width) / float32(winW)
	py := (float32(my) + 0.5) * float32(p.height) / float32(winH)
	if p.mouseLook {
		px, py = float32(p.width)/2, float32(p.height)/2
	}

	ray := p.view().Ray(px, py)
	hit, ok := p.scene.Raycast(ray, p.cfg.Scene.RaycastDistance)
	if !ok {
		p.log.Debug("trigger ray missed the scene")
		return
	}
	p.detonate(hit.Point)
}

func (p *playground) detonate(point math.Vec3) {
	p.effect.Trigger(point)
	p.play(audio.SoundDetonate)
}

func (p *playground) fire() {
	if p.effect.Fire(p.cam.Position(), p.cam.Forward()) {
		p.play(audio.SoundFire)
	}
}

func (p *playground) play(s audio.Sound) {
	if !p.audio.IsInitialized() {
		return
	}
	if err := p.audio.Play(s); err != nil {
		p.log.Debug("sound failed", zap.Stringer("sound", s), zap.Error(err))
	}
}

func (p *playground) view() camera.View {
	return camera.NewView(p.cam, p.lens, p.width, p.height)
}

func (p *playground) render() {
	view := p.view()
	p.scene.RenderOpaque(p.dispatcher, view, p.opaque)
	p.effect.Render(smoke.Frame{
		View:       view,
		SceneColor: p.opaque.Color,
		SceneDepth: p.opaque.Depth,
		Out:        p.out,
	})

	if err := p.presenter.Upload(p.out); err != nil {
		p.log.Error("upload failed", zap.Error(err))
		return
	}
	w, h := p.win.DrawableSize()
	p.presenter.Draw(w, h)
	p.win.SwapBuffers()
}

func (p *playground) screenshot() {
	w, h := p.win.DrawableSize()
	pixels := p.presenter.ReadPixels(w, h)
	path, err := p.capture.CaptureFromPixels(pixels, w, h)
	if err != nil {
		p.log.Error("screenshot failed", zap.Error(err))
		return
	}
	p.log.Info("screenshot saved", zap.String("path", path))
}

func (p *playground) updateTitle(dt float32) {
	p.fpsFrames++
	p.fpsTimer += dt
	if p.fpsTimer < 1 {
		return
	}
	grid := p.effect.Grid()
	p.win.SetTitle(fmt.Sprintf("VoxSmoke - %.0f FPS - %s %d voxels - %d decals",
		float32(p.fpsFrames)/p.fpsTimer, grid.State(), grid.FilledCount(), p.effect.Decals().Count()))
	p.fpsFrames = 0
	p.fpsTimer = 0
}

func (p *playground) limitFPS(frameStart time.Time) {
	if p.cfg.Viewport.FPSLimit <= 0 {
		return
	}
	budget := time.Second / time.Duration(p.cfg.Viewport.FPSLimit)
	if left := budget - time.Since(frameStart); left > 0 {
		time.Sleep(left)
	}
}

// Close releases everything in reverse creation order.
func (p *playground) Close() {
	if p.audio != nil {
		p.audio.Close()
	}
	if p.effect != nil {
		if err := p.effect.Shutdown(); err != nil {
			p.log.Warn("effect shutdown", zap.Error(err))
		}
		p.effect = nil
	}
	if p.dispatcher != nil {
		p.dispatcher.Close()
		p.dispatcher = nil
	}
	if p.opaque.Color != nil {
		p.opaque.Release()
	}
	if p.out != nil {
		p.out.Release()
	}
	if p.presenter != nil {
		p.presenter.Close()
		p.presenter = nil
	}
	if p.win != nil {
		p.win.Close()
		p.win = nil
	}
}
