package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/voxsmoke/internal/config"
	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/camera"
	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/Faultbox/voxsmoke/internal/engine/debug"
	"github.com/Faultbox/voxsmoke/internal/engine/scene"
	"github.com/Faultbox/voxsmoke/internal/engine/ui"
	"github.com/Faultbox/voxsmoke/internal/logger"
	"github.com/Faultbox/voxsmoke/internal/smoke"
	"github.com/Faultbox/voxsmoke/pkg/math"
)

// Frames between slice texture refreshes.
const sliceInterval = 10

// App is the viewer state.
type App struct {
	cfg     *config.Config
	backend *ui.Backend
	log     *zap.Logger

	scene      *scene.Scene
	sceneName  string
	effect     *smoke.Effect
	effCfg     smoke.Config
	dispatcher *compute.Dispatcher
	opaque     scene.OpaqueTargets
	out        *buffer.Image
	capture    *debug.Capture

	cam    *camera.OrbitCamera
	lens   camera.Lens
	width  int
	height int

	// View state
	paused     bool
	timeScale  float32
	exposure   float32
	showBounds bool
	lastFrame  time.Time
	lastMouse  imgui.Vec2
	frame      int
	fps        float32

	// Stage timings of the last frame
	timings map[smoke.Stage]time.Duration

	// Slice views
	sliceAxis   int32
	sliceIndex  int32
	noiseSlice  int32
	frameTex    ui.Texture
	voxelTex    ui.Texture
	noiseTex    ui.Texture
	status      string
	pendingPath chan string
}

func newApp(cfg *config.Config, backend *ui.Backend) (*App, error) {
	app := &App{
		cfg:         cfg,
		backend:     backend,
		log:         logger.Named("viewer"),
		lens:        camera.DefaultLens(),
		width:       cfg.Viewport.Width,
		height:      cfg.Viewport.Height,
		timeScale:   1,
		exposure:    1,
		showBounds:  true,
		sliceAxis:   1,
		timings:     make(map[smoke.Stage]time.Duration),
		pendingPath: make(chan string, 1),
		capture:     debug.NewCapture(cfg.Output.Dir, "viewer"),
	}

	var err error
	app.effCfg, err = cfg.EffectConfig()
	if err != nil {
		return nil, err
	}

	app.dispatcher = compute.NewDispatcher(cfg.Viewport.Workers)
	app.opaque = scene.NewOpaqueTargets(app.width, app.height)
	app.out = buffer.NewImage("frame", app.width, app.height, buffer.ChannelsRGBA)
	app.cam = camera.NewOrbitCamera()

	sc, err := cfg.LoadScene()
	if err != nil {
		return nil, fmt.Errorf("loading scene: %w", err)
	}
	name := "built-in"
	if cfg.Scene.File != "" {
		name = filepath.Base(cfg.Scene.File)
	}
	if err := app.setScene(sc, name); err != nil {
		return nil, err
	}
	app.lastFrame = time.Now()
	return app, nil
}

// setScene replaces the scene and rebuilds the effect around it.
func (app *App) setScene(sc *scene.Scene, name string) error {
	app.scene = sc
	app.sceneName = name
	app.effCfg.Render = app.effCfg.Render.WithSun(sc.Sun)

	target := sc.CameraTarget
	app.cam.SetCenter(target.X, target.Y, target.Z)
	app.cam.Distance = sc.CameraPosition.Distance(target)

	if err := app.rebuild(); err != nil {
		return err
	}
	app.backend.SetWindowTitle(fmt.Sprintf("VoxSmoke Viewer - %s", name))
	return nil
}

// rebuild recreates the effect from effCfg. Grid settings only apply through a rebuild.
func (app *App) rebuild() error {
	if app.effect != nil {
		app.effCfg.Render = app.effect.RenderParams()
		app.effCfg.Noise = app.effect.Noise().Params()
		app.effCfg.Composite = app.effect.Compositor().Config()
		if err := app.effect.Shutdown(); err != nil {
			app.log.Warn("effect shutdown", zap.Error(err))
		}
	}

	eff, err := smoke.New(app.effCfg)
	if err != nil {
		return fmt.Errorf("creating effect: %w", err)
	}
	eff.SetObserver(func(stage smoke.Stage, took time.Duration) {
		app.timings[stage] = took
	})
	if err := eff.Initialize(app.scene.Meshes); err != nil {
		return err
	}
	app.effect = eff

	nx, ny, nz := eff.Grid().Resolution()
	app.sliceIndex = int32([3]int{nx, ny, nz}[app.sliceAxis] / 2)
	app.detonate(app.cfg.TriggerPoint(app.scene))
	return nil
}

func (app *App) detonate(p math.Vec3) {
	app.effect.Trigger(p)
	app.status = fmt.Sprintf("detonated at (%.2f, %.2f, %.2f)", p.X, p.Y, p.Z)
}

func (app *App) fire() {
	if app.effect.Fire(app.cam.Position(), app.cam.Forward()) {
		app.status = "fired"
		return
	}
	app.status = "decal pool full"
}

func (app *App) view() camera.View {
	return camera.NewView(app.cam, app.lens, app.width, app.height)
}

// openSceneDialog asks for a scene file. The dialog runs off the main thread, the
// result is picked up by the next render.
func (app *App) openSceneDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("Scene files", "yaml", "yml").
			Filter("All Files", "*").
			Title("Open Scene").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				app.log.Error("file dialog", zap.Error(err))
			}
			return
		}
		select {
		case app.pendingPath <- filename:
		default:
		}
	}()
}

func (app *App) loadScene(path string) {
	f, err := scene.LoadFile(path)
	if err == nil {
		var sc *scene.Scene
		if sc, err = f.Build(); err == nil {
			err = app.setScene(sc, filepath.Base(path))
		}
	}
	if err != nil {
		app.status = fmt.Sprintf("failed to open %s: %v", filepath.Base(path), err)
		app.log.Error("open scene", zap.String("path", path), zap.Error(err))
		return
	}
	app.status = "opened " + filepath.Base(path)
}

// step advances and renders the effect, then refreshes the textures.
func (app *App) step() {
	now := time.Now()
	dt := float32(now.Sub(app.lastFrame).Seconds())
	app.lastFrame = now
	if dt > 0.1 {
		dt = 0.1
	}
	if dt > 0 {
		app.fps = app.fps*0.9 + 0.1/dt
	}

	if !app.paused {
		app.effect.Tick(dt * app.timeScale)
	}

	view := app.view()
	app.scene.RenderOpaque(app.dispatcher, view, app.opaque)
	app.effect.Render(smoke.Frame{
		View:       view,
		SceneColor: app.opaque.Color,
		SceneDepth: app.opaque.Depth,
		Out:        app.out,
	})
	if app.showBounds {
		debug.DrawBox(app.out, view, app.effect.Grid().Bounds(), math.Vec3{X: 1, Y: 0.8})
	}
	app.frameTex.Set(debug.ToRGBA(app.out, app.exposure))

	if app.frame%sliceInterval == 0 {
		app.refreshSlices()
	}
	app.frame++
}

func (app *App) refreshSlices() {
	app.voxelTex.Set(debug.Scale(debug.VoxelSlice(app.effect.Grid(), int(app.sliceAxis), int(app.sliceIndex)), 4, true))

	field := app.effect.Noise()
	if field.Volume() == nil {
		return
	}
	gray := debug.NoiseSlice(field, int(app.noiseSlice))
	app.noiseTex.Set(debug.Scale(gray, 1, true))
}

func (app *App) screenshot() {
	path, err := app.capture.Save(debug.ToRGBA(app.out, app.exposure), "")
	if err != nil {
		app.status = "screenshot failed: " + err.Error()
		return
	}
	app.status = "saved " + path
}

// Close releases every resource.
func (app *App) Close() {
	app.frameTex.Release()
	app.voxelTex.Release()
	app.noiseTex.Release()
	if app.effect != nil {
		if err := app.effect.Shutdown(); err != nil {
			app.log.Warn("effect shutdown", zap.Error(err))
		}
	}
	app.dispatcher.Close()
	app.opaque.Release()
	app.out.Release()
}
