// Package main renders the smoke effect headless and writes the frames as PNG files.
package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/voxsmoke/internal/config"
	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/camera"
	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/Faultbox/voxsmoke/internal/engine/debug"
	"github.com/Faultbox/voxsmoke/internal/engine/scene"
	"github.com/Faultbox/voxsmoke/internal/logger"
	"github.com/Faultbox/voxsmoke/internal/smoke"
	"github.com/Faultbox/voxsmoke/pkg/math"
)

// Concurrent PNG encoders.
const maxWriters = 4

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== VoxSmoke headless renderer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("render failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("render finished")
}

func run(cfg *config.Config) error {
	sc, err := cfg.LoadScene()
	if err != nil {
		return fmt.Errorf("loading scene: %w", err)
	}

	effCfg, err := cfg.EffectConfig()
	if err != nil {
		return err
	}
	effCfg.Render = effCfg.Render.WithSun(sc.Sun)

	eff, err := smoke.New(effCfg)
	if err != nil {
		return fmt.Errorf("creating effect: %w", err)
	}
	defer func() {
		if err := eff.Shutdown(); err != nil {
			logger.Warn("effect shutdown", zap.Error(err))
		}
	}()

	timings := make(map[smoke.Stage]time.Duration)
	eff.SetObserver(func(stage smoke.Stage, took time.Duration) {
		timings[stage] += took
	})

	if err := eff.Initialize(sc.Meshes); err != nil {
		return err
	}

	width, height := effCfg.Width, effCfg.Height
	cam := camera.NewFlyCamera(sc.CameraPosition)
	cam.LookAt(sc.CameraTarget)
	view := camera.NewView(cam, camera.DefaultLens(), width, height)

	// The camera is fixed, so the opaque pass runs once.
	opaque := scene.NewOpaqueTargets(width, height)
	defer opaque.Release()
	d := compute.NewDispatcher(effCfg.Workers)
	sc.RenderOpaque(d, view, opaque)
	d.Close()

	out := buffer.NewImage("frame", width, height, buffer.ChannelsRGBA)
	defer out.Release()

	capture := debug.NewCapture(cfg.Output.Dir, "smoke")
	trigger := cfg.TriggerPoint(sc)
	eff.Trigger(trigger)
	logger.Info("detonated", zap.Any("point", trigger),
		zap.Int("frames", cfg.Output.Frames),
		zap.String("out", cfg.Output.Dir))

	fireAt := cfg.Output.Frames / 2
	var g errgroup.Group
	g.SetLimit(maxWriters)

	start := time.Now()
	for frame := 0; frame < cfg.Output.Frames; frame++ {
		if frame == fireAt {
			dir := trigger.Add(math.Vec3{Y: 1}).Sub(cam.Pos).Normalize()
			if eff.Fire(cam.Pos, dir) {
				logger.Debug("fired through the cloud", zap.Int("frame", frame))
			}
		}

		eff.Tick(cfg.Output.FrameStep)
		eff.Render(smoke.Frame{
			View:       view,
			SceneColor: opaque.Color,
			SceneDepth: opaque.Depth,
			Out:        out,
		})

		if frame%cfg.Output.EveryN != 0 {
			continue
		}
		if cfg.Output.DebugSlice {
			debug.DrawBox(out, view, eff.Grid().Bounds(), math.Vec3{X: 1, Y: 0.8})
			debug.DrawMarker(out, view, trigger, 4, math.Vec3{X: 1})
		}

		img := debug.ToRGBA(out, 1)
		name := fmt.Sprintf("%04d", frame)
		g.Go(func() error {
			path, err := capture.Save(img, name)
			if err != nil {
				return fmt.Errorf("frame %s: %w", name, err)
			}
			logger.Debug("frame written", zap.String("path", path))
			return nil
		})
	}

	if cfg.Output.DebugSlice {
		writeSlices(&g, capture, eff)
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fields := []zap.Field{
		zap.Int("frames", cfg.Output.Frames),
		logger.Took(start),
		zap.Int("filled_voxels", eff.Grid().FilledCount()),
	}
	for stage, took := range timings {
		fields = append(fields, zap.Duration(stage.String(), took))
	}
	logger.Info("frames rendered", fields...)
	return nil
}

// writeSlices queues the voxel fill and noise slices through the middle of each volume.
func writeSlices(g *errgroup.Group, capture *debug.Capture, eff *smoke.Effect) {
	grid := eff.Grid()
	nx, ny, nz := grid.Resolution()
	mid := [3]int{nx / 2, ny / 2, nz / 2}
	for axis, name := range []string{"x", "y", "z"} {
		img := debug.Scale(debug.VoxelSlice(grid, axis, mid[axis]), 8, true)
		g.Go(func() error {
			_, err := capture.Save(img, "voxels_"+name)
			return err
		})
	}

	field := eff.Noise()
	if field.Volume() == nil {
		return
	}
	noiseImg := debug.Scale(debug.NoiseSlice(field, field.Params().Resolution/2), 2, false)
	g.Go(func() error {
		_, err := capture.Save(noiseImg, "noise")
		return err
	})
}
