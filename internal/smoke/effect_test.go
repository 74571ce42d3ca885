package smoke

import (
	"errors"
	"testing"
	"time"

	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/camera"
	"github.com/Faultbox/voxsmoke/internal/engine/scene"
	"github.com/Faultbox/voxsmoke/internal/smoke/composite"
	"github.com/Faultbox/voxsmoke/internal/smoke/voxel"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
)

func testConfig(size int, res composite.Resolution) Config {
	cfg := DefaultConfig()
	cfg.Workers = 4
	cfg.Width, cfg.Height = size, size
	cfg.Noise.Resolution = 16
	cfg.Noise.Octaves = 2
	cfg.Render.NoiseStrength = 0
	cfg.Composite.Resolution = res
	return cfg
}

func newEffect(t *testing.T, cfg Config) *Effect {
	t.Helper()
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Shutdown() })
	return e
}

func floor() []*scene.Mesh {
	return []*scene.Mesh{scene.Plane("floor", 20, 20, math.Identity())}
}

func newFrame(size int) Frame {
	cam := camera.NewFlyCamera(math.Vec3{Y: 3, Z: 12})
	color := buffer.NewImage("scene-color", size, size, buffer.ChannelsRGBA)
	color.Fill(0.1, 0.1, 0.1, 1)
	return Frame{
		View:       camera.NewView(cam, camera.DefaultLens(), size, size),
		SceneColor: color,
		Out:        buffer.NewImage("out", size, size, buffer.ChannelsRGBA),
	}
}

// grow triggers at a point above the floor and ticks until growth finishes.
func grow(t *testing.T, e *Effect) {
	t.Helper()
	e.Trigger(math.Vec3{Y: 2})
	for i := 0; i < 40 && e.Grid().State() != voxel.Idle; i++ {
		e.Tick(0.1)
	}
	if e.Grid().State() != voxel.Idle {
		t.Fatalf("grid still %s", e.Grid().State())
	}
}

func TestFrameStageOrder(t *testing.T) {
	e := newEffect(t, testConfig(16, composite.Half))
	if err := e.Initialize(floor()); err != nil {
		t.Fatal(err)
	}

	var stages []Stage
	e.SetObserver(func(s Stage, _ time.Duration) { stages = append(stages, s) })

	e.Tick(0.016)
	e.Render(newFrame(16))
	want := []Stage{StageNoise, StageGrid, StageDecals, StageRaymarch, StageComposite}
	assertStages(t, stages, want)

	stages = nil
	e.Tick(0.016)
	e.Render(newFrame(16))
	assertStages(t, stages, want[1:])

	stages = nil
	p := e.Noise().Params()
	p.Seed++
	e.RequestNoise(p)
	e.Tick(0.016)
	assertStages(t, stages, want[:3])
}

func assertStages(t *testing.T, got, want []Stage) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stages = %v, want %v", got, want)
		}
	}
}

func TestLazyInitialization(t *testing.T) {
	e := newEffect(t, testConfig(16, composite.Full))
	if e.Initialized() {
		t.Fatal("initialized before Initialize")
	}

	grow(t, e)
	if e.Grid().FilledCount() == 0 {
		t.Error("trigger before Initialize should still grow")
	}
	if e.Grid().StaticCount() != 0 {
		t.Error("static mask should be empty without a bake")
	}

	// Render without a prior Tick regenerates the noise itself.
	e2 := newEffect(t, testConfig(16, composite.Full))
	e2.Render(newFrame(16))
	if e2.Noise().Volume() == nil {
		t.Error("noise volume not allocated by Render")
	}
}

func TestSmokeCoversCentre(t *testing.T) {
	e := newEffect(t, testConfig(32, composite.Full))
	if err := e.Initialize(floor()); err != nil {
		t.Fatal(err)
	}
	if e.Grid().StaticCount() == 0 {
		t.Fatal("floor not baked")
	}
	grow(t, e)

	f := newFrame(32)
	e.Render(f)
	if m := e.Smoke().Mask.At(16, 16, 0); m < 0.5 {
		t.Errorf("centre mask = %v, want dense smoke", m)
	}
	if m := e.Smoke().Mask.At(0, 0, 0); m > 0.01 {
		t.Errorf("corner mask = %v, want clear", m)
	}
	if r := f.Out.At(16, 16, 0); r <= 0.1 {
		t.Errorf("centre red = %v, smoke should brighten the dark scene", r)
	}
	if r := f.Out.At(0, 0, 0); math32.Abs(r-0.1) > 1e-3 {
		t.Errorf("corner red = %v, want scene colour", r)
	}
}

func TestQuarterResolutionApproachesFull(t *testing.T) {
	const size = 48
	render := func(res composite.Resolution) *buffer.Image {
		e := newEffect(t, testConfig(size, res))
		if err := e.Initialize(floor()); err != nil {
			t.Fatal(err)
		}
		grow(t, e)
		e.Render(newFrame(size))
		return e.Smoke().Mask
	}

	full := render(composite.Full)
	quarter := render(composite.Quarter)

	var sum float32
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			sum += math32.Abs(full.At(x, y, 0) - quarter.At(x, y, 0))
		}
	}
	if mean := sum / (size * size); mean > 0.1 {
		t.Errorf("mean mask difference = %v", mean)
	}
}

func TestFireAndDecalBuffer(t *testing.T) {
	cfg := testConfig(16, composite.Full)
	cfg.Decals.Capacity = 2
	e := newEffect(t, cfg)

	origin, forward := math.Vec3{Y: 2, Z: 10}, math.Vec3{Z: -1}
	if !e.Fire(origin, forward) || !e.Fire(origin, forward) {
		t.Fatal("Fire rejected with free slots")
	}
	if e.Fire(origin, forward) {
		t.Error("Fire accepted with a full pool")
	}
	e.Tick(0.05)
	if n := len(e.DecalBuffer()); n != 2 {
		t.Errorf("decal buffer = %d entries, want 2", n)
	}
}

func TestShutdown(t *testing.T) {
	e, err := New(testConfig(16, composite.Half))
	if err != nil {
		t.Fatal(err)
	}
	e.Tick(0.1)
	e.Render(newFrame(16))

	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := e.Shutdown(); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
	if e.Grid().State() != voxel.Released {
		t.Errorf("grid state = %s", e.Grid().State())
	}
	if !e.Compositor().Released() {
		t.Error("compositor not released")
	}
	if v := e.Noise().Volume(); v == nil || !v.Released() {
		t.Error("noise volume not released")
	}

	// Everything after shutdown is a no-op.
	e.Tick(0.1)
	e.Trigger(math.Vec3{})
	e.Render(newFrame(16))
	if e.Fire(math.Vec3{}, math.Vec3{Z: -1}) {
		t.Error("Fire after Shutdown")
	}
	if err := e.Initialize(nil); !errors.Is(err, ErrShutdown) {
		t.Errorf("Initialize after Shutdown = %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(16, composite.Full)
	cfg.Render.StepCount = 0
	if _, err := New(cfg); err == nil {
		t.Error("expected error for zero step count")
	}

	cfg = testConfig(16, composite.Full)
	cfg.Voxel.VoxelSize = 0
	if _, err := New(cfg); err == nil {
		t.Error("expected error for zero voxel size")
	}
}
