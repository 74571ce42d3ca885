package voxel

import (
	"testing"

	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/Faultbox/voxsmoke/internal/engine/scene"
	"github.com/Faultbox/voxsmoke/pkg/math"
)

func cubeConfig() Config {
	cfg := DefaultConfig()
	cfg.BoundsExtent = math.Splat(1.5)
	cfg.Center = math.Vec3{}
	cfg.VoxelSize = 1
	cfg.MaxRadius = math.Splat(2.6) // beyond the half diagonal of the 3×3×3 grid
	cfg.GrowthSpeed = 1
	cfg.MaxFillSteps = 10
	cfg.Ease = "linear"
	return cfg
}

func newGrid(t *testing.T, cfg Config) (*Grid, *compute.Dispatcher) {
	t.Helper()
	d := compute.NewDispatcher(4)
	t.Cleanup(d.Close)
	g, err := New(d, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g, d
}

func runUntilIdle(t *testing.T, g *Grid, dt float32) {
	t.Helper()
	for i := 0; i < 1000 && g.State() == Growing; i++ {
		g.Step(dt)
	}
	if g.State() != Idle {
		t.Fatalf("grid did not settle, state=%v", g.State())
	}
}

func TestResolution(t *testing.T) {
	tests := []struct {
		extent, size float32
		want         int
	}{
		{3, 0.25, 24},
		{1.5, 1, 3},
		{1, 0.3, 7},
		{0.01, 1, 1},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.BoundsExtent = math.Splat(tt.extent)
		cfg.VoxelSize = tt.size
		nx, ny, nz := cfg.Resolution()
		if nx != tt.want || ny != tt.want || nz != tt.want {
			t.Errorf("extent %v size %v: got %d×%d×%d, want %d", tt.extent, tt.size, nx, ny, nz, tt.want)
		}
	}
}

func TestThreeCubedFillsCompletely(t *testing.T) {
	for _, conn := range []Connectivity{Faces, Full} {
		cfg := cubeConfig()
		cfg.Connectivity = conn
		g, _ := newGrid(t, cfg)
		g.Bake(nil)
		g.Trigger(math.Vec3{})
		runUntilIdle(t, g, 0.25)

		if g.FilledCount() != 27 {
			t.Errorf("connectivity %d: filled %d voxels, want 27", conn, g.FilledCount())
		}
		if !g.IsFilled(1, 1, 1) || g.Fill()[g.index(1, 1, 1)] != 1 {
			t.Errorf("seed should hold distance 1, got %d", g.Fill()[g.index(1, 1, 1)])
		}
	}
}

func TestBlockedCornerStaysEmpty(t *testing.T) {
	g, _ := newGrid(t, cubeConfig())

	// A tiny triangle inside the corner voxel marks it static.
	corner := g.VoxelCenter(0, 0, 0)
	tri := &scene.Mesh{
		Positions: []math.Vec3{
			corner.Add(math.Vec3{X: -0.1}),
			corner.Add(math.Vec3{X: 0.1}),
			corner.Add(math.Vec3{Y: 0.1}),
		},
		Indices:      []uint32{0, 1, 2},
		LocalToWorld: math.Identity(),
	}
	g.Bake([]*scene.Mesh{tri})
	if g.StaticCount() != 1 || !g.IsStatic(0, 0, 0) {
		t.Fatalf("static voxels = %d, corner static = %v", g.StaticCount(), g.IsStatic(0, 0, 0))
	}

	g.Trigger(math.Vec3{})
	runUntilIdle(t, g, 0.1)
	for extra := 0; extra < 20; extra++ {
		g.Step(0.1) // idle steps must not change anything
	}

	if g.IsFilled(0, 0, 0) {
		t.Error("static corner was filled")
	}
	if g.FilledCount() != 26 {
		t.Errorf("filled %d voxels, want 26", g.FilledCount())
	}
}

func TestFillIsMonotonic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Center = math.Vec3{}
	cfg.MaxFillSteps = 2
	cfg.GrowthSpeed = 0.5
	g, _ := newGrid(t, cfg)
	g.Bake([]*scene.Mesh{scene.Box("wall", math.Vec3{X: 0.5, Y: 6, Z: 6}, math.Translate(1, 0, 0))})
	g.Trigger(math.Vec3{X: -1})

	prev := append([]int32(nil), g.Fill()...)
	for step := 0; step < 60; step++ {
		g.Step(1.0 / 30)
		cur := g.Fill()
		for i := range cur {
			if prev[i] != 0 && cur[i] != prev[i] {
				t.Fatalf("step %d: voxel %d changed from %d to %d", step, i, prev[i], cur[i])
			}
		}
		prev = append(prev[:0], cur...)
	}
	if g.FilledCount() == 0 {
		t.Error("nothing filled")
	}
}

func TestObstacleRespect(t *testing.T) {
	origins := []math.Vec3{{X: -1}, {X: 0.2, Y: 1}, {X: 1}, {Z: -2.5}}
	for _, origin := range origins {
		cfg := DefaultConfig()
		cfg.Center = math.Vec3{}
		cfg.MaxFillSteps = 64
		g, _ := newGrid(t, cfg)
		g.Bake([]*scene.Mesh{
			scene.Box("wall", math.Vec3{X: 0.5, Y: 6, Z: 6}, math.Translate(1, 0, 0)),
			scene.Plane("floor", 10, 10, math.Translate(0, -1, 0)),
		})
		g.Trigger(origin)
		runUntilIdle(t, g, 0.2)

		static, fill := g.Static(), g.Fill()
		for i := range fill {
			if static[i] != 0 && fill[i] != 0 {
				t.Fatalf("origin %v: static voxel %d filled", origin, i)
			}
		}
	}
}

func TestWallBlocksPropagation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Center = math.Vec3{}
	cfg.MaxRadius = math.Splat(10)
	cfg.MaxFillSteps = 64
	g, _ := newGrid(t, cfg)
	// Wall spans the whole grid cross-section at x=1.
	g.Bake([]*scene.Mesh{scene.Box("wall", math.Vec3{X: 0.5, Y: 8, Z: 8}, math.Translate(1, 0, 0))})
	g.Trigger(math.Vec3{X: -1})
	runUntilIdle(t, g, 0.5)

	i, j, k, _ := g.VoxelAt(math.Vec3{X: 2.5})
	if g.IsFilled(i, j, k) {
		t.Error("smoke leaked through the wall")
	}
	i, j, k, _ = g.VoxelAt(math.Vec3{X: -2.5})
	if !g.IsFilled(i, j, k) {
		t.Error("smoke did not reach the near side")
	}
}

func TestEdgeCases(t *testing.T) {
	t.Run("origin outside", func(t *testing.T) {
		g, _ := newGrid(t, cubeConfig())
		g.Trigger(math.Vec3{X: 50})
		runUntilIdle(t, g, 1)
		if g.FilledCount() != 0 {
			t.Errorf("filled %d voxels from an outside origin", g.FilledCount())
		}
	})

	t.Run("zero radius", func(t *testing.T) {
		cfg := cubeConfig()
		cfg.MaxRadius = math.Vec3{}
		g, _ := newGrid(t, cfg)
		g.Trigger(math.Vec3{})
		runUntilIdle(t, g, 1)
		if g.FilledCount() != 0 {
			t.Errorf("filled %d voxels with zero radius", g.FilledCount())
		}
	})

	t.Run("empty mesh", func(t *testing.T) {
		g, _ := newGrid(t, cubeConfig())
		g.Bake([]*scene.Mesh{{LocalToWorld: math.Identity()}, nil})
		if g.StaticCount() != 0 || g.State() != StaticBaked {
			t.Errorf("static=%d state=%v", g.StaticCount(), g.State())
		}
	})

	t.Run("retrigger resets", func(t *testing.T) {
		g, _ := newGrid(t, cubeConfig())
		g.Trigger(math.Vec3{})
		runUntilIdle(t, g, 1)
		g.Trigger(math.Vec3{X: 1, Y: 1, Z: 1})
		if g.FilledCount() != 0 || g.Progress() != 0 || g.Radius() != (math.Vec3{}) {
			t.Error("trigger did not reset the episode")
		}
		for _, v := range g.Fill() {
			if v != 0 {
				t.Fatal("fill not cleared")
			}
		}
	})
}

func cornerTriangle(g *Grid) *scene.Mesh {
	corner := g.VoxelCenter(0, 0, 0)
	return &scene.Mesh{
		Positions: []math.Vec3{
			corner.Add(math.Vec3{X: -0.1}),
			corner.Add(math.Vec3{X: 0.1}),
			corner.Add(math.Vec3{Y: 0.1}),
		},
		Indices:      []uint32{0, 1, 2},
		LocalToWorld: math.Identity(),
	}
}

func TestBakeOverSmokeNeverLeavesStaticFilled(t *testing.T) {
	for _, grow := range []bool{false, true} {
		g, _ := newGrid(t, cubeConfig())
		g.Bake(nil)
		g.Trigger(math.Vec3{})
		if grow {
			runUntilIdle(t, g, 0.25)
			if g.FilledCount() != 27 {
				t.Fatalf("filled %d voxels before the bake, want 27", g.FilledCount())
			}
		} else {
			g.Step(0.1)
		}

		g.Bake([]*scene.Mesh{cornerTriangle(g)})
		g.Step(0.1)

		for k := 0; k < 3; k++ {
			for j := 0; j < 3; j++ {
				for i := 0; i < 3; i++ {
					if g.IsStatic(i, j, k) && g.IsFilled(i, j, k) {
						t.Fatalf("voxel (%d,%d,%d) is static and filled; state=%v filled=%d",
							i, j, k, g.State(), g.FilledCount())
					}
				}
			}
		}
		if g.State() != Idle || g.FilledCount() != 0 {
			t.Errorf("bake over smoke: state=%v filled=%d, want idle and empty", g.State(), g.FilledCount())
		}

		g.Trigger(math.Vec3{})
		runUntilIdle(t, g, 0.25)
		if g.IsFilled(0, 0, 0) || g.FilledCount() != 26 {
			t.Errorf("regrowth: corner filled=%v, filled=%d, want 26", g.IsFilled(0, 0, 0), g.FilledCount())
		}
	}
}

func TestStateMachine(t *testing.T) {
	g, _ := newGrid(t, cubeConfig())
	if g.State() != Uninitialized {
		t.Fatalf("state = %v", g.State())
	}
	g.Bake(nil)
	if g.State() != StaticBaked {
		t.Fatalf("after bake: %v", g.State())
	}
	g.Step(0.1)
	if g.State() != Idle {
		t.Fatalf("after first step: %v", g.State())
	}
	g.Trigger(math.Vec3{})
	if g.State() != Growing {
		t.Fatalf("after trigger: %v", g.State())
	}
	runUntilIdle(t, g, 0.5)

	g.Release()
	g.Release()
	if g.State() != Released || g.Fill() != nil {
		t.Errorf("after release: state=%v fill=%v", g.State(), g.Fill())
	}
	g.Trigger(math.Vec3{})
	g.Step(1)
	if g.State() != Released {
		t.Error("released grid came back to life")
	}
}

func TestRadiusMonotonic(t *testing.T) {
	for _, name := range EaseNames() {
		cfg := cubeConfig()
		cfg.Ease = name
		cfg.GrowthSpeed = 0.3
		g, _ := newGrid(t, cfg)
		g.Trigger(math.Vec3{})
		prev := float32(0)
		for g.State() == Growing {
			g.Step(0.05)
			r := g.Radius().X
			if r < prev {
				t.Fatalf("%s: radius decreased %v -> %v", name, prev, r)
			}
			prev = r
		}
		if d := prev - cfg.MaxRadius.X; d > 1e-4 || d < -1e-4 {
			t.Errorf("%s: final radius %v, want %v", name, prev, cfg.MaxRadius.X)
		}
	}
}

func TestSampleFill(t *testing.T) {
	g, _ := newGrid(t, cubeConfig())
	g.Trigger(math.Vec3{})
	runUntilIdle(t, g, 1)

	if v := g.SampleFill(math.Vec3{}); v != 1 {
		t.Errorf("SampleFill(centre) = %v, want 1", v)
	}
	if v := g.SampleFill(math.Vec3{X: 10}); v != 0 {
		t.Errorf("SampleFill(outside) = %v, want 0", v)
	}
	// Half a voxel past the last centre blends with the empty outside.
	if v := g.SampleFill(math.Vec3{X: 1.5}); v < 0.4 || v > 0.6 {
		t.Errorf("SampleFill(edge) = %v, want ~0.5", v)
	}
}

func TestEases(t *testing.T) {
	for _, name := range EaseNames() {
		e, err := LookupEase(name)
		if err != nil {
			t.Fatal(err)
		}
		if e(0) != 0 {
			t.Errorf("%s(0) = %v", name, e(0))
		}
		if v := e(1); v < 0.9999 || v > 1.0001 {
			t.Errorf("%s(1) = %v", name, v)
		}
	}
	if _, err := LookupEase("bounce"); err == nil {
		t.Error("expected error for unknown ease")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"voxel size", func(c *Config) { c.VoxelSize = 0 }},
		{"extent", func(c *Config) { c.BoundsExtent.Y = -1 }},
		{"bias", func(c *Config) { c.IntersectionBias = 3 }},
		{"steps", func(c *Config) { c.MaxFillSteps = 0 }},
		{"connectivity", func(c *Config) { c.Connectivity = 18 }},
		{"ease", func(c *Config) { c.Ease = "bounce" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
