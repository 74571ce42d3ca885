package composite

import (
	"testing"

	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/chewxy/math32"
)

func newDispatcher(t *testing.T) *compute.Dispatcher {
	t.Helper()
	d := compute.NewDispatcher(4)
	t.Cleanup(d.Close)
	return d
}

func near(a, b, eps float32) bool {
	return math32.Abs(a-b) <= eps
}

func TestLevelSizes(t *testing.T) {
	tests := []struct {
		res  Resolution
		w, h int
		want [][2]int
	}{
		{Full, 64, 48, [][2]int{{64, 48}}},
		{Half, 64, 48, [][2]int{{32, 24}, {64, 48}}},
		{Quarter, 64, 48, [][2]int{{16, 12}, {32, 24}, {64, 48}}},
		{Quarter, 10, 7, [][2]int{{3, 2}, {5, 4}, {10, 7}}},
		{Quarter, 1, 1, [][2]int{{1, 1}, {1, 1}, {1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.res.String(), func(t *testing.T) {
			got := levelSizes(tt.res, tt.w, tt.h)
			if len(got) != len(tt.want) {
				t.Fatalf("levels = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("level %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestKernelPartitionOfUnity(t *testing.T) {
	for _, sharpness := range []float32{0, 0.25, 0.5, 1} {
		k := sharpKernel(sharpness)
		for _, frac := range []float32{0, 0.1, 0.25, 0.5, 0.9} {
			var sum float32
			for i := -2; i <= 2; i++ {
				sum += k.weight(float32(i) - frac)
			}
			if !near(sum, 1, 1e-5) {
				t.Errorf("sharpness %v frac %v: weights sum to %v", sharpness, frac, sum)
			}
		}
		if k.weight(2.5) != 0 {
			t.Errorf("sharpness %v: weight outside support = %v", sharpness, k.weight(2.5))
		}
	}
}

func pattern(u, v float32) float32 {
	return 0.5 + 0.4*math32.Sin(2*math32.Pi*u)*math32.Cos(2*math32.Pi*v)
}

// upscaleError fills the quarter level with a smooth pattern and returns the mean absolute
// error of the reconstructed full level against the same pattern.
func upscaleError(t *testing.T, filter Filter, size int) float32 {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Resolution = Quarter
	cfg.Filter = filter
	c := New(newDispatcher(t), cfg, size, size)
	defer c.Release()

	low := c.Targets()
	w, h := low.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f := pattern((float32(x)+0.5)/float32(w), (float32(y)+0.5)/float32(h))
			low.Mask.Set(x, y, 0, f)
			low.Albedo.Set(x, y, 0, f)
		}
	}
	c.Upscale()

	out := c.Output()
	var sum float32
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			f := pattern((float32(x)+0.5)/float32(size), (float32(y)+0.5)/float32(size))
			sum += math32.Abs(out.Mask.At(x, y, 0) - f)
			sum += math32.Abs(out.Albedo.At(x, y, 0) - f)
		}
	}
	return sum / float32(2*size*size)
}

func TestUpscaleConverges(t *testing.T) {
	for _, filter := range []Filter{Bilinear, Bicubic} {
		coarse := upscaleError(t, filter, 32)
		fine := upscaleError(t, filter, 128)
		if fine >= coarse {
			t.Errorf("filter %d: error did not shrink with resolution (%v -> %v)", filter, coarse, fine)
		}
		if fine > 0.02 {
			t.Errorf("filter %d: error at 128px = %v", filter, fine)
		}
	}
}

func TestUpscalePreservesIntermediates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolution = Quarter
	c := New(newDispatcher(t), cfg, 64, 48)
	defer c.Release()

	levels := c.Levels()
	if len(levels) != 3 {
		t.Fatalf("levels = %d, want 3", len(levels))
	}
	levels[0].Mask.Fill(0.5)
	levels[0].Albedo.Fill(0.25, 0.25, 0.25, 0.5)
	levels[0].Depth.Fill(7)
	c.Upscale()

	for i, l := range levels {
		w, h := l.Size()
		for _, p := range [][2]int{{0, 0}, {w / 2, h / 2}, {w - 1, h - 1}} {
			if m := l.Mask.At(p[0], p[1], 0); !near(m, 0.5, 1e-5) {
				t.Errorf("level %d mask at %v = %v", i, p, m)
			}
			if a := l.Albedo.At(p[0], p[1], 1); !near(a, 0.25, 1e-5) {
				t.Errorf("level %d albedo at %v = %v", i, p, a)
			}
			if z := l.Depth.At(p[0], p[1], 0); z != 7 {
				t.Errorf("level %d depth at %v = %v", i, p, z)
			}
		}
	}
}

func TestUpscaleKeepsEmptyDepth(t *testing.T) {
	cfg := DefaultConfig()
	c := New(newDispatcher(t), cfg, 16, 16)
	defer c.Release()

	c.Targets().Depth.Fill(math32.Inf(1))
	c.Upscale()
	if z := c.Output().Depth.At(5, 5, 0); !math32.IsInf(z, 1) {
		t.Errorf("depth = %v, want +Inf", z)
	}
}

type blendFixture struct {
	c     *Compositor
	color *buffer.Image
	depth *buffer.Image
	out   *buffer.Image
}

func newBlendFixture(t *testing.T, cfg Config) blendFixture {
	t.Helper()
	cfg.Resolution = Full
	c := New(newDispatcher(t), cfg, 4, 4)
	t.Cleanup(func() { c.Release() })

	smoke := c.Targets()
	smoke.Albedo.Fill(0.3, 0.3, 0.3, 0.5)
	smoke.Mask.Fill(0.5)
	smoke.Depth.Fill(10)

	color := buffer.NewImage("color", 4, 4, buffer.ChannelsRGBA)
	color.Fill(0.2, 0.4, 0.6, 1)
	depth := buffer.NewImage("depth", 4, 4, buffer.ChannelsScalar)
	depth.Fill(15)
	out := buffer.NewImage("out", 4, 4, buffer.ChannelsRGBA)
	return blendFixture{c: c, color: color, depth: depth, out: out}
}

func TestBlend(t *testing.T) {
	f := newBlendFixture(t, DefaultConfig())
	f.c.Composite(f.color, f.depth, f.out)

	want := []float32{0.4, 0.5, 0.6, 1}
	got := f.out.Pixel(1, 2)
	for i := range want {
		if !near(got[i], want[i], 1e-5) {
			t.Errorf("channel %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBlendDepthAware(t *testing.T) {
	tests := []struct {
		name       string
		depthAware bool
		want       float32
	}{
		{"rejected", true, 0.2},
		{"ignored", false, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DepthAware = tt.depthAware
			f := newBlendFixture(t, cfg)
			f.depth.Fill(5)
			f.c.Composite(f.color, f.depth, f.out)
			if got := f.out.At(0, 0, 0); !near(got, tt.want, 1e-5) {
				t.Errorf("red = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDebugViews(t *testing.T) {
	tests := []struct {
		view DebugView
		want float32
	}{
		{ViewAlbedo, 0.3},
		{ViewMask, 0.5},
		{ViewSmokeDepth, 10.0 / 30},
		{ViewSceneDepth, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.view.String(), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DebugView = tt.view
			f := newBlendFixture(t, cfg)
			f.c.Composite(f.color, f.depth, f.out)
			px := f.out.Pixel(3, 3)
			if !near(px[0], tt.want, 1e-5) || px[3] != 1 {
				t.Errorf("pixel = %v, want %v", px, tt.want)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.DebugView = ViewSmokeDepth
	f := newBlendFixture(t, cfg)
	f.c.Targets().Depth.Fill(math32.Inf(1))
	f.c.Composite(f.color, nil, f.out)
	if got := f.out.At(0, 0, 0); got != 1 {
		t.Errorf("empty smoke depth shade = %v, want 1", got)
	}
}

func TestSceneDepthDownsample(t *testing.T) {
	d := newDispatcher(t)
	full := buffer.NewImage("depth", 8, 8, buffer.ChannelsScalar)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			full.Set(x, y, 0, float32(x))
		}
	}

	c := New(d, Config{Resolution: Full}, 8, 8)
	if got := c.SceneDepth(full); got != full {
		t.Error("full resolution should use the scene depth as is")
	}

	c = New(d, Config{Resolution: Half}, 8, 8)
	low := c.SceneDepth(full)
	if low.W != 4 || low.H != 4 {
		t.Fatalf("low depth = %dx%d, want 4x4", low.W, low.H)
	}
	for x := 0; x < 4; x++ {
		if got := low.At(x, 1, 0); got != float32(2*x+1) {
			t.Errorf("low depth x=%d = %v, want %v", x, got, 2*x+1)
		}
	}
	if c.SceneDepth(nil) != nil {
		t.Error("nil scene depth should stay nil")
	}
}

func TestResizeAndRelease(t *testing.T) {
	c := New(newDispatcher(t), DefaultConfig(), 64, 32)
	if w, h := c.Targets().Size(); w != 32 || h != 16 {
		t.Fatalf("half targets = %dx%d", w, h)
	}

	c.Resize(100, 50)
	if w, h := c.Targets().Size(); w != 50 || h != 25 {
		t.Errorf("after resize = %dx%d, want 50x25", w, h)
	}
	if w, h := c.Output().Size(); w != 100 || h != 50 {
		t.Errorf("output = %dx%d, want 100x50", w, h)
	}

	cfg := c.Config()
	cfg.Resolution = Quarter
	c.SetConfig(cfg)
	if n := len(c.Levels()); n != 3 {
		t.Errorf("levels after quarter = %d", n)
	}

	old := c.Levels()
	if err := c.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := c.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	for _, l := range old {
		if !l.Albedo.Released() || !l.Mask.Released() || !l.Depth.Released() {
			t.Error("level not released")
		}
	}

	c.Resize(100, 50)
	if c.Released() {
		t.Error("Resize should reallocate after Release")
	}
}

func TestParseOptions(t *testing.T) {
	if r, err := ParseResolution("Quarter"); err != nil || r != Quarter {
		t.Errorf("ParseResolution = %v, %v", r, err)
	}
	if _, err := ParseResolution("eighth"); err == nil {
		t.Error("expected error for unknown resolution")
	}
	if f, err := ParseFilter("bilinear"); err != nil || f != Bilinear {
		t.Errorf("ParseFilter = %v, %v", f, err)
	}
	if _, err := ParseFilter("lanczos"); err == nil {
		t.Error("expected error for unknown filter")
	}
	for _, name := range debugViewNames {
		v, err := ParseDebugView(name)
		if err != nil || v.String() != name {
			t.Errorf("ParseDebugView(%q) = %v, %v", name, v, err)
		}
	}
	if _, err := ParseDebugView("normals"); err == nil {
		t.Error("expected error for unknown view")
	}
}
