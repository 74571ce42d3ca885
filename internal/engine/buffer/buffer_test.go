package buffer

import (
	"math"
	"testing"
)

func TestBufferLifecycle(t *testing.T) {
	b := New[int32]("fill", 8)
	if b.Len() != 8 || b.Name() != "fill" {
		t.Fatalf("unexpected buffer: len=%d name=%q", b.Len(), b.Name())
	}

	b.Fill(3)
	b.Resize(8)
	for i, v := range b.Data() {
		if v != 0 {
			t.Fatalf("Resize(same) should zero, data[%d]=%d", i, v)
		}
	}

	b.Resize(4)
	if b.Len() != 4 {
		t.Errorf("Len after resize = %d, want 4", b.Len())
	}

	b.Release()
	b.Release()
	if !b.Released() || b.Len() != 0 || b.Data() != nil {
		t.Error("released buffer should be empty")
	}

	b.Resize(2)
	if b.Released() || b.Len() != 2 {
		t.Error("Resize should reallocate a released buffer")
	}
}

func TestSwap(t *testing.T) {
	a := New[uint8]("a", 2)
	b := New[uint8]("b", 2)
	a.Fill(1)
	b.Fill(2)

	Swap(a, b)
	if a.Data()[0] != 2 || b.Data()[0] != 1 {
		t.Errorf("Swap did not exchange storage: a=%v b=%v", a.Data(), b.Data())
	}
	if a.Name() != "a" {
		t.Error("Swap should not exchange names")
	}
}

func TestVolumeIndexing(t *testing.T) {
	v := NewVolume("noise", 3, 4, 5)
	if v.Len() != 60 {
		t.Fatalf("Len = %d, want 60", v.Len())
	}
	v.Set(2, 3, 4, 7)
	if v.Data()[59] != 7 {
		t.Error("last voxel should be at the end of the slice")
	}
	if v.At(2, 3, 4) != 7 {
		t.Error("At did not return the written value")
	}
}

func TestVolumeSampling(t *testing.T) {
	v := NewVolume("ramp", 4, 1, 1)
	for i := 0; i < 4; i++ {
		v.Set(i, 0, 0, float32(i))
	}

	tests := []struct {
		name   string
		sample func(x float32) float32
		x      float32
		want   float32
	}{
		{"repeat centre", func(x float32) float32 { return v.SampleRepeat(x, 0.5, 0.5) }, 1.5, 1},
		{"repeat between", func(x float32) float32 { return v.SampleRepeat(x, 0.5, 0.5) }, 2.0, 1.5},
		{"repeat wraps", func(x float32) float32 { return v.SampleRepeat(x, 0.5, 0.5) }, 4.0, 1.5},
		{"clamp low", func(x float32) float32 { return v.SampleClamp(x, 0.5, 0.5) }, -3, 0},
		{"clamp high", func(x float32) float32 { return v.SampleClamp(x, 0.5, 0.5) }, 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sample(tt.x)
			if math.Abs(float64(got-tt.want)) > 1e-5 {
				t.Errorf("sample(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestImageChannels(t *testing.T) {
	im := NewImage("albedo", 2, 2, ChannelsRGBA)
	im.Fill(0.1, 0.2, 0.3, 1)
	px := im.Pixel(1, 1)
	if len(px) != 4 || px[3] != 1 {
		t.Fatalf("Pixel = %v", px)
	}
	px[0] = 0.9
	if im.At(1, 1, 0) != 0.9 {
		t.Error("Pixel should alias image storage")
	}

	im.Resize(4, 3)
	if w, h := im.Size(); w != 4 || h != 3 || len(im.Data()) != 48 {
		t.Errorf("Resize: size=%dx%d len=%d", w, h, len(im.Data()))
	}
}

func TestImageBilinear(t *testing.T) {
	im := NewImage("mask", 2, 1, ChannelsScalar)
	im.Set(0, 0, 0, 0)
	im.Set(1, 0, 0, 1)

	if got := im.SampleBilinear(1.0, 0.5, 0); math.Abs(float64(got-0.5)) > 1e-6 {
		t.Errorf("midpoint = %v, want 0.5", got)
	}
	if got := im.SampleBilinear(-5, 0.5, 0); got != 0 {
		t.Errorf("clamped left = %v, want 0", got)
	}
}
