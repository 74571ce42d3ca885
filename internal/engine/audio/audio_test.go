package audio

import (
	"math"
	"testing"
	"time"
)

func TestVolumeConversion(t *testing.T) {
	tests := []struct {
		vol float64
		min float64
		max float64
	}{
		{1.0, -1, 1},     // Full volume should be ~0dB
		{0.5, -8, -4},    // Half volume should be around -6dB
		{0.25, -14, -10}, // Quarter volume should be around -12dB
		{0.0, -200, -90}, // Zero volume should be very negative
	}

	for _, tt := range tests {
		db := volumeToDb(tt.vol)
		if db < tt.min || db > tt.max {
			t.Errorf("volumeToDb(%f) = %f, want between %f and %f", tt.vol, db, tt.min, tt.max)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0, 0, 1, 0},
		{1, 0, 1, 1},
	}

	for _, tt := range tests {
		got := clamp(tt.v, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%f, %f, %f) = %f, want %f", tt.v, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestNewManager(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New() returned nil")
	}

	if m.GetMasterVolume() != 1.0 {
		t.Errorf("default master volume = %f, want 1.0", m.GetMasterVolume())
	}
	if m.GetSFXVolume() != 1.0 {
		t.Errorf("default SFX volume = %f, want 1.0", m.GetSFXVolume())
	}
	if m.Muted() {
		t.Error("new manager is muted")
	}
	if m.IsInitialized() {
		t.Error("new manager reports initialized")
	}
}

func TestSetVolume(t *testing.T) {
	m := New()

	m.SetMasterVolume(0.5)
	if m.GetMasterVolume() != 0.5 {
		t.Errorf("master volume = %f, want 0.5", m.GetMasterVolume())
	}

	m.SetMasterVolume(2.0)
	if m.GetMasterVolume() != 1.0 {
		t.Errorf("master volume = %f, want 1.0 (clamped)", m.GetMasterVolume())
	}

	m.SetMasterVolume(-1.0)
	if m.GetMasterVolume() != 0.0 {
		t.Errorf("master volume = %f, want 0.0 (clamped)", m.GetMasterVolume())
	}
}

func TestEffectiveVolume(t *testing.T) {
	m := New()
	m.SetMasterVolume(0.5)
	m.SetSFXVolume(0.5)
	if got := m.effectiveVolume(); got != 0.25 {
		t.Errorf("effective volume = %f, want 0.25", got)
	}
	m.SetMuted(true)
	if got := m.effectiveVolume(); got != 0 {
		t.Errorf("muted effective volume = %f, want 0", got)
	}
}

func TestPlayBeforeInit(t *testing.T) {
	m := New()
	if err := m.Play(SoundDetonate); err == nil {
		t.Error("Play before Init should fail")
	}
}

func TestLoadWAVRejectsGarbage(t *testing.T) {
	m := New()
	if err := m.LoadWAV(SoundFire, []byte("not a wav file")); err == nil {
		t.Error("LoadWAV accepted invalid data")
	}
	if err := m.LoadWAV(Sound(42), nil); err == nil {
		t.Error("LoadWAV accepted an unknown sound")
	}
}

func TestBurst(t *testing.T) {
	for s := Sound(0); s < soundCount; s++ {
		t.Run(s.String(), func(t *testing.T) {
			shape := burstShapes[s]
			samples := burst(DefaultSampleRate, shape, 1)
			if want := DefaultSampleRate.N(shape.duration); len(samples) != want {
				t.Fatalf("len = %d, want %d", len(samples), want)
			}

			var head, tail float64
			quarter := len(samples) / 4
			for i, f := range samples {
				if f[0] != f[1] {
					t.Fatalf("frame %d is not mono: %v", i, f)
				}
				if math.Abs(f[0]) > 1 {
					t.Fatalf("frame %d clips: %v", i, f[0])
				}
				if i < quarter {
					head += f[0] * f[0]
				} else if i >= len(samples)-quarter {
					tail += f[0] * f[0]
				}
			}
			if head <= tail {
				t.Errorf("envelope does not decay: head energy %f, tail energy %f", head, tail)
			}
		})
	}
}

func TestBurstDeterministic(t *testing.T) {
	shape := burstShape{duration: 10 * time.Millisecond, decay: 0.01, gain: 1}
	a := burst(DefaultSampleRate, shape, 7)
	b := burst(DefaultSampleRate, shape, 7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("frame %d differs between runs", i)
		}
	}
}
