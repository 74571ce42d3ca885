// Package audio plays the smoke grenade sound effects.
package audio

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"go.uber.org/zap"

	"github.com/Faultbox/voxsmoke/internal/logger"
)

// DefaultSampleRate is the default sample rate for audio playback.
const DefaultSampleRate = beep.SampleRate(44100)

// Sound identifies one of the effect's sounds.
type Sound int

const (
	SoundDetonate Sound = iota // smoke grenade pop and hiss
	SoundFire                  // bullet passing through the cloud
	soundCount
)

func (s Sound) String() string {
	switch s {
	case SoundDetonate:
		return "detonate"
	case SoundFire:
		return "fire"
	}
	return fmt.Sprintf("Sound(%d)", int(s))
}

// Manager handles sound effect playback.
type Manager struct {
	mu sync.RWMutex

	initialized bool
	sampleRate  beep.SampleRate
	muted       bool

	// Volume settings (0.0 to 1.0)
	masterVolume float64
	sfxVolLevel  float64

	// SFX mixer for concurrent sound effects
	sfxMixer *beep.Mixer
	sounds   [soundCount]*beep.Buffer

	log *zap.Logger
}

// New creates a new audio manager.
func New() *Manager {
	return &Manager{
		sampleRate:   DefaultSampleRate,
		masterVolume: 1.0,
		sfxVolLevel:  1.0,
		sfxMixer:     &beep.Mixer{},
		log:          logger.Named("audio"),
	}
}

// Init initializes the speaker and fills every sound slot that has no WAV loaded
// with a generated noise burst.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30))
	if err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(m.sfxMixer)

	for s := Sound(0); s < soundCount; s++ {
		if m.sounds[s] == nil {
			m.sounds[s] = m.synthesize(s)
		}
	}

	m.initialized = true
	m.log.Info("audio initialized", zap.Int("sample_rate", int(m.sampleRate)))
	return nil
}

// Close shuts down the audio system.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}
	speaker.Clear()
	m.initialized = false
}

// IsInitialized returns whether the audio system is initialized.
func (m *Manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SetMasterVolume sets the master volume (0.0 to 1.0).
func (m *Manager) SetMasterVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterVolume = clamp(vol, 0, 1)
}

// SetSFXVolume sets the SFX volume (0.0 to 1.0).
func (m *Manager) SetSFXVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sfxVolLevel = clamp(vol, 0, 1)
}

// SetMuted silences all sounds.
func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

// GetMasterVolume returns the master volume.
func (m *Manager) GetMasterVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.masterVolume
}

// GetSFXVolume returns the SFX volume.
func (m *Manager) GetSFXVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sfxVolLevel
}

// Muted reports whether playback is muted.
func (m *Manager) Muted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.muted
}

// effectiveVolume is the linear gain applied to sound effects.
func (m *Manager) effectiveVolume() float64 {
	if m.muted {
		return 0
	}
	return m.masterVolume * m.sfxVolLevel
}

// LoadWAV decodes WAV data into the slot of sound s, resampling to the speaker rate.
func (m *Manager) LoadWAV(s Sound, data []byte) error {
	if s < 0 || s >= soundCount {
		return fmt.Errorf("unknown sound %v", s)
	}

	streamer, format, err := wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return fmt.Errorf("decode wav: %w", err)
	}
	defer streamer.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	var resampled beep.Streamer = streamer
	if format.SampleRate != m.sampleRate {
		resampled = beep.Resample(4, format.SampleRate, m.sampleRate, streamer)
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: m.sampleRate, NumChannels: 2, Precision: 2})
	buf.Append(resampled)
	m.sounds[s] = buf
	m.log.Debug("sound loaded", zap.Stringer("sound", s), zap.Int("samples", buf.Len()))
	return nil
}

// Play queues sound s on the mixer. Sounds overlap freely.
func (m *Manager) Play(s Sound) error {
	m.mu.RLock()
	initialized := m.initialized
	vol := m.effectiveVolume()
	var buf *beep.Buffer
	if s >= 0 && s < soundCount {
		buf = m.sounds[s]
	}
	m.mu.RUnlock()

	if !initialized {
		return fmt.Errorf("audio not initialized")
	}
	if buf == nil {
		return fmt.Errorf("sound %v not loaded", s)
	}
	if vol <= 0 {
		return nil
	}

	volStreamer := &effects.Volume{
		Streamer: buf.Streamer(0, buf.Len()),
		Base:     2,
		Volume:   volumeToDb(vol) / (20 * math.Log10(2)),
	}
	speaker.Lock()
	m.sfxMixer.Add(volStreamer)
	speaker.Unlock()
	return nil
}

// burstShape describes a generated noise burst.
type burstShape struct {
	duration time.Duration
	decay    float64 // envelope time constant in seconds
	smooth   float64 // one-pole low-pass coefficient, 0 = white noise
	gain     float64
}

var burstShapes = [soundCount]burstShape{
	SoundDetonate: {duration: 1500 * time.Millisecond, decay: 0.45, smooth: 0.85, gain: 0.6},
	SoundFire:     {duration: 120 * time.Millisecond, decay: 0.02, smooth: 0.1, gain: 0.8},
}

// burst renders a decaying filtered noise burst as stereo frames.
func burst(sr beep.SampleRate, shape burstShape, seed uint64) [][2]float64 {
	n := sr.N(shape.duration)
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([][2]float64, n)
	var lp float64
	for i := range out {
		t := float64(i) / float64(sr)
		env := math.Exp(-t / shape.decay)
		white := rng.Float64()*2 - 1
		lp = shape.smooth*lp + (1-shape.smooth)*white
		v := clamp(lp*env*shape.gain, -1, 1)
		out[i] = [2]float64{v, v}
	}
	return out
}

func (m *Manager) synthesize(s Sound) *beep.Buffer {
	samples := burst(m.sampleRate, burstShapes[s], uint64(s)+1)
	pos := 0
	stream := beep.StreamerFunc(func(dst [][2]float64) (int, bool) {
		if pos >= len(samples) {
			return 0, false
		}
		n := copy(dst, samples[pos:])
		pos += n
		return n, true
	})
	buf := beep.NewBuffer(beep.Format{SampleRate: m.sampleRate, NumChannels: 2, Precision: 2})
	buf.Append(beep.Take(len(samples), stream))
	return buf
}

// volumeToDb converts a 0-1 volume to decibel scale.
func volumeToDb(vol float64) float64 {
	if vol <= 0 {
		return -100 // Effectively silent
	}
	// vol=1 -> 0dB, vol=0.5 -> -6dB, vol=0.25 -> -12dB
	return 20 * math.Log10(vol)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
