// Package noise bakes a tileable 3-D fractal value-noise volume.
package noise

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/Faultbox/voxsmoke/internal/logger"
	smath "github.com/Faultbox/voxsmoke/pkg/math"
	"go.uber.org/zap"
)

// Field owns the noise volume. Generation is the only writer.
//
// Sample may be called from many goroutines at once. The first sample of an
// unallocated field generates it once under mu; callers that sample from pool
// workers should call Prepare beforehand so that generation is dispatched in parallel.
type Field struct {
	dispatcher *compute.Dispatcher
	log        *zap.Logger

	mu    sync.Mutex
	ready atomic.Bool // volume allocated and generated

	params     Params
	pending    Params
	dirty      bool
	volume     *buffer.Volume
	generation int
}

// NewField creates a field with the given parameters. The volume is allocated lazily.
func NewField(d *compute.Dispatcher, params Params) *Field {
	return &Field{
		dispatcher: d,
		log:        logger.Named("noise"),
		params:     params.normalized(),
		pending:    params.normalized(),
		dirty:      true,
	}
}

// Params returns the parameters of the current volume (or the pending ones before first generation).
func (f *Field) Params() Params { return f.params }

// Dirty reports whether a regeneration has been requested.
func (f *Field) Dirty() bool { return f.dirty }

// Generation counts completed regenerations.
func (f *Field) Generation() int { return f.generation }

// Volume returns the backing volume, or nil before the first generation.
func (f *Field) Volume() *buffer.Volume { return f.volume }

// Request schedules a regeneration with new parameters.
func (f *Field) Request(params Params) {
	f.pending = params.normalized()
	f.dirty = true
}

// Update regenerates the volume if a regeneration is pending. Returns true if it ran.
func (f *Field) Update() bool {
	if !f.dirty {
		return false
	}
	f.Generate(f.pending)
	return true
}

// Generate bakes the volume with params, fully replacing the previous contents.
// Allocates the volume on first use and reallocates on resolution change.
func (f *Field) Generate(params Params) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generate(params, f.dispatcher.Dispatch3D)
}

// generate bakes the volume through dispatch. Callers hold mu.
func (f *Field) generate(params Params, dispatch func(nx, ny, nz int, fn func(i, j, k int))) {
	p := params.normalized()
	start := time.Now()

	n := p.Resolution
	switch {
	case f.volume == nil:
		f.volume = buffer.NewVolume("noise", n, n, n)
	case f.volume.NX != n || f.volume.Released():
		f.volume.Resize(n, n, n)
	}

	periods := octavePeriods(p)
	inv := 1 / float32(n)
	vol := f.volume
	dispatch(n, n, n, func(i, j, k int) {
		uvw := smath.Vec3{
			X: (float32(i) + 0.5) * inv,
			Y: (float32(j) + 0.5) * inv,
			Z: (float32(k) + 0.5) * inv,
		}
		vol.Set(i, j, k, fbm(uvw, p, periods))
	})

	f.params = p
	f.pending = p
	f.dirty = false
	f.generation++
	f.ready.Store(true)

	f.log.Debug("noise generated",
		zap.Int("resolution", n),
		zap.Int("octaves", p.Octaves),
		zap.Uint32("seed", p.Seed),
		logger.Took(start))
}

// Prepare generates the volume if it has none. Renderers call it before sampling
// from pool workers.
func (f *Field) Prepare() {
	f.ensureWith(f.dispatcher.Dispatch3D)
}

// ensure is the lazy path of Sample. It may run inside a pool task, so it never
// dispatches and bakes the volume on the calling goroutine instead.
func (f *Field) ensure() {
	f.ensureWith(serial3D)
}

func (f *Field) ensureWith(dispatch func(nx, ny, nz int, fn func(i, j, k int))) {
	if f.ready.Load() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ready.Load() {
		f.generate(f.pending, dispatch)
	}
}

func serial3D(nx, ny, nz int, fn func(i, j, k int)) {
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				fn(i, j, k)
			}
		}
	}
}

// Sample returns the noise at uvw in tile units with wrap addressing (0..1 spans the volume).
func (f *Field) Sample(uvw smath.Vec3) float32 {
	f.ensure()
	n := float32(f.volume.NX)
	return f.volume.SampleRepeat(uvw.X*n, uvw.Y*n, uvw.Z*n)
}

// SampleSigned maps Sample from [0,1] to [-1,1].
func (f *Field) SampleSigned(uvw smath.Vec3) float32 {
	return f.Sample(uvw)*2 - 1
}

// Slice copies the z slice k into a row-major w×h float slice (for debug views).
func (f *Field) Slice(k int) (data []float32, w, h int) {
	f.ensure()
	v := f.volume
	k = smath.Wrap(k, v.NZ)
	data = make([]float32, v.NX*v.NY)
	for j := 0; j < v.NY; j++ {
		for i := 0; i < v.NX; i++ {
			data[j*v.NX+i] = v.At(i, j, k)
		}
	}
	return data, v.NX, v.NY
}

// Release frees the volume. Safe to call more than once; a later Sample reallocates.
func (f *Field) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.volume == nil {
		return
	}
	f.ready.Store(false)
	f.volume.Release()
	f.dirty = true
}
