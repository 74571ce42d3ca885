// Package decal keeps a small fixed pool of bullet-hole perturbations that carve
// tunnels through the smoke and close again over their lifetime.
package decal

import (
	"math/rand/v2"

	"github.com/Faultbox/voxsmoke/internal/logger"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

// DefaultCapacity is the pool size used when none is configured.
const DefaultCapacity = 8

// Config holds the pool settings.
type Config struct {
	Capacity int
	Speed    float32    // lifetime multiplier; 1 gives lifetimes between 1.1 and 10 seconds
	Jitter   float32    // per-component forward jitter
	MaxRadii [2]float32 // entry and exit tunnel radius at full opening
	Depth    float32    // tunnel length along forward
	Seed     uint64
}

// DefaultConfig returns the pool defaults.
func DefaultConfig() Config {
	return Config{
		Capacity: DefaultCapacity,
		Speed:    1,
		Jitter:   0.02,
		MaxRadii: [2]float32{0.35, 0.6},
		Depth:    15,
		Seed:     1,
	}
}

// Slot is one pool entry.
type Slot struct {
	Active  bool
	T       float32 // age in [0, 1]
	Origin  math.Vec3
	Forward math.Vec3
	Radii   [2]float32
}

// GPUDecal is the compact upload layout of an active decal.
type GPUDecal struct {
	Origin  [3]float32
	Forward [3]float32
	Radii   [2]float32
	Depth   float32
}

// Pool owns the slots and the compact upload array.
type Pool struct {
	cfg    Config
	slots  []Slot
	active []GPUDecal
	rng    *rand.Rand
	log    *zap.Logger
}

// NewPool creates a pool with every slot inactive.
func NewPool(cfg Config) *Pool {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	p := &Pool{
		cfg:    cfg,
		slots:  make([]Slot, cfg.Capacity),
		active: make([]GPUDecal, 0, cfg.Capacity),
		rng:    rand.New(rand.NewPCG(cfg.Seed, 0x5eed)),
		log:    logger.Named("decal"),
	}
	return p
}

// Capacity returns the slot count.
func (p *Pool) Capacity() int { return len(p.slots) }

// Slots exposes the slots (read-only for consumers).
func (p *Pool) Slots() []Slot { return p.slots }

// Reset deactivates every slot.
func (p *Pool) Reset() {
	for i := range p.slots {
		p.slots[i] = Slot{}
	}
	p.rebuild()
}

// Trigger activates the first inactive slot. Returns false when the pool is full.
func (p *Pool) Trigger(origin, forward math.Vec3) bool {
	for i := range p.slots {
		s := &p.slots[i]
		if s.Active {
			continue
		}
		jitter := math.Vec3{
			X: (p.rng.Float32()*2 - 1) * p.cfg.Jitter,
			Y: (p.rng.Float32()*2 - 1) * p.cfg.Jitter,
			Z: (p.rng.Float32()*2 - 1) * p.cfg.Jitter,
		}
		fwd := forward.Add(jitter).Normalize()
		if fwd == (math.Vec3{}) {
			fwd = math.Vec3{Z: -1}
		}
		*s = Slot{
			Active:  true,
			Origin:  origin,
			Forward: fwd,
			Radii:   p.radii(0),
		}
		p.rebuild()
		p.log.Debug("decal triggered", zap.Int("slot", i))
		return true
	}
	p.log.Debug("decal pool full, trigger dropped")
	return false
}

// Advance ages every active slot by dt scaled by a fresh random factor in [0.1, 0.9).
func (p *Pool) Advance(dt float32) {
	for i := range p.slots {
		s := &p.slots[i]
		if !s.Active {
			continue
		}
		s.T += dt * (0.1 + 0.8*p.rng.Float32()) * p.cfg.Speed
		if s.T > 1 {
			*s = Slot{}
			continue
		}
		s.Radii = p.radii(s.T)
	}
	p.rebuild()
}

func (p *Pool) radii(t float32) [2]float32 {
	c := Curve(t)
	return [2]float32{p.cfg.MaxRadii[0] * c, p.cfg.MaxRadii[1] * c}
}

// Curve opens fast and settles slowly: 1-(1-2t)^15 up to t=0.25, then a quadratic close.
func Curve(t float32) float32 {
	t = math.Saturate(t)
	if t < 0.25 {
		return 1 - math32.Pow(1-2*t, 15)
	}
	u := (t - 0.25) / 0.75
	return 1 - u*u
}

func (p *Pool) rebuild() {
	p.active = p.active[:0]
	for _, s := range p.slots {
		if !s.Active {
			continue
		}
		p.active = append(p.active, GPUDecal{
			Origin:  s.Origin.Array(),
			Forward: s.Forward.Array(),
			Radii:   s.Radii,
			Depth:   p.cfg.Depth,
		})
	}
}

// Active returns the compact array of active decals. Valid until the next mutation.
func (p *Pool) Active() []GPUDecal { return p.active }

// Count returns the number of active decals.
func (p *Pool) Count() int { return len(p.active) }
