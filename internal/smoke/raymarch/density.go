package raymarch

import (
	"github.com/Faultbox/voxsmoke/internal/engine/picking"
	"github.com/Faultbox/voxsmoke/internal/smoke/decal"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
)

// Volume is the read side of the voxel grid.
type Volume interface {
	Bounds() picking.AABB
	SampleFill(p math.Vec3) float32
	Origin() math.Vec3
	Radius() math.Vec3
}

// Noise is the read side of the noise field.
type Noise interface {
	SampleSigned(uvw math.Vec3) float32
}

// preparer is implemented by noise sources that allocate lazily. Prepare runs
// once per frame before any worker samples.
type preparer interface {
	Prepare()
}

// warpOffset decorrelates the warp lookup from the density lookup.
var warpOffset = math.Vec3{X: 0.37, Y: 0.71, Z: 0.13}

// field evaluates the implicit density for one frame. It is read-only once built.
type field struct {
	grid   Volume
	noise  Noise
	decals []decal.GPUDecal
	bounds picking.AABB
	origin math.Vec3
	radius math.Vec3
	scroll math.Vec3
	p      *Params
}

func newField(src Sources, p *Params) *field {
	return &field{
		grid:   src.Grid,
		noise:  src.Noise,
		decals: src.Decals,
		bounds: src.Grid.Bounds(),
		origin: src.Grid.Origin(),
		radius: src.Grid.Radius(),
		scroll: p.NoiseScroll.Scale(src.Time),
		p:      p,
	}
}

// mask is the shape occupancy in [0, 1] before noise.
func (f *field) mask(x math.Vec3) float32 {
	if !f.bounds.Contains(x) {
		return 0
	}

	m := f.grid.SampleFill(x)
	if m > 0 && f.p.DensityFalloff > 0 {
		m *= f.falloff(x)
	}
	if f.p.Shape.Kind != ShapeNone {
		m = math32.Max(m, f.shapeMask(x))
	}
	if m <= 0 {
		return 0
	}
	for i := range f.decals {
		m *= carve(&f.decals[i], x)
		if m <= 0 {
			return 0
		}
	}
	return m
}

// falloff thins the smoke towards the edge of the growth ellipsoid.
func (f *field) falloff(x math.Vec3) float32 {
	if f.radius.X <= 0 || f.radius.Y <= 0 || f.radius.Z <= 0 {
		return 0
	}
	d2 := x.Sub(f.origin).Div(f.radius).LengthSq()
	return math32.Pow(math.Saturate(1-d2), f.p.DensityFalloff)
}

func (f *field) shapeMask(x math.Vec3) float32 {
	s := &f.p.Shape
	local := x.Sub(f.origin.Add(s.Offset))
	var sdf float32
	switch s.Kind {
	case ShapeSphere:
		sdf = local.Length() - s.Size.X
	case ShapeBox:
		q := local.Abs().Sub(s.Size)
		sdf = q.Max(math.Vec3{}).Length() + math32.Min(q.MaxComponent(), 0)
	default:
		return 0
	}
	if s.Softness <= 0 {
		if sdf <= 0 {
			return 1
		}
		return 0
	}
	return math.Saturate(-sdf / s.Softness)
}

// carve returns 0 inside a decal tunnel core and 1 outside it.
func carve(d *decal.GPUDecal, x math.Vec3) float32 {
	o := math.FromArray(d.Origin)
	fwd := math.FromArray(d.Forward)
	rel := x.Sub(o)
	s := rel.Dot(fwd)
	if s < 0 || s > d.Depth || d.Depth <= 0 {
		return 1
	}
	r := math.Lerp(d.Radii[0], d.Radii[1], s/d.Depth)
	if r <= 0 {
		return 1
	}
	perp := rel.Sub(fwd.Scale(s)).Length()
	return math.SmoothStep(r*0.75, r, perp)
}

// noiseAt returns the signed, warped noise at x.
func (f *field) noiseAt(x math.Vec3) float32 {
	if f.noise == nil || f.p.NoiseStrength == 0 {
		return 0
	}
	uvw := x.Scale(f.p.NoiseScale).Add(f.scroll)
	if f.p.NoiseWarp != 0 {
		w := f.noise.SampleSigned(uvw.Scale(0.5).Add(warpOffset))
		uvw = uvw.Add(math.Splat(w * f.p.NoiseWarp * f.p.NoiseScale))
	}
	return f.noise.SampleSigned(uvw)
}

// raw is the unscaled density (mask modulated by noise), clamped non-negative.
func (f *field) raw(x math.Vec3) float32 {
	m := f.mask(x)
	if m <= 0 {
		return 0
	}
	return math32.Max(0, m*(1+f.p.NoiseStrength*f.noiseAt(x)))
}
