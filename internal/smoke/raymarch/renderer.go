// Package raymarch integrates light through the smoke volume, one ray per pixel.
package raymarch

import (
	"time"

	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/camera"
	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/Faultbox/voxsmoke/internal/engine/picking"
	"github.com/Faultbox/voxsmoke/internal/logger"
	"github.com/Faultbox/voxsmoke/internal/smoke/decal"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
	"go.uber.org/zap"
)

// Sources are the per-frame inputs of a render.
type Sources struct {
	Grid       Volume
	Noise      Noise
	Decals     []decal.GPUDecal
	SceneDepth *buffer.Image // linear view depth, nil for an empty scene
	Time       float32       // seconds, drives the noise scroll
}

// Targets receive the render. Albedo is premultiplied RGBA, Mask is opacity and Depth is
// the linear view depth of the first sample with density (+Inf where there is none).
type Targets struct {
	Albedo *buffer.Image
	Mask   *buffer.Image
	Depth  *buffer.Image
}

// NewTargets allocates render targets.
func NewTargets(prefix string, width, height int) Targets {
	return Targets{
		Albedo: buffer.NewImage(prefix+"-albedo", width, height, buffer.ChannelsRGBA),
		Mask:   buffer.NewImage(prefix+"-mask", width, height, buffer.ChannelsScalar),
		Depth:  buffer.NewImage(prefix+"-depth", width, height, buffer.ChannelsScalar),
	}
}

// Resize reallocates every target.
func (t Targets) Resize(width, height int) {
	t.Albedo.Resize(width, height)
	t.Mask.Resize(width, height)
	t.Depth.Resize(width, height)
}

// Release frees every target.
func (t Targets) Release() {
	t.Albedo.Release()
	t.Mask.Release()
	t.Depth.Release()
}

// Size returns the target resolution.
func (t Targets) Size() (width, height int) { return t.Albedo.Size() }

// Renderer dispatches one march per target pixel.
type Renderer struct {
	dispatcher *compute.Dispatcher
	log        *zap.Logger
}

// NewRenderer creates a renderer on the given dispatcher.
func NewRenderer(d *compute.Dispatcher) *Renderer {
	return &Renderer{dispatcher: d, log: logger.Named("raymarch")}
}

// Render marches every pixel of dst. The view viewport, dst and src.SceneDepth must
// share one resolution; mismatched sizes give garbage, not an error. A lazily
// allocated noise source is generated before the workers start.
func (r *Renderer) Render(view camera.View, src Sources, p Params, dst Targets) {
	start := time.Now()
	if n, ok := src.Noise.(preparer); ok {
		n.Prepare()
	}
	f := newField(src, &p)
	lightDir := p.LightDir.Normalize()

	r.dispatcher.Dispatch2D(view.Width, view.Height, func(x, y int) {
		ray := view.Ray(float32(x)+0.5, float32(y)+0.5)

		limit := view.Far
		if src.SceneDepth != nil {
			limit = view.RayDistance(src.SceneDepth.At(x, y, 0), ray.Direction)
		}

		var res result
		if p.Slice.Enabled {
			res = f.slice(ray, limit)
		} else {
			res = f.march(ray, limit, lightDir)
		}

		if res.hitDist < math32.Inf(1) {
			res.depth = view.LinearDepth(ray.At(res.hitDist))
		}

		a := dst.Albedo.Pixel(x, y)
		a[0], a[1], a[2], a[3] = res.color.X, res.color.Y, res.color.Z, res.opacity
		dst.Mask.Set(x, y, 0, res.opacity)
		dst.Depth.Set(x, y, 0, res.depth)
	})

	r.log.Debug("raymarch",
		zap.Int("width", view.Width),
		zap.Int("height", view.Height),
		zap.Int("decals", len(src.Decals)),
		logger.Took(start))
}

type result struct {
	color   math.Vec3
	opacity float32
	hitDist float32 // ray distance of the first dense sample
	depth   float32
	steps   int
}

func empty() result {
	inf := math32.Inf(1)
	return result{hitDist: inf, depth: inf}
}

// march integrates transmittance and in-scattering from the camera to limit.
func (f *field) march(ray picking.Ray, limit float32, lightDir math.Vec3) result {
	res := empty()
	tNear, tFar, hit := ray.ClipAABB(f.bounds)
	if !hit {
		return res
	}
	tFar = math32.Min(tFar, limit)

	p := f.p
	phase := p.Phase.Eval(ray.Direction.Dot(lightDir), p.G)
	transmittance := math.Splat(1)
	var radiance math.Vec3

	t := tNear + 0.5*p.StepSize
	for i := 0; i < p.StepCount && t < tFar; i++ {
		x := ray.At(t)
		t += p.StepSize
		res.steps++

		sigma := p.VolumeDensity * p.StepSize * f.raw(x)
		if sigma <= 0 {
			continue
		}
		if res.hitDist == math32.Inf(1) {
			res.hitDist = t - p.StepSize
		}

		stepT := expVec(p.Extinction.Scale(-sigma * p.Absorption))
		lightT := f.lightMarch(x, lightDir)
		inscatter := p.LightColor.Mul(lightT).Scale(phase).
			Add(p.AmbientColor).
			Mul(p.SmokeColor).
			Scale(p.Scattering)

		// Contribution weighted by the light removed in this step keeps radiance bounded.
		radiance = radiance.Add(transmittance.Mul(inscatter).Mul(math.Splat(1).Sub(stepT)))
		transmittance = transmittance.Mul(stepT)

		if mean(transmittance) < p.AlphaThreshold {
			break
		}
	}

	res.color = radiance
	res.opacity = math.Saturate(1 - mean(transmittance))
	return res
}

// lightMarch returns the per-channel transmittance from x towards the light.
func (f *field) lightMarch(x, lightDir math.Vec3) math.Vec3 {
	p := f.p
	if p.LightStepCount == 0 || p.ShadowDensity == 0 {
		return math.Splat(1)
	}
	var depth float32
	for i := 0; i < p.LightStepCount; i++ {
		s := x.Add(lightDir.Scale((float32(i) + 0.5) * p.LightStepSize))
		depth += f.raw(s)
	}
	depth *= p.VolumeDensity * p.LightStepSize * p.ShadowDensity
	return expVec(p.Extinction.Scale(-depth))
}

// slice paints raw density where the ray crosses the debug plane.
func (f *field) slice(ray picking.Ray, limit float32) result {
	res := empty()
	axis := f.p.Slice.Axis
	o := ray.Origin.Array()
	d := ray.Direction.Array()
	lo, hi := f.bounds.Min.Array(), f.bounds.Max.Array()
	if d[axis] == 0 {
		return res
	}
	plane := math.Lerp(lo[axis], hi[axis], math.Saturate(f.p.Slice.Position))
	t := (plane - o[axis]) / d[axis]
	if t < 0 || t > limit {
		return res
	}
	x := ray.At(t)
	if !f.bounds.Contains(x) {
		return res
	}
	v := f.raw(x)
	res.color = math.Splat(v)
	res.opacity = 1
	res.hitDist = t
	return res
}

func expVec(v math.Vec3) math.Vec3 {
	return math.Vec3{X: math32.Exp(v.X), Y: math32.Exp(v.Y), Z: math32.Exp(v.Z)}
}

func mean(v math.Vec3) float32 {
	return (v.X + v.Y + v.Z) / 3
}
