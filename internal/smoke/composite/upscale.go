package composite

import (
	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/Faultbox/voxsmoke/internal/smoke/raymarch"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
)

// kernel is a Mitchell-Netravali cubic with parameters B and C.
type kernel struct {
	b, c float32
}

// sharpKernel maps sharpness 0..1 onto the B/C family: 0 is the soft B-spline,
// 1 leans on the negative lobes.
func sharpKernel(sharpness float32) kernel {
	s := math.Saturate(sharpness)
	return kernel{b: 1 - s, c: s / 2}
}

func (k kernel) weight(x float32) float32 {
	x = math32.Abs(x)
	b, c := k.b, k.c
	switch {
	case x < 1:
		return ((12-9*b-6*c)*x*x*x + (-18+12*b+6*c)*x*x + (6 - 2*b)) / 6
	case x < 2:
		return ((-b-6*c)*x*x*x + (6*b+30*c)*x*x + (-12*b-48*c)*x + (8*b + 24*c)) / 6
	}
	return 0
}

// sampleBicubic filters channel ch of src at continuous pixel coordinates (centres at +0.5).
func (k kernel) sample(src *buffer.Image, x, y float32, ch int) float32 {
	x -= 0.5
	y -= 0.5
	fx, fy := math32.Floor(x), math32.Floor(y)
	tx, ty := x-fx, y-fy
	ix, iy := int(fx), int(fy)

	var wx, wy [4]float32
	for i := 0; i < 4; i++ {
		wx[i] = k.weight(float32(i-1) - tx)
		wy[i] = k.weight(float32(i-1) - ty)
	}

	var sum, wsum float32
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			w := wx[i] * wy[j]
			sum += w * src.AtClamped(ix+i-1, iy+j-1, ch)
			wsum += w
		}
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

// upscale reconstructs src into dst (one octave). Albedo and mask are filtered,
// depth is point sampled because it holds +Inf where there is no smoke.
func upscale(d *compute.Dispatcher, src, dst raymarch.Targets, filter Filter, sharpness float32) {
	sw, sh := src.Size()
	dw, dh := dst.Size()
	sx := float32(sw) / float32(dw)
	sy := float32(sh) / float32(dh)
	k := sharpKernel(sharpness)

	d.Dispatch2D(dw, dh, func(x, y int) {
		u := (float32(x) + 0.5) * sx
		v := (float32(y) + 0.5) * sy

		px := dst.Albedo.Pixel(x, y)
		for ch := 0; ch < buffer.ChannelsRGBA; ch++ {
			var val float32
			if filter == Bicubic {
				val = k.sample(src.Albedo, u, v, ch)
			} else {
				val = src.Albedo.SampleBilinear(u, v, ch)
			}
			px[ch] = math32.Max(val, 0)
		}

		var m float32
		if filter == Bicubic {
			m = k.sample(src.Mask, u, v, 0)
		} else {
			m = src.Mask.SampleBilinear(u, v, 0)
		}
		dst.Mask.Set(x, y, 0, math.Saturate(m))

		dst.Depth.Set(x, y, 0, src.Depth.AtClamped(int(u), int(v), 0))
	})
}

// downsampleDepth point samples src at the centre of each dst pixel's footprint.
func downsampleDepth(d *compute.Dispatcher, src, dst *buffer.Image) {
	sx := float32(src.W) / float32(dst.W)
	sy := float32(src.H) / float32(dst.H)
	d.Dispatch2D(dst.W, dst.H, func(x, y int) {
		u := int((float32(x) + 0.5) * sx)
		v := int((float32(y) + 0.5) * sy)
		dst.Set(x, y, 0, src.AtClamped(u, v, 0))
	})
}
