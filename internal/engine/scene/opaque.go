package scene

import (
	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/camera"
	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/Faultbox/voxsmoke/internal/engine/picking"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
)

// OpaqueTargets are the images produced by RenderOpaque.
// Color is RGBA linear light, Depth is single-channel linear view depth (view.Far where
// nothing is hit).
type OpaqueTargets struct {
	Color *buffer.Image
	Depth *buffer.Image
}

// NewOpaqueTargets allocates color and depth images of the given size.
func NewOpaqueTargets(width, height int) OpaqueTargets {
	return OpaqueTargets{
		Color: buffer.NewImage("scene-color", width, height, buffer.ChannelsRGBA),
		Depth: buffer.NewImage("scene-depth", width, height, buffer.ChannelsScalar),
	}
}

// Resize reallocates both images.
func (t OpaqueTargets) Resize(width, height int) {
	t.Color.Resize(width, height)
	t.Depth.Resize(width, height)
}

// Release frees both images.
func (t OpaqueTargets) Release() {
	t.Color.Release()
	t.Depth.Release()
}

// RenderOpaque ray casts the scene once per pixel: lambert shading with sun shadows,
// sky gradient on misses. Targets must match the view's viewport.
func (s *Scene) RenderOpaque(d *compute.Dispatcher, view camera.View, targets OpaqueTargets) {
	sunDir := s.Sun.Direction()
	radiance := s.Sun.Radiance()

	d.Dispatch2D(view.Width, view.Height, func(x, y int) {
		ray := view.Ray(float32(x)+0.5, float32(y)+0.5)
		px := targets.Color.Pixel(x, y)

		hit, ok := s.Raycast(ray, view.Far)
		if !ok {
			sky := s.sky(ray.Direction)
			px[0], px[1], px[2], px[3] = sky.X, sky.Y, sky.Z, 1
			targets.Depth.Set(x, y, 0, view.Far)
			return
		}

		light := s.Sun.Ambient
		ndl := hit.Normal.Dot(sunDir)
		if ndl > 0 {
			shadowRay := picking.Ray{Origin: hit.Point.Add(hit.Normal.Scale(1e-3)), Direction: sunDir}
			if !s.Occluded(shadowRay, view.Far) {
				light = light.Add(radiance.Scale(ndl / math32.Pi))
			}
		}
		c := hit.Mesh.Color.Mul(light)
		px[0], px[1], px[2], px[3] = c.X, c.Y, c.Z, 1
		targets.Depth.Set(x, y, 0, view.LinearDepth(hit.Point))
	})
}

func (s *Scene) sky(dir math.Vec3) math.Vec3 {
	t := math.Saturate(dir.Y)
	return s.SkyHorizon.Lerp(s.SkyZenith, t)
}
