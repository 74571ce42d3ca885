package debug

import (
	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/camera"
	"github.com/Faultbox/voxsmoke/internal/engine/picking"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
)

// BoxEdgeCount is the number of edges of a box wireframe.
const BoxEdgeCount = 12

// BoxEdges returns the 12 edges of box as endpoint pairs: bottom face, top face, then the
// vertical edges.
func BoxEdges(box picking.AABB) [BoxEdgeCount][2]math.Vec3 {
	lo, hi := box.Min, box.Max
	c := func(x, y, z bool) math.Vec3 {
		p := lo
		if x {
			p.X = hi.X
		}
		if y {
			p.Y = hi.Y
		}
		if z {
			p.Z = hi.Z
		}
		return p
	}
	return [BoxEdgeCount][2]math.Vec3{
		{c(false, false, false), c(true, false, false)},
		{c(true, false, false), c(true, false, true)},
		{c(true, false, true), c(false, false, true)},
		{c(false, false, true), c(false, false, false)},
		{c(false, true, false), c(true, true, false)},
		{c(true, true, false), c(true, true, true)},
		{c(true, true, true), c(false, true, true)},
		{c(false, true, true), c(false, true, false)},
		{c(false, false, false), c(false, true, false)},
		{c(true, false, false), c(true, true, false)},
		{c(true, false, true), c(true, true, true)},
		{c(false, false, true), c(false, true, true)},
	}
}

// DrawBox draws the wireframe of box over an RGBA image. Edges crossing the near plane
// are skipped.
func DrawBox(im *buffer.Image, view camera.View, box picking.AABB, rgb math.Vec3) {
	for _, e := range BoxEdges(box) {
		DrawLine(im, view, e[0], e[1], rgb)
	}
}

// DrawLine draws a world-space segment over an RGBA image.
func DrawLine(im *buffer.Image, view camera.View, a, b math.Vec3, rgb math.Vec3) {
	x0, y0, ok0 := view.Project(a)
	x1, y1, ok1 := view.Project(b)
	if !ok0 || !ok1 {
		return
	}
	steps := int(math32.Max(math32.Abs(x1-x0), math32.Abs(y1-y0))) + 1
	if steps > 4*(im.W+im.H) {
		steps = 4 * (im.W + im.H)
	}
	for s := 0; s <= steps; s++ {
		t := float32(s) / float32(steps)
		plot(im, int(math.Lerp(x0, x1, t)), int(math.Lerp(y0, y1, t)), rgb)
	}
}

// DrawMarker draws a small cross at a world point.
func DrawMarker(im *buffer.Image, view camera.View, p math.Vec3, size int, rgb math.Vec3) {
	x, y, ok := view.Project(p)
	if !ok {
		return
	}
	cx, cy := int(x), int(y)
	for d := -size; d <= size; d++ {
		plot(im, cx+d, cy, rgb)
		plot(im, cx, cy+d, rgb)
	}
}

func plot(im *buffer.Image, x, y int, rgb math.Vec3) {
	if x < 0 || y < 0 || x >= im.W || y >= im.H || im.C < 3 {
		return
	}
	px := im.Pixel(x, y)
	px[0], px[1], px[2] = rgb.X, rgb.Y, rgb.Z
}
