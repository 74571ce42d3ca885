package debug

import (
	"image"
	"image/color"

	"github.com/Faultbox/voxsmoke/internal/smoke/noise"
	"github.com/Faultbox/voxsmoke/internal/smoke/voxel"
	"golang.org/x/image/draw"
)

// Voxel slice colours.
var (
	StaticColor = color.RGBA{200, 60, 50, 255}
	EmptyColor  = color.RGBA{16, 16, 20, 255}
)

// VoxelSlice draws one slice of the grid occupancy. axis selects the slice normal
// (0 = x, 1 = y, 2 = z). Obstacles are red, smoke is grey and brightest at the seed.
// Image rows run towards -Y or -Z so the slice reads like the world.
func VoxelSlice(g *voxel.Grid, axis, index int) *image.RGBA {
	nx, ny, nz := g.Resolution()

	// (u, v) image axes for each slice normal.
	w, h := nx, ny
	switch axis {
	case 0:
		w, h = nz, ny
	case 1:
		w, h = nx, nz
	}

	maxFill := int32(1)
	fill := g.Fill()
	for _, f := range fill {
		maxFill = max(maxFill, f)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for v := 0; v < h; v++ {
		for u := 0; u < w; u++ {
			var i, j, k int
			switch axis {
			case 0:
				i, j, k = index, h-1-v, u
			case 1:
				i, j, k = u, index, v
			default:
				i, j, k = u, h-1-v, index
			}
			if i < 0 || j < 0 || k < 0 || i >= nx || j >= ny || k >= nz {
				img.SetRGBA(u, v, EmptyColor)
				continue
			}

			switch f := g.FillAt(i, j, k); {
			case g.IsStatic(i, j, k):
				img.SetRGBA(u, v, StaticColor)
			case f > 0:
				shade := uint8(255 - 175*(f-1)/maxFill)
				img.SetRGBA(u, v, color.RGBA{shade, shade, shade, 255})
			default:
				img.SetRGBA(u, v, EmptyColor)
			}
		}
	}
	return img
}

// NoiseSlice draws z slice k of the noise volume in grey.
func NoiseSlice(f *noise.Field, k int) *image.Gray {
	data, w, h := f.Slice(k)
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range data {
		img.Pix[i] = unit8(v)
	}
	return img
}

// Scale resizes src by an integer factor. Nearest keeps voxel edges crisp; otherwise
// Catmull-Rom is used.
func Scale(src image.Image, factor int, nearest bool) *image.RGBA {
	if factor < 1 {
		factor = 1
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))

	var s draw.Scaler = draw.CatmullRom
	if nearest {
		s = draw.NearestNeighbor
	}
	s.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
