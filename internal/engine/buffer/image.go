package buffer

import "github.com/chewxy/math32"

// Channel counts used by the pipeline's render targets.
const (
	ChannelsScalar = 1
	ChannelsRGBA   = 4
)

// Image is a 2-D float32 render target with a fixed number of interleaved channels.
// Row 0 is the top of the screen.
type Image struct {
	name     string
	W, H, C  int
	data     []float32
	released bool
}

// NewImage allocates a zeroed image. Dimensions below 1 are clamped to 1.
func NewImage(name string, w, h, channels int) *Image {
	w, h, channels = atLeastOne(w), atLeastOne(h), atLeastOne(channels)
	return &Image{name: name, W: w, H: h, C: channels, data: make([]float32, w*h*channels)}
}

// Name returns the debug name given at creation.
func (im *Image) Name() string { return im.name }

// Data exposes the backing slice.
func (im *Image) Data() []float32 { return im.data }

// Size returns the image dimensions.
func (im *Image) Size() (w, h int) { return im.W, im.H }

// Offset returns the index of channel 0 of pixel (x, y).
func (im *Image) Offset(x, y int) int {
	return (y*im.W + x) * im.C
}

// At returns channel c of pixel (x, y).
func (im *Image) At(x, y, c int) float32 {
	return im.data[im.Offset(x, y)+c]
}

// Set writes channel c of pixel (x, y).
func (im *Image) Set(x, y, c int, v float32) {
	im.data[im.Offset(x, y)+c] = v
}

// Pixel returns the channel slice of pixel (x, y). Writes go to the image.
func (im *Image) Pixel(x, y int) []float32 {
	o := im.Offset(x, y)
	return im.data[o : o+im.C]
}

// Fill sets every pixel to the given channel values (missing channels become zero).
func (im *Image) Fill(values ...float32) {
	for o := 0; o < len(im.data); o += im.C {
		for c := 0; c < im.C; c++ {
			if c < len(values) {
				im.data[o+c] = values[c]
			} else {
				im.data[o+c] = 0
			}
		}
	}
}

// Resize reallocates when the size changes. Contents are zeroed either way.
func (im *Image) Resize(w, h int) {
	w, h = atLeastOne(w), atLeastOne(h)
	im.released = false
	if w == im.W && h == im.H && im.data != nil {
		for i := range im.data {
			im.data[i] = 0
		}
		return
	}
	im.W, im.H = w, h
	im.data = make([]float32, w*h*im.C)
}

// Release drops the backing storage.
func (im *Image) Release() {
	if im.released {
		return
	}
	im.data = nil
	im.released = true
}

// Released reports whether Release was called since the last allocation.
func (im *Image) Released() bool { return im.released }

// AtClamped returns channel c with clamp-to-edge addressing.
func (im *Image) AtClamped(x, y, c int) float32 {
	return im.At(clampIndex(x, im.W), clampIndex(y, im.H), c)
}

// SampleBilinear samples channel c at continuous pixel coordinates (pixel centres at +0.5).
func (im *Image) SampleBilinear(x, y float32, c int) float32 {
	x -= 0.5
	y -= 0.5
	fx, fy := math32.Floor(x), math32.Floor(y)
	tx, ty := x-fx, y-fy
	x0, y0 := int(fx), int(fy)

	a := im.AtClamped(x0, y0, c)
	b := im.AtClamped(x0+1, y0, c)
	d := im.AtClamped(x0, y0+1, c)
	e := im.AtClamped(x0+1, y0+1, c)

	top := a + (b-a)*tx
	bottom := d + (e-d)*tx
	return top + (bottom-top)*ty
}
