package debug

import (
	"image"
	"image/color"

	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/chewxy/math32"
)

// EncodeSRGB converts a linear value to an 8-bit sRGB channel.
func EncodeSRGB(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	var s float32
	if v <= 0.0031308 {
		s = v * 12.92
	} else {
		s = 1.055*math32.Pow(v, 1/2.4) - 0.055
	}
	return uint8(s*255 + 0.5)
}

// ToRGBA converts a linear RGBA image to sRGB with the given exposure and a Reinhard
// curve. Alpha is dropped.
func ToRGBA(im *buffer.Image, exposure float32) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, im.W, im.H))
	for y := 0; y < im.H; y++ {
		for x := 0; x < im.W; x++ {
			var c [3]uint8
			for ch := 0; ch < 3 && ch < im.C; ch++ {
				v := im.At(x, y, ch) * exposure
				c[ch] = EncodeSRGB(v / (1 + v))
			}
			if im.C == 1 {
				c[1], c[2] = c[0], c[0]
			}
			out.SetRGBA(x, y, color.RGBA{c[0], c[1], c[2], 255})
		}
	}
	return out
}

// Gray maps channel 0 to grey: value 0 is black and scale is white. Values beyond scale
// and +Inf saturate.
func Gray(im *buffer.Image, scale float32) *image.Gray {
	if scale <= 0 {
		scale = 1
	}
	out := image.NewGray(image.Rect(0, 0, im.W, im.H))
	for y := 0; y < im.H; y++ {
		for x := 0; x < im.W; x++ {
			v := im.At(x, y, 0) / scale
			out.SetGray(x, y, color.Gray{Y: unit8(v)})
		}
	}
	return out
}

func unit8(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
