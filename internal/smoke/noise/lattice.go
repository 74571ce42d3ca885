package noise

import (
	smath "github.com/Faultbox/voxsmoke/pkg/math"
	"github.com/chewxy/math32"
)

// hash3 maps a lattice point and a salt to [0, 1).
func hash3(x, y, z int, salt uint32) float32 {
	h := uint32(x)*0x8da6b343 ^ uint32(y)*0xd8163841 ^ uint32(z)*0xcb1ab31f ^ salt*0x165667b1
	h ^= h >> 15
	h *= 0x2c1b3c6d
	h ^= h >> 12
	h *= 0x297a2d39
	h ^= h >> 15
	return float32(h>>8) / float32(1<<24)
}

// valueNoise samples a periodic value-noise lattice at q (in lattice cells).
// The lattice repeats every period cells on each axis.
func valueNoise(q smath.Vec3, period int, salt uint32) float32 {
	fx, fy, fz := math32.Floor(q.X), math32.Floor(q.Y), math32.Floor(q.Z)
	tx, ty, tz := fade(q.X-fx), fade(q.Y-fy), fade(q.Z-fz)

	x0 := smath.Wrap(int(fx), period)
	y0 := smath.Wrap(int(fy), period)
	z0 := smath.Wrap(int(fz), period)
	x1 := smath.Wrap(x0+1, period)
	y1 := smath.Wrap(y0+1, period)
	z1 := smath.Wrap(z0+1, period)

	c000 := hash3(x0, y0, z0, salt)
	c100 := hash3(x1, y0, z0, salt)
	c010 := hash3(x0, y1, z0, salt)
	c110 := hash3(x1, y1, z0, salt)
	c001 := hash3(x0, y0, z1, salt)
	c101 := hash3(x1, y0, z1, salt)
	c011 := hash3(x0, y1, z1, salt)
	c111 := hash3(x1, y1, z1, salt)

	c00 := smath.Lerp(c000, c100, tx)
	c10 := smath.Lerp(c010, c110, tx)
	c01 := smath.Lerp(c001, c101, tx)
	c11 := smath.Lerp(c011, c111, tx)
	return smath.Lerp(smath.Lerp(c00, c10, ty), smath.Lerp(c01, c11, ty), tz)
}

func fade(t float32) float32 {
	return t * t * (3 - 2*t)
}

// octavePeriods returns the lattice period (cells per tile) of each octave.
// Periods are whole numbers so every octave tiles at the volume resolution.
func octavePeriods(p Params) []int {
	base := float32(p.Resolution) / float32(p.CellSize)
	periods := make([]int, p.Octaves)
	f := float32(1)
	for o := range periods {
		n := int(base*f + 0.5)
		if n < 1 {
			n = 1
		}
		periods[o] = n
		f *= p.Frequency
	}
	return periods
}

// fbm evaluates the fractal sum at uvw, a position in tile units ([0,1) covers the volume).
func fbm(uvw smath.Vec3, p Params, periods []int) float32 {
	if p.Warp != 0 {
		// Warp offsets come from the first octave lattice with separate salts,
		// so the displacement field tiles with the volume.
		q := uvw.Scale(float32(periods[0]))
		w := smath.Vec3{
			X: valueNoise(q, periods[0], p.Seed^0x68e31da4) - 0.5,
			Y: valueNoise(q, periods[0], p.Seed^0xb5297a4d) - 0.5,
			Z: valueNoise(q, periods[0], p.Seed^0x1b56c4e9) - 0.5,
		}
		uvw = uvw.Add(w.Scale(2 * p.Warp / float32(p.Resolution)))
	}

	var sum, total float32
	amp := float32(1)
	for o, period := range periods {
		v := valueNoise(uvw.Scale(float32(period)), period, p.Seed+uint32(o)*0x9e3779b9)
		if p.AbsMode == AbsWhileSumming {
			v = math32.Abs(2*v - 1)
		}
		sum += v * amp
		total += amp
		amp *= p.Persistence
	}
	if total > 0 {
		sum /= total
	}

	if p.AbsMode == AbsOnSum {
		sum = math32.Abs(2*sum - 1)
	}
	sum += p.Add
	if p.Invert {
		sum = 1 - sum
	}
	if p.Clamp {
		sum = smath.Saturate(sum)
	}
	return sum
}
