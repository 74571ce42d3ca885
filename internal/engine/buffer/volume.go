package buffer

import "github.com/chewxy/math32"

// Volume is a dense 3-D float32 texture stored x-fastest, then y, then z.
type Volume struct {
	name       string
	NX, NY, NZ int
	data       []float32
	released   bool
}

// NewVolume allocates a zeroed volume. Dimensions below 1 are clamped to 1.
func NewVolume(name string, nx, ny, nz int) *Volume {
	nx, ny, nz = atLeastOne(nx), atLeastOne(ny), atLeastOne(nz)
	return &Volume{name: name, NX: nx, NY: ny, NZ: nz, data: make([]float32, nx*ny*nz)}
}

// Name returns the debug name given at creation.
func (v *Volume) Name() string { return v.name }

// Len returns the voxel count.
func (v *Volume) Len() int { return len(v.data) }

// Data exposes the backing slice.
func (v *Volume) Data() []float32 { return v.data }

// Index returns the linear index of (i, j, k).
func (v *Volume) Index(i, j, k int) int {
	return (k*v.NY+j)*v.NX + i
}

// At returns the voxel at (i, j, k).
func (v *Volume) At(i, j, k int) float32 {
	return v.data[v.Index(i, j, k)]
}

// Set writes the voxel at (i, j, k).
func (v *Volume) Set(i, j, k int, value float32) {
	v.data[v.Index(i, j, k)] = value
}

// Resize reallocates when the shape changes. Contents are zeroed either way.
func (v *Volume) Resize(nx, ny, nz int) {
	nx, ny, nz = atLeastOne(nx), atLeastOne(ny), atLeastOne(nz)
	v.released = false
	if nx == v.NX && ny == v.NY && nz == v.NZ && v.data != nil {
		for i := range v.data {
			v.data[i] = 0
		}
		return
	}
	v.NX, v.NY, v.NZ = nx, ny, nz
	v.data = make([]float32, nx*ny*nz)
}

// Release drops the backing storage.
func (v *Volume) Release() {
	if v.released {
		return
	}
	v.data = nil
	v.released = true
}

// Released reports whether Release was called since the last allocation.
func (v *Volume) Released() bool { return v.released }

// SampleRepeat samples with trilinear filtering and wrap addressing.
// Coordinates are in voxel units; voxel centres sit at integer + 0.5.
func (v *Volume) SampleRepeat(x, y, z float32) float32 {
	x -= 0.5
	y -= 0.5
	z -= 0.5
	fx, fy, fz := math32.Floor(x), math32.Floor(y), math32.Floor(z)
	tx, ty, tz := x-fx, y-fy, z-fz

	i0, j0, k0 := wrap(int(fx), v.NX), wrap(int(fy), v.NY), wrap(int(fz), v.NZ)
	i1, j1, k1 := wrap(i0+1, v.NX), wrap(j0+1, v.NY), wrap(k0+1, v.NZ)

	return v.trilinear(i0, j0, k0, i1, j1, k1, tx, ty, tz)
}

// SampleClamp samples with trilinear filtering and clamp-to-edge addressing.
func (v *Volume) SampleClamp(x, y, z float32) float32 {
	x -= 0.5
	y -= 0.5
	z -= 0.5
	fx, fy, fz := math32.Floor(x), math32.Floor(y), math32.Floor(z)
	tx, ty, tz := x-fx, y-fy, z-fz

	i0, j0, k0 := clampIndex(int(fx), v.NX), clampIndex(int(fy), v.NY), clampIndex(int(fz), v.NZ)
	i1, j1, k1 := clampIndex(int(fx)+1, v.NX), clampIndex(int(fy)+1, v.NY), clampIndex(int(fz)+1, v.NZ)

	return v.trilinear(i0, j0, k0, i1, j1, k1, tx, ty, tz)
}

func (v *Volume) trilinear(i0, j0, k0, i1, j1, k1 int, tx, ty, tz float32) float32 {
	c000 := v.At(i0, j0, k0)
	c100 := v.At(i1, j0, k0)
	c010 := v.At(i0, j1, k0)
	c110 := v.At(i1, j1, k0)
	c001 := v.At(i0, j0, k1)
	c101 := v.At(i1, j0, k1)
	c011 := v.At(i0, j1, k1)
	c111 := v.At(i1, j1, k1)

	c00 := c000 + (c100-c000)*tx
	c10 := c010 + (c110-c010)*tx
	c01 := c001 + (c101-c001)*tx
	c11 := c011 + (c111-c011)*tx

	c0 := c00 + (c10-c00)*ty
	c1 := c01 + (c11-c01)*ty
	return c0 + (c1-c0)*tz
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
