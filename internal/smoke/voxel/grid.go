// Package voxel grows a smoke volume through a voxel grid by bounded flood fill.
//
// The grid holds three buffers: a static obstacle mask baked once from scene meshes,
// the fill state, and a ping buffer of the same shape. Each flood iteration reads fill
// and writes ping, then the two are swapped, so no invocation ever reads a cell that
// another invocation of the same iteration is writing.
package voxel

import (
	"fmt"
	"sync/atomic"

	"github.com/Faultbox/voxsmoke/internal/engine/buffer"
	"github.com/Faultbox/voxsmoke/internal/engine/compute"
	"github.com/Faultbox/voxsmoke/internal/engine/picking"
	"github.com/Faultbox/voxsmoke/internal/logger"
	"github.com/Faultbox/voxsmoke/pkg/math"
	"go.uber.org/zap"
)

// State is the grid lifecycle state:
// Uninitialized -> StaticBaked -> Idle -> Growing -> Idle ... -> Released.
// A Trigger before any Bake goes from Uninitialized straight to Growing with an
// empty static mask. A Bake while Growing or Idle clears the smoke and lands in Idle.
type State int

// Grid states.
const (
	Uninitialized State = iota
	StaticBaked
	Idle
	Growing
	Released
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case StaticBaked:
		return "static-baked"
	case Idle:
		return "idle"
	case Growing:
		return "growing"
	case Released:
		return "released"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Grid owns the voxel buffers and the growth episode.
type Grid struct {
	cfg        Config
	ease       Ease
	dispatcher *compute.Dispatcher
	log        *zap.Logger

	nx, ny, nz int
	bounds     picking.AABB

	static *buffer.Buffer[uint8]
	fill   *buffer.Buffer[int32] // 0 empty, otherwise 1 + flood distance from the seed
	ping   *buffer.Buffer[int32]

	state     State
	origin    math.Vec3
	seed      int // linear index of the voxel containing origin, -1 outside the grid
	progress  float32
	radius    math.Vec3
	converged bool

	iterations  int // flood iterations in the current episode
	filledCount int
	staticCount int
}

// New creates a grid. Buffers are allocated on Bake or the first Trigger.
func New(d *compute.Dispatcher, cfg Config) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("voxel config: %w", err)
	}
	ease, _ := LookupEase(cfg.Ease)
	nx, ny, nz := cfg.Resolution()

	// Bounds are snapped to whole voxels so voxel centres sit on a regular lattice.
	extent := math.Vec3{X: float32(nx), Y: float32(ny), Z: float32(nz)}.Scale(cfg.VoxelSize / 2)

	return &Grid{
		cfg:        cfg,
		ease:       ease,
		dispatcher: d,
		log:        logger.Named("voxel"),
		nx:         nx,
		ny:         ny,
		nz:         nz,
		bounds:     picking.AABBFromCenter(cfg.Center, extent),
		seed:       -1,
	}, nil
}

func (g *Grid) ensureBuffers() {
	n := g.nx * g.ny * g.nz
	if g.static == nil {
		g.static = buffer.New[uint8]("voxel-static", n)
		g.fill = buffer.New[int32]("voxel-fill", n)
		g.ping = buffer.New[int32]("voxel-ping", n)
	}
}

func (g *Grid) index(i, j, k int) int {
	return (k*g.ny+j)*g.nx + i
}

// Config returns the grid configuration.
func (g *Grid) Config() Config { return g.cfg }

// Resolution returns the voxel count per axis.
func (g *Grid) Resolution() (nx, ny, nz int) { return g.nx, g.ny, g.nz }

// Bounds returns the world-space box covered by the grid.
func (g *Grid) Bounds() picking.AABB { return g.bounds }

// Radius returns the current eased radius vector.
func (g *Grid) Radius() math.Vec3 { return g.radius }

// Origin returns the origin of the current episode.
func (g *Grid) Origin() math.Vec3 { return g.origin }

// State returns the lifecycle state.
func (g *Grid) State() State { return g.state }

// Progress returns the linear growth progress in [0, 1].
func (g *Grid) Progress() float32 { return g.progress }

// FilledCount returns the number of filled voxels after the last Step.
func (g *Grid) FilledCount() int { return g.filledCount }

// StaticCount returns the number of static voxels.
func (g *Grid) StaticCount() int { return g.staticCount }

// Iterations returns the flood iterations run in the current episode.
func (g *Grid) Iterations() int { return g.iterations }

// Static exposes the obstacle mask (read-only for consumers). Nil before allocation.
func (g *Grid) Static() []uint8 {
	if g.static == nil {
		return nil
	}
	return g.static.Data()
}

// Fill exposes the fill state (read-only for consumers). Nil before allocation.
func (g *Grid) Fill() []int32 {
	if g.fill == nil {
		return nil
	}
	return g.fill.Data()
}

// VoxelCenter returns the world-space centre of voxel (i, j, k).
func (g *Grid) VoxelCenter(i, j, k int) math.Vec3 {
	s := g.cfg.VoxelSize
	return g.bounds.Min.Add(math.Vec3{
		X: (float32(i) + 0.5) * s,
		Y: (float32(j) + 0.5) * s,
		Z: (float32(k) + 0.5) * s,
	})
}

// VoxelAt returns the voxel containing p and whether p lies inside the grid.
func (g *Grid) VoxelAt(p math.Vec3) (i, j, k int, ok bool) {
	if !g.bounds.Contains(p) {
		return 0, 0, 0, false
	}
	c := g.cellOf(p)
	return c[0], c[1], c[2], true
}

// IsStatic reports whether voxel (i, j, k) is an obstacle.
func (g *Grid) IsStatic(i, j, k int) bool {
	if g.static == nil || g.static.Released() {
		return false
	}
	return g.static.Data()[g.index(i, j, k)] != 0
}

// IsFilled reports whether voxel (i, j, k) holds smoke.
func (g *Grid) IsFilled(i, j, k int) bool {
	return g.FillAt(i, j, k) != 0
}

// FillAt returns the fill value of voxel (i, j, k): 0 when empty, otherwise one more than
// its flood distance from the seed.
func (g *Grid) FillAt(i, j, k int) int32 {
	if g.fill == nil || g.fill.Released() {
		return 0
	}
	return g.fill.Data()[g.index(i, j, k)]
}

// Trigger starts a new growth episode at origin. The fill and ping buffers are cleared.
// An origin outside the grid starts an episode in which nothing fills.
func (g *Grid) Trigger(origin math.Vec3) {
	if g.state == Released {
		return
	}
	if g.state == Uninitialized {
		g.log.Debug("trigger before bake, using an empty static mask")
	}
	g.ensureBuffers()
	g.fill.Clear()
	g.ping.Clear()

	g.origin = origin
	g.progress = 0
	g.radius = math.Vec3{}
	g.converged = false
	g.iterations = 0
	g.filledCount = 0
	g.seed = -1
	if i, j, k, ok := g.VoxelAt(origin); ok {
		g.seed = g.index(i, j, k)
	}
	g.state = Growing

	g.log.Debug("growth triggered",
		zap.Float32("x", origin.X), zap.Float32("y", origin.Y), zap.Float32("z", origin.Z),
		zap.Bool("inside", g.seed >= 0))
}

// endEpisode drops the smoke of the current episode.
func (g *Grid) endEpisode() {
	g.fill.Clear()
	g.ping.Clear()
	g.progress = 0
	g.radius = math.Vec3{}
	g.converged = true
	g.iterations = 0
	g.filledCount = 0
	g.seed = -1
	g.state = Idle
	g.log.Debug("episode ended by a new bake")
}

// Step advances the growth by dt seconds and runs up to MaxFillSteps flood iterations.
func (g *Grid) Step(dt float32) {
	switch g.state {
	case StaticBaked:
		g.state = Idle
		return
	case Growing:
	default:
		return
	}

	if dt > 0 {
		g.progress = math.Saturate(g.progress + g.cfg.GrowthSpeed*dt)
	}
	g.radius = g.cfg.MaxRadius.Scale(g.ease(g.progress))

	if g.seed < 0 {
		g.converged = true
	} else {
		g.converged = false
		for it := 0; it < g.cfg.MaxFillSteps; it++ {
			g.iterations++
			if !g.iterate() {
				g.converged = true
				break
			}
		}
	}
	g.filledCount = countNonZero(g.fill.Data())

	if g.progress >= 1 && g.converged {
		g.state = Idle
		g.log.Debug("growth finished",
			zap.Int("filled", g.filledCount),
			zap.Int("iterations", g.iterations))
	}
}

// iterate runs one flood step from fill into ping and swaps them. Reports whether
// any voxel changed.
func (g *Grid) iterate() bool {
	var changed atomic.Bool

	fill := g.fill.Data()
	ping := g.ping.Data()
	static := g.static.Data()
	radius := g.radius
	origin := g.origin
	seed := g.seed
	live := radius.X > 0 && radius.Y > 0 && radius.Z > 0
	offsets := neighbourOffsets(g.cfg.Connectivity)

	g.dispatcher.Dispatch3D(g.nx, g.ny, g.nz, func(i, j, k int) {
		idx := g.index(i, j, k)
		if cur := fill[idx]; cur != 0 {
			ping[idx] = cur
			return
		}
		ping[idx] = 0
		if !live || static[idx] != 0 {
			return
		}
		// The seed contains the origin, so it fills as soon as the radius is non-zero.
		if idx == seed {
			ping[idx] = 1
			changed.Store(true)
			return
		}
		q := g.VoxelCenter(i, j, k).Sub(origin).Div(radius)
		if q.LengthSq() > 1 {
			return
		}

		var best int32
		for _, o := range offsets {
			ni, nj, nk := i+o[0], j+o[1], k+o[2]
			if ni < 0 || nj < 0 || nk < 0 || ni >= g.nx || nj >= g.ny || nk >= g.nz {
				continue
			}
			if v := fill[g.index(ni, nj, nk)]; v != 0 && (best == 0 || v < best) {
				best = v
			}
		}
		if best != 0 {
			ping[idx] = best + 1
			changed.Store(true)
		}
	})

	buffer.Swap(g.fill, g.ping)
	return changed.Load()
}

var faceOffsets = [][3]int{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

var fullOffsets = func() [][3]int {
	var out [][3]int
	for dk := -1; dk <= 1; dk++ {
		for dj := -1; dj <= 1; dj++ {
			for di := -1; di <= 1; di++ {
				if di != 0 || dj != 0 || dk != 0 {
					out = append(out, [3]int{di, dj, dk})
				}
			}
		}
	}
	return out
}()

func neighbourOffsets(c Connectivity) [][3]int {
	if c == Faces {
		return faceOffsets
	}
	return fullOffsets
}

// SampleFill returns the trilinear occupancy in [0, 1] at world position p.
// Static voxels and voxels outside the grid count as empty.
func (g *Grid) SampleFill(p math.Vec3) float32 {
	if g.fill == nil || g.fill.Released() {
		return 0
	}
	rel := p.Sub(g.bounds.Min).Scale(1 / g.cfg.VoxelSize).Sub(math.Splat(0.5))
	f := rel.Floor()
	t := rel.Sub(f)
	i0, j0, k0 := int(f.X), int(f.Y), int(f.Z)

	var sum float32
	for c := 0; c < 8; c++ {
		di, dj, dk := c&1, (c>>1)&1, (c>>2)&1
		w := weight(t.X, di) * weight(t.Y, dj) * weight(t.Z, dk)
		if w == 0 {
			continue
		}
		i, j, k := i0+di, j0+dj, k0+dk
		if i < 0 || j < 0 || k < 0 || i >= g.nx || j >= g.ny || k >= g.nz {
			continue
		}
		if g.fill.Data()[g.index(i, j, k)] != 0 {
			sum += w
		}
	}
	return sum
}

func weight(t float32, corner int) float32 {
	if corner == 0 {
		return 1 - t
	}
	return t
}

// Release frees every buffer. The grid cannot be used afterwards. Safe to call twice.
func (g *Grid) Release() {
	if g.state == Released {
		return
	}
	if g.static != nil {
		g.static.Release()
		g.fill.Release()
		g.ping.Release()
	}
	g.state = Released
	g.filledCount = 0
	g.log.Debug("voxel buffers released")
}
