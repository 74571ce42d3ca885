// Package compute runs data-parallel kernels over 1-D, 2-D and 3-D index spaces.
//
// A dispatch splits its index space into work groups, submits them to a shared
// worker pool and returns only when every invocation has finished. Callers rely on
// that barrier to order dependent stages without locks.
package compute

import (
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"
)

// Dispatcher owns a worker pool shared by every pipeline stage.
type Dispatcher struct {
	pool    pond.Pool
	workers int
	closed  bool
	mu      sync.Mutex
}

// NewDispatcher creates a dispatcher with the given number of workers.
// A value <= 0 uses runtime.NumCPU().
func NewDispatcher(workers int) *Dispatcher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Dispatcher{
		pool:    pond.NewPool(workers),
		workers: workers,
	}
}

// Workers returns the pool size.
func (d *Dispatcher) Workers() int { return d.workers }

// Dispatch runs fn(i) for i in [0, n). Indices are grouped into contiguous ranges.
func (d *Dispatcher) Dispatch(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	groups := d.workers * 4
	if groups > n {
		groups = n
	}
	size := (n + groups - 1) / groups
	d.run(groups, func(g int) {
		start := g * size
		end := min(start+size, n)
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// Dispatch2D runs fn(x, y) over a w×h grid. Each work group is one row.
func (d *Dispatcher) Dispatch2D(w, h int, fn func(x, y int)) {
	if w <= 0 || h <= 0 {
		return
	}
	d.run(h, func(y int) {
		for x := 0; x < w; x++ {
			fn(x, y)
		}
	})
}

// Dispatch3D runs fn(i, j, k) over an nx×ny×nz grid. Each work group is one z slice,
// so a kernel that writes only its own voxel never shares a group with another slice.
func (d *Dispatcher) Dispatch3D(nx, ny, nz int, fn func(i, j, k int)) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return
	}
	d.run(nz, func(k int) {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				fn(i, j, k)
			}
		}
	})
}

// run submits groups work groups and waits for all of them.
// After Close the groups execute on the calling goroutine.
func (d *Dispatcher) run(groups int, group func(g int)) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()

	if closed || groups == 1 {
		for g := 0; g < groups; g++ {
			group(g)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(groups)
	for g := 0; g < groups; g++ {
		d.pool.Submit(func() {
			defer wg.Done()
			group(g)
		})
	}
	wg.Wait()
}

// Close stops the pool after in-flight work completes. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.pool.StopAndWait()
}
