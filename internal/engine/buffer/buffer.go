// Package buffer provides CPU-side compute resources with explicit shape and lifetime.
//
// Every resource is created by exactly one owning component, may be resized when the
// shape it mirrors changes (viewport, grid resolution), and must be released by the same
// owner on teardown. Release is idempotent; a released resource reports zero length and a
// nil backing slice, so stale reads fail loudly instead of returning old data.
package buffer

// Buffer is a linear array of elements, the CPU counterpart of a structured GPU buffer.
type Buffer[T any] struct {
	name     string
	data     []T
	released bool
}

// New allocates a buffer with n zeroed elements.
func New[T any](name string, n int) *Buffer[T] {
	if n < 0 {
		n = 0
	}
	return &Buffer[T]{name: name, data: make([]T, n)}
}

// Name returns the debug name given at creation.
func (b *Buffer[T]) Name() string { return b.name }

// Len returns the element count.
func (b *Buffer[T]) Len() int { return len(b.data) }

// Data exposes the backing slice for kernels to read and write directly.
func (b *Buffer[T]) Data() []T { return b.data }

// Fill sets every element to v.
func (b *Buffer[T]) Fill(v T) {
	for i := range b.data {
		b.data[i] = v
	}
}

// Clear zeroes every element.
func (b *Buffer[T]) Clear() {
	var zero T
	b.Fill(zero)
}

// Resize reallocates to n elements if the size changed. Contents are zeroed either way.
func (b *Buffer[T]) Resize(n int) {
	if n < 0 {
		n = 0
	}
	b.released = false
	if n == len(b.data) {
		b.Clear()
		return
	}
	b.data = make([]T, n)
}

// Release drops the backing storage.
func (b *Buffer[T]) Release() {
	if b.released {
		return
	}
	b.data = nil
	b.released = true
}

// Released reports whether Release was called since the last allocation.
func (b *Buffer[T]) Released() bool { return b.released }

// Swap exchanges the storage of two buffers of the same shape (ping-pong).
// Ownership stays with the component holding both handles.
func Swap[T any](a, b *Buffer[T]) {
	a.data, b.data = b.data, a.data
}
