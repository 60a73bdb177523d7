// Package ring implements a fixed-capacity ring buffer backing the bounded
// history logs kept by agents and the coordinator.
package ring

// Buffer holds the most recent entries pushed into it, evicting the oldest
// once capacity is reached. Not safe for concurrent use.
type Buffer[T any] struct {
	items []T
	head  int
	size  int
}

func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v, overwriting the oldest entry when the buffer is full.
func (b *Buffer[T]) Push(v T) {
	tail := (b.head + b.size) % len(b.items)
	b.items[tail] = v
	if b.size < len(b.items) {
		b.size++
	} else {
		b.head = (b.head + 1) % len(b.items)
	}
}

// Items returns the buffered entries from oldest to newest.
func (b *Buffer[T]) Items() []T {
	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// Last returns the newest entry, if any.
func (b *Buffer[T]) Last() (T, bool) {
	if b.size == 0 {
		var zero T
		return zero, false
	}
	return b.items[(b.head+b.size-1)%len(b.items)], true
}

func (b *Buffer[T]) Len() int {
	return b.size
}

func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// Reset empties the buffer without releasing its storage.
func (b *Buffer[T]) Reset() {
	b.head = 0
	b.size = 0
}
