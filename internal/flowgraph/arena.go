package flowgraph

// arena is append-only storage addressed by index. Pointers returned by at
// are invalidated by the next alloc, so records refer to each other by
// handle and callers re-fetch after allocating.
type arena[T any] struct {
	items []T
}

func (a *arena[T]) alloc(v T) int {
	a.items = append(a.items, v)
	return len(a.items) - 1
}

func (a *arena[T]) at(i int) *T { return &a.items[i] }

func (a *arena[T]) len() int { return len(a.items) }

func (a *arena[T]) has(i int) bool { return i >= 0 && i < len(a.items) }
