package service

// Ring: кольцевой буфер фиксированной ёмкости, append за O(1).
// Старые элементы вытесняются, индексация от самого нового.
type Ring[T any] struct {
	buf  []T
	head int // куда пишем следующий
	size int
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

func (r *Ring[T]) Push(v T) {
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

func (r *Ring[T]) Len() int   { return r.size }
func (r *Ring[T]) Cap() int   { return len(r.buf) }
func (r *Ring[T]) Full() bool { return r.size == len(r.buf) }

// Back(0): последний добавленный, Back(1), предыдущий и т.д.
func (r *Ring[T]) Back(i int) (T, bool) {
	var zero T
	if i < 0 || i >= r.size {
		return zero, false
	}
	idx := (r.head - 1 - i + 2*len(r.buf)) % len(r.buf)
	return r.buf[idx], true
}

// Values: копия от старого к новому.
func (r *Ring[T]) Values() []T {
	out := make([]T, 0, r.size)
	for i := r.size - 1; i >= 0; i-- {
		v, _ := r.Back(i)
		out = append(out, v)
	}
	return out
}

func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.head, r.size = 0, 0
}
