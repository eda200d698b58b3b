// Package ring implements the queue's item storage: a growable ring
// buffer. It is not thread-safe; the owning queue serializes access.
package ring

type Ring[Item any] struct {
	buf  []Item
	head int
	len  int
}

func New[Item any]() *Ring[Item] {
	return &Ring[Item]{}
}

func (r *Ring[Item]) Len() int {
	return r.len
}

func (r *Ring[Item]) Push(item Item) {
	if r.len == len(r.buf) {
		r.grow()
	}
	r.buf[(r.head+r.len)%len(r.buf)] = item
	r.len++
}

func (r *Ring[Item]) Pop() (zero Item, _ bool) {
	if r.len == 0 {
		return zero, false
	}
	item := r.buf[r.head]
	// Release the slot so the item can be collected.
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.len--
	return item, true
}

func (r *Ring[Item]) Peek() (zero Item, _ bool) {
	if r.len == 0 {
		return zero, false
	}
	return r.buf[r.head], true
}

func (r *Ring[Item]) Reset() {
	clear(r.buf)
	r.head = 0
	r.len = 0
}

func (r *Ring[Item]) grow() {
	size := len(r.buf) * 2
	if size == 0 {
		size = 8
	}
	buf := make([]Item, size)
	for i := range r.len {
		buf[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.buf = buf
	r.head = 0
}
