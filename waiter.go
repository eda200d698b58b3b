package aq

import "slices"

// waiter is a pending-operation handle. A parked producer carries the
// item it wants to enqueue; a parked consumer receives the item it was
// handed. A handle is resolved at most once, always under the queue
// mutex, and closing done publishes the result to the parked caller.
type waiter[Item any] struct {
	done     chan struct{}
	item     Item
	err      error
	resolved bool
}

func newWaiter[Item any](item Item) *waiter[Item] {
	return &waiter[Item]{
		done: make(chan struct{}),
		item: item,
	}
}

func (w *waiter[Item]) resolve(err error) {
	w.err = err
	w.resolved = true
	close(w.done)
}

// unregister removes an abandoned handle from its registry. A handle
// that was already resolved is never in the registry.
func unregister[Item any](ws []*waiter[Item], w *waiter[Item]) []*waiter[Item] {
	for i, x := range ws {
		if x == w {
			return slices.Delete(ws, i, i+1)
		}
	}
	return ws
}

// drainWaiter is the single shared handle behind Wait. Concurrent Wait
// calls attach to the same instance instead of registering duplicates.
type drainWaiter struct {
	done chan struct{}
	err  error
}

func newDrainWaiter() *drainWaiter {
	return &drainWaiter{done: make(chan struct{})}
}

func (d *drainWaiter) resolve(err error) {
	d.err = err
	close(d.done)
}
