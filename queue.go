package aq

import (
	"context"
	"errors"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/okatrych/aq/internal/ring"
)

var (
	ErrClosed    = errors.New("queue is closed")
	ErrCancelled = errors.New("pending operation cancelled")
	ErrEmpty     = errors.New("queue is empty")
	ErrFull      = errors.New("queue is full")
	ErrTimedOut  = errors.New("operation timed out")
)

// Queue is a FIFO queue shared between producers and consumers.
//
// With a capacity set (see [WithCapacity]), Add blocks while the queue is
// full; Take blocks while it is empty. Blocked callers are released in
// FIFO order relative to each other. All blocking methods accept a
// context: a deadline that fires while the caller is parked surfaces as
// [ErrTimedOut], a plain cancellation as ctx.Err().
type Queue[Item any] struct {
	cfg *config[Item]

	mu        sync.Mutex
	items     *ring.Ring[Item]
	producers []*waiter[Item]
	consumers []*waiter[Item]
	drain     *drainWaiter
	closed    bool
}

func New[Item any](options ...Option[Item]) *Queue[Item] {
	return &Queue[Item]{
		cfg:   newConfig(options...),
		items: ring.New[Item](),
	}
}

// Add inserts item at the tail of the queue.
//
// If the queue is at capacity, Add blocks until a consumer makes room,
// the queue is cleared or closed, or ctx is done. A timed-out Add never
// enqueues its item.
func (q *Queue[Item]) Add(ctx context.Context, item Item) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if !q.fullLocked() {
		q.enqueueLocked(item)
		q.mu.Unlock()
		return nil
	}

	w := newWaiter(item)
	q.producers = append(q.producers, w)
	q.mu.Unlock()

	return q.park(ctx, w, &q.producers, q.cfg.metrics.blockedProducers)
}

// TryAdd inserts item at the tail without blocking. It fails with
// [ErrFull] when the queue is at capacity.
func (q *Queue[Item]) TryAdd(item Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if q.fullLocked() {
		return ErrFull
	}

	q.enqueueLocked(item)
	return nil
}

// AddAll adds every item in order. See [Queue.AddSeq].
func (q *Queue[Item]) AddAll(ctx context.Context, items ...Item) error {
	return q.AddSeq(ctx, slices.Values(items))
}

// AddSeq adds every item of seq in iteration order.
//
// The call is not transactional: if the queue is closed partway through,
// items added before the close stay enqueued and the remainder fails
// with [ErrClosed].
func (q *Queue[Item]) AddSeq(ctx context.Context, seq iter.Seq[Item]) error {
	for item := range seq {
		if err := q.Add(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// Take removes and returns the head item.
//
// If the queue is empty, Take blocks until an item arrives, the queue is
// cleared or closed, or ctx is done. Items are handed to blocked
// consumers in the order the consumers arrived.
func (q *Queue[Item]) Take(ctx context.Context) (zero Item, _ error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return zero, ErrClosed
	}
	if q.items.Len() > 0 {
		item := q.dequeueLocked()
		q.mu.Unlock()
		return item, nil
	}

	w := newWaiter(zero)
	q.consumers = append(q.consumers, w)
	q.mu.Unlock()

	if err := q.park(ctx, w, &q.consumers, q.cfg.metrics.blockedConsumers); err != nil {
		return zero, err
	}
	return w.item, nil
}

// TryTake removes and returns the head item without blocking. It fails
// with [ErrEmpty] when there is nothing buffered.
func (q *Queue[Item]) TryTake() (zero Item, _ error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return zero, ErrClosed
	}
	if q.items.Len() == 0 {
		return zero, ErrEmpty
	}

	return q.dequeueLocked(), nil
}

// Peek returns the head item without removing it. It never blocks.
// On a closed queue it fails with [ErrClosed] even if items remain.
func (q *Queue[Item]) Peek() (zero Item, _ error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return zero, ErrClosed
	}
	item, ok := q.items.Peek()
	if !ok {
		return zero, ErrEmpty
	}
	return item, nil
}

// Clear drops all buffered items and fails every pending producer,
// consumer and drain handle with [ErrCancelled] in one sweep. It does
// not close the queue. Idempotent.
func (q *Queue[Item]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := q.items.Len()
	q.items.Reset()
	q.cfg.metrics.depth.Set(0)

	swept := q.sweepLocked(ErrCancelled, "cancelled")
	q.cfg.logger.Debug("queue cleared",
		zap.Int("dropped_items", dropped),
		zap.Int("cancelled_handles", swept),
	)
}

// Close marks the queue as closed and fails every pending handle with
// [ErrClosed]. Further operations fail immediately with [ErrClosed].
// Buffered items are kept; use Clear to drop them. Idempotent.
func (q *Queue[Item]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true

	swept := q.sweepLocked(ErrClosed, "closed")
	q.cfg.logger.Debug("queue closed",
		zap.Int("buffered_items", q.items.Len()),
		zap.Int("cancelled_handles", swept),
	)
}

// Wait blocks until the queue becomes empty through consumption. It
// returns immediately when the queue is already empty. Concurrent
// callers share a single drain handle, which Clear and Close fail with
// [ErrCancelled] and [ErrClosed] respectively.
func (q *Queue[Item]) Wait(ctx context.Context) error {
	q.mu.Lock()
	if q.items.Len() == 0 {
		q.mu.Unlock()
		return nil
	}
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	if q.drain == nil {
		q.drain = newDrainWaiter()
	}
	d := q.drain
	q.mu.Unlock()

	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctxErr(ctx)
	}
}

// Len returns the number of buffered items.
func (q *Queue[Item]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Capacity returns the configured capacity limit, 0 meaning unbounded.
func (q *Queue[Item]) Capacity() int {
	return q.cfg.capacity
}

func (q *Queue[Item]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue[Item]) IsFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fullLocked()
}

func (q *Queue[Item]) IsEmpty() bool {
	return q.Len() == 0
}

func (q *Queue[Item]) fullLocked() bool {
	return q.cfg.capacity > 0 && q.items.Len() >= q.cfg.capacity
}

// enqueueLocked appends item, fires onAdd and hands buffered items to
// parked consumers.
func (q *Queue[Item]) enqueueLocked(item Item) {
	q.items.Push(item)
	q.cfg.metrics.adds.Inc()
	if q.cfg.onAdd != nil {
		q.cfg.onAdd(item)
	}
	q.notifyLocked()
	q.cfg.metrics.depth.Set(float64(q.items.Len()))
}

// dequeueLocked removes the head, fires onRemove, admits the
// longest-waiting producer into the opened slot and runs the drain
// check.
func (q *Queue[Item]) dequeueLocked() Item {
	item, _ := q.items.Pop()
	q.cfg.metrics.takes.Inc()
	if q.cfg.onRemove != nil {
		q.cfg.onRemove(item)
	}
	q.releaseLocked()
	q.drainCheckLocked()
	q.cfg.metrics.depth.Set(float64(q.items.Len()))
	return item
}

// notifyLocked hands buffered items to parked consumers in FIFO order.
// A consumer only ever parks on an empty queue, so at most one item is
// buffered when this runs; the loop keeps the invariant obvious.
func (q *Queue[Item]) notifyLocked() {
	for len(q.consumers) > 0 && q.items.Len() > 0 {
		item, _ := q.items.Pop()
		w := q.consumers[0]
		q.consumers = q.consumers[1:]
		q.cfg.metrics.takes.Inc()
		if q.cfg.onRemove != nil {
			q.cfg.onRemove(item)
		}
		w.item = item
		w.resolve(nil)
	}
	q.drainCheckLocked()
}

// releaseLocked enqueues the item of the first parked producer once a
// slot opens up. Exactly one producer proceeds per removal.
func (q *Queue[Item]) releaseLocked() {
	if len(q.producers) == 0 || q.fullLocked() {
		return
	}
	w := q.producers[0]
	q.producers = q.producers[1:]
	q.items.Push(w.item)
	q.cfg.metrics.adds.Inc()
	if q.cfg.onAdd != nil {
		q.cfg.onAdd(w.item)
	}
	w.resolve(nil)
}

// drainCheckLocked fulfills the shared drain handle after a removal
// left the queue empty.
func (q *Queue[Item]) drainCheckLocked() {
	if q.drain == nil || q.items.Len() > 0 {
		return
	}
	q.drain.resolve(nil)
	q.drain = nil
}

// sweepLocked fails every pending handle with err and returns how many
// it resolved. None may be left dangling.
func (q *Queue[Item]) sweepLocked(err error, reason string) int {
	swept := len(q.producers) + len(q.consumers)
	for _, w := range q.producers {
		w.resolve(err)
	}
	for _, w := range q.consumers {
		w.resolve(err)
	}
	q.producers = nil
	q.consumers = nil

	if q.drain != nil {
		q.drain.resolve(err)
		q.drain = nil
		swept++
	}

	if swept > 0 {
		q.cfg.metrics.aborts.WithLabelValues(reason).Add(float64(swept))
	}
	return swept
}

// park blocks until the handle is resolved or ctx is done. When ctx
// wins, the handle is removed from its registry under the lock; if a
// fulfillment got there first, the fulfillment is honored and the
// expiry ignored, so exactly one outcome is ever observed.
func (q *Queue[Item]) park(
	ctx context.Context,
	w *waiter[Item],
	registry *[]*waiter[Item],
	blocked prometheus.Gauge,
) error {
	blocked.Inc()
	start := time.Now()
	defer func() {
		blocked.Dec()
		q.cfg.metrics.blockDuration.Observe(time.Since(start).Seconds())
	}()

	select {
	case <-w.done:
		return w.err
	case <-ctx.Done():
	}

	q.mu.Lock()
	if w.resolved {
		q.mu.Unlock()
		return w.err
	}
	*registry = unregister(*registry, w)
	q.mu.Unlock()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		q.cfg.metrics.aborts.WithLabelValues("timeout").Inc()
	}
	return ctxErr(ctx)
}

func ctxErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimedOut
	}
	return ctx.Err()
}
