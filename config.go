package aq

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Option[Item any] = func(*config[Item])

// WithCapacity limits how many items the queue buffers. Add blocks once
// the limit is reached. Without this option the queue is unbounded.
func WithCapacity[Item any](capacity int) Option[Item] {
	if capacity < 1 {
		panic("capacity can't be < 1")
	}
	return func(c *config[Item]) {
		c.capacity = capacity
	}
}

// WithOnAdd registers a hook invoked synchronously after every
// successful insert. The hook runs inside the queue's critical section
// and must not call back into the queue.
func WithOnAdd[Item any](fn func(Item)) Option[Item] {
	if fn == nil {
		panic("onAdd can't be nil")
	}
	return func(c *config[Item]) {
		c.onAdd = fn
	}
}

// WithOnRemove registers a hook invoked synchronously after every
// removal, including direct hand-offs to blocked consumers. Same
// restrictions as [WithOnAdd].
func WithOnRemove[Item any](fn func(Item)) Option[Item] {
	if fn == nil {
		panic("onRemove can't be nil")
	}
	return func(c *config[Item]) {
		c.onRemove = fn
	}
}

func WithLogger[Item any](logger *zap.Logger) Option[Item] {
	if logger == nil {
		panic("logger can't be nil")
	}
	return func(c *config[Item]) {
		c.logger = logger
	}
}

func WithPrometheus[Item any](
	registerer prometheus.Registerer,
	namespace, subsystem string,
) Option[Item] {
	return func(c *config[Item]) {
		c.metrics = newMetrics(registerer, namespace, subsystem)
	}
}

type config[Item any] struct {
	capacity int
	onAdd    func(Item)
	onRemove func(Item)
	logger   *zap.Logger
	metrics  *metrics
}

func newConfig[Item any](options ...Option[Item]) *config[Item] {
	options = append([]Option[Item]{
		WithLogger[Item](zap.NewNop()),
		WithPrometheus[Item](nil, "aq", ""),
	}, options...)

	cfg := config[Item]{}
	for _, opt := range options {
		opt(&cfg)
	}

	return &cfg
}
