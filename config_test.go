package aq_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/okatrych/aq"
	"github.com/okatrych/aq/internal/testing/require"
)

func TestOptions(t *testing.T) {
	require.PanicWithError(t, "capacity can't be < 1", func() {
		_ = aq.WithCapacity[int](0)
	})

	require.PanicWithError(t, "capacity can't be < 1", func() {
		_ = aq.WithCapacity[int](-1)
	})

	require.PanicWithError(t, "onAdd can't be nil", func() {
		_ = aq.WithOnAdd[int](nil)
	})

	require.PanicWithError(t, "onRemove can't be nil", func() {
		_ = aq.WithOnRemove[int](nil)
	})

	require.PanicWithError(t, "logger can't be nil", func() {
		_ = aq.WithLogger[int](nil)
	})
}

func TestWithPrometheus(t *testing.T) {
	queue := aq.New(
		aq.WithCapacity[int](1),
		aq.WithPrometheus[int](prometheus.NewRegistry(), "test", "queue"),
	)

	require.Nil(t, queue.TryAdd(1))
	item, err := queue.TryTake()
	require.Nil(t, err)
	require.Equal(t, item, 1)
}
