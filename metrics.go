package aq

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	depth            prometheus.Gauge
	adds             prometheus.Counter
	takes            prometheus.Counter
	blockedProducers prometheus.Gauge
	blockedConsumers prometheus.Gauge
	aborts           *prometheus.CounterVec
	blockDuration    prometheus.Histogram
}

func newMetrics(registerer prometheus.Registerer, namespace, subsystem string) *metrics {
	m := metrics{
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "depth",
			Help:      "Number of items buffered in queue",
		}),
		adds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "adds",
			Help:      "Number of items added to queue",
		}),
		takes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "takes",
			Help:      "Number of items taken from queue",
		}),
		blockedProducers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "blocked_producers",
			Help:      "Number of producers waiting for room",
		}),
		blockedConsumers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "blocked_consumers",
			Help:      "Number of consumers waiting for items",
		}),
		aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "aborted_waits",
			Help:      "Number of pending operations aborted by timeout, clear or close",
		}, []string{"reason"}),
		blockDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "block_duration",
			Help:      "Time spent blocked on a full or empty queue",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if registerer != nil {
		prometheus.WrapRegistererWith(
			prometheus.Labels{"component": "aq"},
			registerer,
		).MustRegister(
			m.depth,
			m.adds,
			m.takes,
			m.blockedProducers,
			m.blockedConsumers,
			m.aborts,
			m.blockDuration,
		)
	}

	return &m
}
