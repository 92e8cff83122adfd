// Package observability exposes the node's prometheus collectors: block
// height, undo-session depth, evaluator failures, award payouts, and
// schedule rebuilds (spec §4.0 ambient stack). Grounded on the teacher's
// observability/metrics.go singleton-registry shape (lazily built via
// sync.Once, registered once with prometheus.MustRegister, exposed through
// a package-level accessor so call sites never hold a registry reference
// across restarts).
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type chainMetrics struct {
	blockHeight       prometheus.Gauge
	undoSessionDepth  prometheus.Gauge
	evaluatorFailures *prometheus.CounterVec
	awardPayouts      *prometheus.CounterVec
	scheduleRebuilds  prometheus.Counter
}

var (
	chainMetricsOnce sync.Once
	chainRegistry    *chainMetrics
)

// Chain returns the lazily-initialised chain-level metrics registry.
func Chain() *chainMetrics {
	chainMetricsOnce.Do(func() {
		chainRegistry = &chainMetrics{
			blockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "yoyow",
				Subsystem: "chain",
				Name:      "block_height",
				Help:      "Current head block number.",
			}),
			undoSessionDepth: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "yoyow",
				Subsystem: "chain",
				Name:      "undo_session_depth",
				Help:      "Depth of the currently open undo-session stack.",
			}),
			evaluatorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "yoyow",
				Subsystem: "chain",
				Name:      "evaluator_failures_total",
				Help:      "Count of operation evaluation failures segmented by operation tag.",
			}, []string{"op"}),
			awardPayouts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "yoyow",
				Subsystem: "chain",
				Name:      "award_payouts_total",
				Help:      "Count of content/platform award settlement runs segmented by pool.",
			}, []string{"pool"}),
			scheduleRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "yoyow",
				Subsystem: "chain",
				Name:      "schedule_rebuilds_total",
				Help:      "Count of witness schedule rebuilds performed by maintenance.",
			}),
		}
		prometheus.MustRegister(
			chainRegistry.blockHeight,
			chainRegistry.undoSessionDepth,
			chainRegistry.evaluatorFailures,
			chainRegistry.awardPayouts,
			chainRegistry.scheduleRebuilds,
		)
	})
	return chainRegistry
}

// SetBlockHeight updates the head block height gauge.
func (m *chainMetrics) SetBlockHeight(height uint32) {
	if m == nil {
		return
	}
	m.blockHeight.Set(float64(height))
}

// SetUndoSessionDepth updates the open undo-session depth gauge.
func (m *chainMetrics) SetUndoSessionDepth(depth int) {
	if m == nil {
		return
	}
	m.undoSessionDepth.Set(float64(depth))
}

// RecordEvaluatorFailure increments the evaluator-failure counter for the
// named operation tag.
func (m *chainMetrics) RecordEvaluatorFailure(op string) {
	if m == nil {
		return
	}
	if op == "" {
		op = "unknown"
	}
	m.evaluatorFailures.WithLabelValues(op).Inc()
}

// RecordAwardPayout increments the award-payout counter for the named pool
// ("content" or "platform_voted").
func (m *chainMetrics) RecordAwardPayout(pool string) {
	if m == nil {
		return
	}
	m.awardPayouts.WithLabelValues(pool).Inc()
}

// RecordScheduleRebuild increments the schedule-rebuild counter.
func (m *chainMetrics) RecordScheduleRebuild() {
	if m == nil {
		return
	}
	m.scheduleRebuilds.Inc()
}
