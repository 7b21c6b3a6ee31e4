// Package metrics holds the prometheus collectors for query compilation,
// statement execution and write batching.
//
// All methods are safe on a nil *Metrics so components can run without a
// registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cqlbridge"

// Predicate decisions.
const (
	DecisionPushed   = "pushed"
	DecisionFiltered = "filtered"
	DecisionDropped  = "dropped"
)

// Compilation results.
const (
	ResultCompiled      = "compiled"
	ResultRowID         = "rowid"
	ResultRawQuery      = "raw_query"
	ResultUnsatisfiable = "unsatisfiable"
	ResultError         = "error"
)

// Statement kinds.
const (
	StatementSelect = "select"
	StatementInsert = "insert"
	StatementDelete = "delete"
)

// Metrics groups the bridge collectors.
type Metrics struct {
	compilations *prometheus.CounterVec
	predicates   *prometheus.CounterVec
	statements   *prometheus.CounterVec
	flushes      *prometheus.CounterVec
	discarded    prometheus.Counter
	flushSize    prometheus.Histogram
}

// New creates the collectors and registers them with reg when reg is not
// nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		compilations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "compilations_total",
				Help:      "Total number of select compilations by result.",
			}, []string{"result"}),
		predicates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "query",
				Name:      "predicates_total",
				Help:      "Total number of predicates by push-down decision.",
			}, []string{"decision"}),
		statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "statements_total",
				Help:      "Total number of executed statements by kind.",
			}, []string{"kind"}),
		flushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "flushes_total",
				Help:      "Total number of non-empty batch flushes by result.",
			}, []string{"result"}),
		discarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "discarded_items_total",
				Help:      "Total number of pending items discarded by failed flushes.",
			}),
		flushSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "flush_items",
				Help:      "Bucketed histogram of items per flush.",
				Buckets:   prometheus.ExponentialBuckets(1, 2.0, 12),
			}),
	}
	if reg != nil {
		reg.MustRegister(m.compilations, m.predicates, m.statements, m.flushes, m.discarded, m.flushSize)
	}
	return m
}

// Compiled counts one compilation with the given result.
func (m *Metrics) Compiled(result string) {
	if m == nil {
		return
	}
	m.compilations.WithLabelValues(result).Inc()
}

// Predicate counts one predicate decision.
func (m *Metrics) Predicate(decision string) {
	if m == nil {
		return
	}
	m.predicates.WithLabelValues(decision).Inc()
}

// Statement counts one executed statement.
func (m *Metrics) Statement(kind string) {
	if m == nil {
		return
	}
	m.statements.WithLabelValues(kind).Inc()
}

// Flushed records a flush of n items. discarded is the number of items
// dropped because the flush failed.
func (m *Metrics) Flushed(n int, err error, discarded int) {
	if m == nil {
		return
	}
	m.flushSize.Observe(float64(n))
	if err != nil {
		m.flushes.WithLabelValues("error").Inc()
		m.discarded.Add(float64(discarded))
		return
	}
	m.flushes.WithLabelValues("ok").Inc()
}
