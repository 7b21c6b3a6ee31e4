package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Compiled(ResultCompiled)
	m.Compiled(ResultCompiled)
	m.Compiled(ResultUnsatisfiable)
	m.Predicate(DecisionPushed)
	m.Predicate(DecisionDropped)
	m.Statement(StatementInsert)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.compilations.WithLabelValues(ResultCompiled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compilations.WithLabelValues(ResultUnsatisfiable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predicates.WithLabelValues(DecisionPushed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predicates.WithLabelValues(DecisionDropped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statements.WithLabelValues(StatementInsert)))
}

func TestMetrics_Flushed(t *testing.T) {
	m := New(nil)

	m.Flushed(3, nil, 0)
	m.Flushed(5, errors.New("boom"), 5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushes.WithLabelValues("error")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.discarded))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Compiled(ResultCompiled)
		m.Predicate(DecisionPushed)
		m.Statement(StatementSelect)
		m.Flushed(1, nil, 0)
	})
}

func TestMetrics_RegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
