package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lni/goutils/leaktest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cqlbridge/internal/metrics"
)

// recorder is a Dispatcher that records every item it executes.
type recorder struct {
	mu    sync.Mutex
	items []Item
	fail  func(Item) error
}

func (r *recorder) dispatch(_ context.Context, item Item) error {
	if r.fail != nil {
		if err := r.fail(item); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func newBatcher(t *testing.T, d Dispatcher, opts ...Option) *Batcher {
	t.Helper()
	b, err := New(d, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, b.Close()) })
	return b
}

func TestBatcher_BelowThresholdDoesNotFlush(t *testing.T) {
	r := &recorder{}
	b := newBatcher(t, r.dispatch, WithThreshold(3))

	require.NoError(t, b.Add(context.Background(), Delete(`["1"]`)))
	require.NoError(t, b.Add(context.Background(), Delete(`["2"]`)))

	assert.Equal(t, 0, r.count())
	assert.Equal(t, 2, b.Pending())
}

func TestBatcher_ThresholdFlushesOnce(t *testing.T) {
	r := &recorder{}
	b := newBatcher(t, r.dispatch, WithThreshold(3), WithConcurrency(2))

	require.NoError(t, b.Add(context.Background(), Insert(map[string]any{"i": 0})))
	require.NoError(t, b.Add(context.Background(), Insert(map[string]any{"i": 1})))
	assert.Equal(t, 0, r.count())

	require.NoError(t, b.Add(context.Background(), Insert(map[string]any{"i": 2})))
	assert.Equal(t, 3, r.count())
	assert.Equal(t, 0, b.Pending())

	require.NoError(t, b.Flush(context.Background()))
	assert.Equal(t, 3, r.count(), "empty flush executes nothing")
}

func TestBatcher_FailedFlushClearsPending(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := &recorder{fail: func(item Item) error {
		if item.RowID == "bad" {
			return errors.New("write timeout")
		}
		return nil
	}}
	b := newBatcher(t, r.dispatch, WithThreshold(2), WithConcurrency(1), WithMetrics(metrics.New(reg)))

	require.NoError(t, b.Add(context.Background(), Delete("bad")))
	err := b.Add(context.Background(), Delete("good"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write timeout")
	assert.Contains(t, err.Error(), "flush 2 items")

	assert.Equal(t, 0, b.Pending())
	assert.Equal(t, 0, r.count(), "items after the failure are not started")
	assert.Equal(t, 2.0, gathered(t, reg, "cqlbridge_batch_discarded_items_total"))
}

func TestBatcher_EncodeFailureDispatchesNothing(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := &recorder{}
	encode := func(item Item) (Item, error) {
		if item.RowID == "bad" {
			return item, errors.New("not a key")
		}
		item.Statement = "DELETE"
		item.Args = []any{item.RowID}
		return item, nil
	}
	b := newBatcher(t, r.dispatch, WithEncoder(encode), WithThreshold(4), WithConcurrency(2), WithMetrics(metrics.New(reg)))

	ctx := context.Background()
	require.NoError(t, b.Add(ctx, Delete("1")))
	require.NoError(t, b.Add(ctx, Delete("2")))
	require.NoError(t, b.Add(ctx, Delete("3")))
	err := b.Add(ctx, Delete("bad"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode delete item 3")

	assert.Equal(t, 0, r.count())
	assert.Equal(t, 0, b.Pending())
	assert.Equal(t, 4.0, gathered(t, reg, "cqlbridge_batch_discarded_items_total"))

	require.NoError(t, b.Add(ctx, Delete("4")))
	require.NoError(t, b.Flush(ctx))
	require.Equal(t, 1, r.count())
	assert.Equal(t, []any{"4"}, r.items[0].Args)
}

func TestBatcher_ParentCanceledAfterCompletion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := &recorder{fail: func(Item) error {
		cancel()
		return nil
	}}
	b := newBatcher(t, r.dispatch, WithConcurrency(1))

	require.NoError(t, b.Add(ctx, Delete("x")))
	require.NoError(t, b.Flush(ctx))
	assert.Equal(t, 1, r.count())
}

func TestBatcher_BoundedConcurrency(t *testing.T) {
	defer leaktest.AfterTest(t)()

	var inFlight, peak atomic.Int32
	d := func(ctx context.Context, _ Item) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}
	b, err := New(d, WithConcurrency(2), WithThreshold(1000))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, b.Add(context.Background(), Insert(map[string]any{"i": i})))
	}
	require.NoError(t, b.Flush(context.Background()))
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Positive(t, peak.Load())
	require.NoError(t, b.Close())
}

func TestBatcher_CanceledContext(t *testing.T) {
	r := &recorder{}
	b := newBatcher(t, r.dispatch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, b.Add(ctx, Delete("x")))

	err := b.Flush(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, r.count())
	assert.Equal(t, 0, b.Pending())
}

func TestBatcher_PanicBecomesError(t *testing.T) {
	b := newBatcher(t, func(context.Context, Item) error { panic("boom") }, WithConcurrency(1))

	require.NoError(t, b.Add(context.Background(), Delete("x")))
	err := b.Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked: boom")
}

func TestBatcher_CloseDiscards(t *testing.T) {
	r := &recorder{}
	b, err := New(r.dispatch)
	require.NoError(t, err)

	require.NoError(t, b.Add(context.Background(), Delete("x")))
	require.NoError(t, b.Close())
	assert.Equal(t, 0, b.Pending())
	assert.Equal(t, 0, r.count())
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(nil, WithConcurrency(0))
	assert.Error(t, err)
	_, err = New(nil, WithThreshold(0))
	assert.Error(t, err)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "insert", KindInsert.String())
	assert.Equal(t, "delete", KindDelete.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func gathered(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		var sum float64
		for _, m := range f.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
		return sum
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
