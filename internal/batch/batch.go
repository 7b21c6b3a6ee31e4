// Package batch accumulates insert and delete operations and dispatches them
// concurrently once a threshold is reached or on an explicit flush.
//
// There is no atomicity across items. When an Encoder is set every item of
// a flush is encoded before any is dispatched, so a bad item fails the flush
// with nothing written. A failed dispatch cancels the items not yet started.
// Either way every pending item is discarded and the first error reported.
package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/roach88/cqlbridge/internal/logutil"
	"github.com/roach88/cqlbridge/internal/metrics"
)

// Defaults for New.
const (
	DefaultConcurrency = 4
	DefaultThreshold   = 100

	releaseTimeout = 5 * time.Second
)

// Kind tells inserts from deletes.
type Kind int

const (
	KindInsert Kind = iota + 1
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Item is one pending write. Row is set for inserts, RowID for deletes.
// Statement and Args are filled by the Encoder.
type Item struct {
	Kind  Kind
	Row   map[string]any
	RowID string

	Statement string
	Args      []any
}

// Insert creates an insert item.
func Insert(row map[string]any) Item {
	return Item{Kind: KindInsert, Row: row}
}

// Delete creates a delete item for the row identifier id.
func Delete(id string) Item {
	return Item{Kind: KindDelete, RowID: id}
}

// Dispatcher executes one item. It must honour ctx cancellation.
type Dispatcher func(ctx context.Context, item Item) error

// Encoder turns an item into its bound statement. It runs on the flushing
// goroutine, before dispatch.
type Encoder func(item Item) (Item, error)

// Batcher queues items and flushes them through a bounded goroutine pool.
// Add and Flush are safe for concurrent use.
type Batcher struct {
	dispatch    Dispatcher
	encode      Encoder
	concurrency int
	threshold   int
	logger      *zap.Logger
	metrics     *metrics.Metrics

	pool *ants.Pool

	mu      sync.Mutex
	pending []Item
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithConcurrency sets how many items are dispatched at once.
func WithConcurrency(n int) Option {
	return func(b *Batcher) {
		b.concurrency = n
	}
}

// WithThreshold sets the pending count that triggers a flush from Add.
func WithThreshold(n int) Option {
	return func(b *Batcher) {
		b.threshold = n
	}
}

// WithEncoder sets the encoder every item of a flush passes through before
// the first dispatch.
func WithEncoder(e Encoder) Option {
	return func(b *Batcher) {
		b.encode = e
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Batcher) {
		b.logger = l
	}
}

// WithMetrics sets the flush collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Batcher) {
		b.metrics = m
	}
}

// New creates a Batcher that executes items with dispatch.
func New(dispatch Dispatcher, opts ...Option) (*Batcher, error) {
	b := &Batcher{
		dispatch:    dispatch,
		concurrency: DefaultConcurrency,
		threshold:   DefaultThreshold,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.concurrency < 1 {
		return nil, errors.Newf("batch concurrency must be at least 1, got %d", b.concurrency)
	}
	if b.threshold < 1 {
		return nil, errors.Newf("batch threshold must be at least 1, got %d", b.threshold)
	}
	b.logger = logutil.OrNop(b.logger).Named("batch")

	pool, err := ants.NewPool(b.concurrency, ants.WithNonblocking(false))
	if err != nil {
		return nil, errors.Wrap(err, "create dispatch pool")
	}
	b.pool = pool
	return b, nil
}

// Add queues item and flushes when the queue reaches the threshold. The
// error is the flush error, if a flush ran.
func (b *Batcher) Add(ctx context.Context, item Item) error {
	b.mu.Lock()
	b.pending = append(b.pending, item)
	full := len(b.pending) >= b.threshold
	b.mu.Unlock()
	if !full {
		return nil
	}
	return b.Flush(ctx)
}

// Pending returns the number of queued items.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Discard drops every queued item without executing it and returns how
// many were dropped.
func (b *Batcher) Discard() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.pending)
	b.pending = nil
	return n
}

// Flush executes every queued item. The queue is empty when Flush returns,
// whether or not it failed.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	items := b.pending
	b.pending = nil
	b.mu.Unlock()
	if len(items) == 0 {
		return nil
	}

	start := time.Now()
	if err := b.encodeAll(items); err != nil {
		b.metrics.Flushed(len(items), err, len(items))
		b.logger.Warn("flush rejected",
			zap.Int("items", len(items)),
			zap.Error(err))
		return errors.Wrapf(err, "flush %d items", len(items))
	}
	done, err := b.run(ctx, items)
	b.metrics.Flushed(len(items), err, len(items)-done)
	if err != nil {
		b.logger.Warn("flush failed",
			zap.Int("items", len(items)),
			zap.Int("executed", done),
			zap.Error(err))
		return errors.Wrapf(err, "flush %d items", len(items))
	}
	b.logger.Debug("flushed",
		zap.Int("items", len(items)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// encodeAll encodes items in place and stops at the first failure.
func (b *Batcher) encodeAll(items []Item) error {
	if b.encode == nil {
		return nil
	}
	for i, item := range items {
		encoded, err := b.encode(item)
		if err != nil {
			return errors.Wrapf(err, "encode %s item %d", item.Kind, i)
		}
		items[i] = encoded
	}
	return nil
}

// run dispatches items through the pool and stops submitting after the
// first failure. It returns how many items succeeded.
func (b *Batcher) run(parent context.Context, items []Item) (int, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		done     atomic.Int64
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(errors.Newf("%s dispatch panicked: %v", item.Kind, r))
				}
			}()
			if ctx.Err() != nil {
				return
			}
			if err := b.dispatch(ctx, item); err != nil {
				fail(err)
				return
			}
			done.Add(1)
		})
		if err != nil {
			wg.Done()
			fail(errors.Wrap(err, "submit to dispatch pool"))
			break
		}
	}
	wg.Wait()

	n := int(done.Load())
	if firstErr == nil && n < len(items) && parent.Err() != nil {
		firstErr = parent.Err()
	}
	return n, firstErr
}

// Close releases the dispatch pool. Pending items are dropped.
func (b *Batcher) Close() error {
	if n := b.Discard(); n > 0 {
		b.logger.Warn("closing with pending items", zap.Int("items", n))
	}
	if err := b.pool.ReleaseTimeout(releaseTimeout); err != nil {
		return errors.Wrap(err, "release dispatch pool")
	}
	return nil
}
