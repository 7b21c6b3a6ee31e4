package testutil

import (
	"context"
	"maps"
	"sync"

	"github.com/roach88/cqlbridge/internal/cql"
)

// SliceIter serves rows from memory. Err is returned by Close.
type SliceIter struct {
	Rows []map[string]any
	Err  error

	pos    int
	closed bool
}

// Next implements cql.Iter.
func (it *SliceIter) Next(row map[string]any) bool {
	if it.closed || it.pos >= len(it.Rows) {
		return false
	}
	maps.Copy(row, it.Rows[it.pos])
	it.pos++
	return true
}

// Close implements cql.Iter.
func (it *SliceIter) Close() error {
	it.closed = true
	return it.Err
}

// Closed reports whether Close was called.
func (it *SliceIter) Closed() bool { return it.closed }

// Call is one statement seen by a RecordingSession.
type Call struct {
	Statement string
	Values    []any
}

// RecordingSession is a cql.Session that records every statement.
//
// Query answers through OnQuery and Exec through OnExec; both may be nil.
// Thread-safety: all methods are safe for concurrent use.
type RecordingSession struct {
	OnQuery func(stmt string, values []any) *SliceIter
	OnExec  func(stmt string, values []any) error

	mu      sync.Mutex
	queries []Call
	execs   []Call
	closed  bool
}

var _ cql.Session = (*RecordingSession)(nil)

// Query implements cql.Session.
func (s *RecordingSession) Query(_ context.Context, stmt string, values ...any) cql.Iter {
	s.mu.Lock()
	s.queries = append(s.queries, Call{Statement: stmt, Values: values})
	on := s.OnQuery
	s.mu.Unlock()
	if on == nil {
		return &SliceIter{}
	}
	if it := on(stmt, values); it != nil {
		return it
	}
	return &SliceIter{}
}

// Exec implements cql.Session.
func (s *RecordingSession) Exec(ctx context.Context, stmt string, values ...any) error {
	s.mu.Lock()
	s.execs = append(s.execs, Call{Statement: stmt, Values: values})
	on := s.OnExec
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if on == nil {
		return nil
	}
	return on(stmt, values)
}

// Close implements cql.Session.
func (s *RecordingSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Queries returns a copy of the recorded Query calls.
func (s *RecordingSession) Queries() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.queries...)
}

// Execs returns a copy of the recorded Exec calls.
func (s *RecordingSession) Execs() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.execs...)
}

// Closed reports whether Close was called.
func (s *RecordingSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
