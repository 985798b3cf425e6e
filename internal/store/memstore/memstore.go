// Package memstore is an in-memory store.Store used by tests and dry runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/albapepper/hoopgeek-data/internal/normalize"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

// Procedure is a stored procedure stand-in for Call.
type Procedure func(args ...any) (int, error)

// FailFunc lets tests reject individual rows; a non-nil error fails the
// whole Upsert call that contains the row.
type FailFunc func(table string, row store.Row) error

// Store keeps tables as insertion-ordered row slices. Rows missing an "id"
// column get a sequential int64 one, mirroring a serial primary key.
type Store struct {
	mu             sync.Mutex
	tables         map[string][]store.Row
	nextID         map[string]int64
	procs          map[string]Procedure
	fail           FailFunc
	reportsInserts bool
	upsertCalls    int
}

// Option configures a Store.
type Option func(*Store)

// WithoutInsertReports makes the store behave like a datastore whose upsert
// cannot tell inserts from updates.
func WithoutInsertReports() Option {
	return func(s *Store) { s.reportsInserts = false }
}

// WithFailure installs a row-level failure hook.
func WithFailure(fn FailFunc) Option {
	return func(s *Store) { s.fail = fn }
}

// WithProcedure registers a callable procedure.
func WithProcedure(name string, fn Procedure) Option {
	return func(s *Store) { s.procs[name] = fn }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		tables:         map[string][]store.Row{},
		nextID:         map[string]int64{},
		procs:          map[string]Procedure{},
		reportsInserts: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReportsInserts implements store.InsertReporter.
func (s *Store) ReportsInserts() bool { return s.reportsInserts }

// Seed appends rows to table without conflict handling.
func (s *Store) Seed(table string, rows ...store.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.tables[table] = append(s.tables[table], s.withID(table, r.Clone()))
	}
}

// Rows returns a copy of every row in table.
func (s *Store) Rows(table string) []store.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Row, len(s.tables[table]))
	for i, r := range s.tables[table] {
		out[i] = r.Clone()
	}
	return out
}

// UpsertCalls counts Upsert invocations, including failed ones.
func (s *Store) UpsertCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsertCalls
}

// Upsert implements store.Store. Nil values never overwrite stored ones.
func (s *Store) Upsert(ctx context.Context, table string, rows []store.Row, conflict []string) ([]store.Written, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++

	keys := make([]map[string]any, len(rows))
	for i, r := range rows {
		key, ok := store.KeyOf(r, conflict)
		if !ok {
			return nil, fmt.Errorf("upsert %s: row %d missing conflict columns %v", table, i, conflict)
		}
		keys[i] = key
		if s.fail != nil {
			if err := s.fail(table, r); err != nil {
				return nil, fmt.Errorf("upsert %s: %w", table, err)
			}
		}
	}

	out := make([]store.Written, 0, len(rows))
	for i, r := range rows {
		w := store.Written{Key: make(map[string]string, len(conflict))}
		for _, col := range conflict {
			w.Key[col] = store.FormatValue(keys[i][col])
		}

		if existing := s.find(table, keys[i]); existing != nil {
			for k, v := range r {
				if v = store.Deref(v); v != nil {
					existing[k] = v
				}
			}
		} else {
			fresh := make(store.Row, len(r))
			for k, v := range r {
				fresh[k] = store.Deref(v)
			}
			s.tables[table] = append(s.tables[table], s.withID(table, fresh))
			w.Inserted = true
		}
		out = append(out, w)
	}
	return out, nil
}

// Select implements store.Store with equality filters and ascending order.
func (s *Store) Select(ctx context.Context, table string, q store.Query) ([]store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []store.Row
	for _, r := range s.tables[table] {
		if matches(r, q.Filter) {
			matched = append(matched, r)
		}
	}
	if len(q.OrderBy) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, col := range q.OrderBy {
				if c := compare(matched[i][col], matched[j][col]); c != 0 {
					return c < 0
				}
			}
			return false
		})
	}

	if q.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]store.Row, len(matched))
	for i, r := range matched {
		if len(q.Columns) == 0 {
			out[i] = r.Clone()
			continue
		}
		proj := make(store.Row, len(q.Columns))
		for _, col := range q.Columns {
			proj[col] = r[col]
		}
		out[i] = proj
	}
	return out, nil
}

// Exists implements store.Store.
func (s *Store) Exists(ctx context.Context, table string, key map[string]any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(table, key) != nil, nil
}

// Call implements store.Store by dispatching to a registered Procedure.
func (s *Store) Call(ctx context.Context, fn string, args ...any) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	proc, ok := s.procs[fn]
	s.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("call %s: function does not exist", fn)
	}
	return proc(args...)
}

func (s *Store) find(table string, key map[string]any) store.Row {
	for _, r := range s.tables[table] {
		if matches(r, key) {
			return r
		}
	}
	return nil
}

func (s *Store) withID(table string, r store.Row) store.Row {
	if v, ok := r["id"]; ok && v != nil {
		if id := normalize.ToInt(v); id != nil && int64(*id) > s.nextID[table] {
			s.nextID[table] = int64(*id)
		}
		return r
	}
	s.nextID[table]++
	r["id"] = s.nextID[table]
	return r
}

func matches(r store.Row, filter map[string]any) bool {
	for col, want := range filter {
		got := r[col]
		want = store.Deref(want)
		if want == nil {
			if got != nil {
				return false
			}
			continue
		}
		if got == nil || store.FormatValue(got) != store.FormatValue(want) {
			return false
		}
	}
	return true
}

// compare orders numbers numerically and everything else as text. Nil sorts
// last, as Postgres does for ascending order.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	fa, fb := normalize.ToFloat(a), normalize.ToFloat(b)
	if fa != nil && fb != nil {
		switch {
		case *fa < *fb:
			return -1
		case *fa > *fb:
			return 1
		}
		return 0
	}
	sa, sb := store.FormatValue(a), store.FormatValue(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}
