// Package store abstracts the tabular datastore the importers write to.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Row is one record keyed by column name. Nil values mean "no value" and
// never overwrite data already stored.
type Row map[string]any

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Set stores v under col, unwrapping pointers. A nil pointer is stored as
// nil.
func (r Row) Set(col string, v any) {
	r[col] = Deref(v)
}

// Query describes a filtered, ordered, paged read.
type Query struct {
	Columns []string
	Filter  map[string]any
	OrderBy []string
	Limit   int
	Offset  int
}

// Written reports the outcome of one row of an upsert. Key holds the
// conflict column values formatted as text.
type Written struct {
	Key      map[string]string
	Inserted bool
}

// Store is the datastore surface the pipeline and importers use.
type Store interface {
	// Upsert inserts rows or updates the existing row that shares the
	// conflict columns. It is atomic per call.
	Upsert(ctx context.Context, table string, rows []Row, conflict []string) ([]Written, error)
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Exists(ctx context.Context, table string, key map[string]any) (bool, error)
	// Call invokes a stored procedure and returns its integer result.
	Call(ctx context.Context, fn string, args ...any) (int, error)
}

// InsertReporter is implemented by stores whose Upsert reports whether each
// row was inserted. Stores that do not implement it are assumed to report.
type InsertReporter interface {
	ReportsInserts() bool
}

// ReportsInserts reports whether st classifies inserts itself.
func ReportsInserts(st Store) bool {
	if r, ok := st.(InsertReporter); ok {
		return r.ReportsInserts()
	}
	return true
}

// KeyOf extracts the conflict key of row. ok is false when any conflict
// column is absent or nil.
func KeyOf(row Row, conflict []string) (key map[string]any, ok bool) {
	key = make(map[string]any, len(conflict))
	for _, col := range conflict {
		v, present := row[col]
		if !present || Deref(v) == nil {
			return nil, false
		}
		key[col] = Deref(v)
	}
	return key, true
}

// KeyString renders a key in conflict-column order for use as a map key.
func KeyString(key map[string]any, conflict []string) string {
	parts := make([]string, len(conflict))
	for i, col := range conflict {
		parts[i] = col + "=" + FormatValue(key[col])
	}
	return strings.Join(parts, ",")
}

// WrittenKeyString is KeyString for the text keys a store returns.
func WrittenKeyString(w Written, conflict []string) string {
	parts := make([]string, len(conflict))
	for i, col := range conflict {
		parts[i] = col + "=" + w.Key[col]
	}
	return strings.Join(parts, ",")
}

// FormatValue renders v the way Postgres casts it to text.
func FormatValue(v any) string {
	switch x := Deref(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return fmt.Sprintf("%g", x)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return fmt.Sprint(x)
	}
}

// Columns returns the sorted union of column names across rows.
func Columns(rows []Row) []string {
	seen := map[string]struct{}{}
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Deref unwraps the pointer types the normalizers return; nil pointers
// become untyped nil.
func Deref(v any) any {
	switch x := v.(type) {
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *int64:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}
