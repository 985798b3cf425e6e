package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// DryRun reads through to another Store but never writes. Upsert validates
// and counts rows, and Call is a no-op. It does not report inserts, so the
// pipeline asks Exists, which also answers true for keys withheld earlier
// in the run.
type DryRun struct {
	next   Store
	logger *slog.Logger

	mu      sync.Mutex
	skipped map[string]int
	keys    map[string]map[string]struct{}
}

// NewDryRun wraps next.
func NewDryRun(next Store, logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{next: next, logger: logger, skipped: map[string]int{}, keys: map[string]map[string]struct{}{}}
}

// ReportsInserts implements InsertReporter.
func (d *DryRun) ReportsInserts() bool { return false }

// Upsert implements Store without writing.
func (d *DryRun) Upsert(ctx context.Context, table string, rows []Row, conflict []string) ([]Written, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Written, len(rows))
	withheld := make([]string, len(rows))
	for i, r := range rows {
		key, ok := KeyOf(r, conflict)
		if !ok {
			return nil, fmt.Errorf("upsert %s: row %d missing conflict columns %v", table, i, conflict)
		}
		w := Written{Key: make(map[string]string, len(conflict))}
		for _, col := range conflict {
			w.Key[col] = FormatValue(key[col])
		}
		out[i] = w
		withheld[i] = canonicalKey(key)
	}

	d.mu.Lock()
	d.skipped[table] += len(rows)
	if d.keys[table] == nil {
		d.keys[table] = map[string]struct{}{}
	}
	for _, k := range withheld {
		d.keys[table][k] = struct{}{}
	}
	d.mu.Unlock()
	d.logger.Debug("dry run: upsert not written", "table", table, "rows", len(rows))
	return out, nil
}

// Select implements Store.
func (d *DryRun) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	return d.next.Select(ctx, table, q)
}

// Exists implements Store. Keys withheld by an earlier Upsert count as
// stored.
func (d *DryRun) Exists(ctx context.Context, table string, key map[string]any) (bool, error) {
	d.mu.Lock()
	_, withheld := d.keys[table][canonicalKey(key)]
	d.mu.Unlock()
	if withheld {
		return true, nil
	}
	return d.next.Exists(ctx, table, key)
}

// Call implements Store without invoking fn.
func (d *DryRun) Call(ctx context.Context, fn string, args ...any) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d.logger.Info("dry run: procedure not called", "function", fn, "args", args)
	return 0, nil
}

// Unwritten returns the number of rows withheld per table.
func (d *DryRun) Unwritten() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]int, len(d.skipped))
	for k, v := range d.skipped {
		out[k] = v
	}
	return out
}

// canonicalKey renders key in sorted column order.
func canonicalKey(key map[string]any) string {
	cols := make([]string, 0, len(key))
	for col := range key {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return KeyString(key, cols)
}
