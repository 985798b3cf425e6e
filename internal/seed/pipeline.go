package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/albapepper/hoopgeek-data/internal/model"
	"github.com/albapepper/hoopgeek-data/internal/store"
)

// Pending is a record on its way to the store. Key identifies it in logs
// and reports. Match is set when the record came through reconciliation.
// A non-empty Skip marks a record that must not be written.
type Pending struct {
	Key   string
	Row   store.Row
	Match *model.MatchResult
	Skip  string
}

// Write returns a Pending that carries row.
func Write(key string, row store.Row) Pending {
	return Pending{Key: key, Row: row}
}

// Skip returns a Pending that is counted as skipped with reason.
func Skip(key, reason string) Pending {
	return Pending{Key: key, Skip: reason}
}

// FromMatch returns a Pending for a reconciled record. row is only written
// when m matched.
func FromMatch(m model.MatchResult, row store.Row) Pending {
	return Pending{Key: m.Record.Name, Row: row, Match: &m}
}

// Recorder receives one call per classified record.
type Recorder interface {
	RecordOutcome(pipeline, outcome string)
}

// Pipeline classifies records and writes them through a store.Store. It is
// not safe for concurrent use.
type Pipeline struct {
	store         store.Store
	logger        *slog.Logger
	name          string
	batchDelay    time.Duration
	progressEvery int
	recorder      Recorder
	sleep         func(context.Context, time.Duration) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithName labels log lines and metrics.
func WithName(name string) Option {
	return func(p *Pipeline) { p.name = name }
}

// WithBatchDelay pauses between chunks in UpsertBatch.
func WithBatchDelay(d time.Duration) Option {
	return func(p *Pipeline) { p.batchDelay = d }
}

// WithRecorder reports each outcome to r.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithProgressEvery logs progress every n records. Zero disables it.
func WithProgressEvery(n int) Option {
	return func(p *Pipeline) { p.progressEvery = n }
}

// NewPipeline creates a pipeline writing to st.
func NewPipeline(st store.Store, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		store:         st,
		logger:        logger,
		name:          "upsert",
		progressEvery: 50,
		sleep:         sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Upsert writes each record with its own store call. A failed write is
// counted and logged and the remaining records are still processed.
func (p *Pipeline) Upsert(ctx context.Context, table string, recs []Pending, conflict []string) Result {
	var res Result
	reports := store.ReportsInserts(p.store)

	for i, rec := range recs {
		if key, ok := p.classify(rec, conflict, &res); ok {
			rr := p.writeOne(ctx, table, rec, key, conflict, reports)
			p.add(&res, rr, table)
		}
		if p.progressEvery > 0 && (i+1)%p.progressEvery == 0 {
			p.logger.Info("upsert progress", "pipeline", p.name, "table", table,
				"processed", i+1, "total", len(recs), "summary", res.Summary())
		}
	}
	return res
}

// UpsertBatch writes records in chunks of batchSize with one store call per
// chunk. When a chunk fails every record in it is an error. A chunk never
// holds two records with the same key; a repeat starts a new chunk.
func (p *Pipeline) UpsertBatch(ctx context.Context, table string, recs []Pending, conflict []string, batchSize int) Result {
	if batchSize <= 0 {
		batchSize = 100
	}
	var res Result
	reports := store.ReportsInserts(p.store)

	var (
		chunk   []chunkItem
		seen    = map[string]struct{}{}
		batches int
	)
	flush := func() {
		if len(chunk) == 0 {
			return
		}
		if batches > 0 && p.batchDelay > 0 {
			_ = p.sleep(ctx, p.batchDelay)
		}
		batches++
		p.writeChunk(ctx, table, chunk, conflict, reports, &res)
		p.logger.Debug("batch written", "pipeline", p.name, "table", table,
			"batch", batches, "size", len(chunk), "summary", res.Summary())
		chunk = nil
		seen = map[string]struct{}{}
	}

	for _, rec := range recs {
		key, ok := p.classify(rec, conflict, &res)
		if !ok {
			continue
		}
		ks := store.KeyString(key, conflict)
		if _, dup := seen[ks]; dup || len(chunk) == batchSize {
			flush()
		}
		chunk = append(chunk, chunkItem{rec: rec, key: key, keyString: ks})
		seen[ks] = struct{}{}
	}
	flush()
	return res
}

type chunkItem struct {
	rec       Pending
	key       map[string]any
	keyString string
}

// classify settles records that never reach the store. It returns the
// conflict key and true when rec must be written.
func (p *Pipeline) classify(rec Pending, conflict []string, res *Result) (map[string]any, bool) {
	if m := rec.Match; m != nil {
		switch m.Status {
		case model.StatusUnmatched:
			res.AddUnmatched(UnmatchedRecord{Name: m.Record.Name, Team: m.Record.Team, Position: m.Record.Position})
			p.observe(OutcomeUnmatched)
			p.logger.Debug("unmatched record", "pipeline", p.name, "name", m.Record.Name, "team", m.Record.Team, "reason", m.Reason)
			return nil, false
		case model.StatusSkipped:
			p.add(res, RecordResult{Key: rec.Key, Outcome: OutcomeSkipped, Reason: m.Reason}, "")
			return nil, false
		}
	}
	if rec.Skip != "" {
		p.add(res, RecordResult{Key: rec.Key, Outcome: OutcomeSkipped, Reason: rec.Skip}, "")
		return nil, false
	}
	key, ok := store.KeyOf(rec.Row, conflict)
	if !ok {
		p.add(res, RecordResult{
			Key:     rec.Key,
			Outcome: OutcomeSkipped,
			Reason:  "missing key " + strings.Join(conflict, ","),
		}, "")
		return nil, false
	}
	return key, true
}

func (p *Pipeline) writeOne(ctx context.Context, table string, rec Pending, key map[string]any, conflict []string, reports bool) RecordResult {
	existed := false
	if !reports {
		ok, err := p.store.Exists(ctx, table, key)
		if err != nil {
			return RecordResult{Key: rec.Key, Outcome: OutcomeError, Err: fmt.Errorf("exists check: %w", err)}
		}
		existed = ok
	}

	written, err := p.store.Upsert(ctx, table, []store.Row{rec.Row}, conflict)
	if err != nil {
		return RecordResult{Key: rec.Key, Outcome: OutcomeError, Err: err}
	}

	inserted := !existed
	if reports {
		if len(written) == 0 {
			return RecordResult{Key: rec.Key, Outcome: OutcomeError, Err: errNotReported}
		}
		inserted = written[0].Inserted
	}
	return RecordResult{Key: rec.Key, Outcome: insertOutcome(inserted)}
}

var errNotReported = errors.New("store did not report the written row")

func (p *Pipeline) writeChunk(ctx context.Context, table string, chunk []chunkItem, conflict []string, reports bool, res *Result) {
	existed := map[string]bool{}
	items := chunk[:0:0]
	if reports {
		items = chunk
	} else {
		for _, it := range chunk {
			ok, err := p.store.Exists(ctx, table, it.key)
			if err != nil {
				p.add(res, RecordResult{Key: it.rec.Key, Outcome: OutcomeError, Err: fmt.Errorf("exists check: %w", err)}, table)
				continue
			}
			existed[it.keyString] = ok
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return
	}

	rows := make([]store.Row, len(items))
	for i, it := range items {
		rows[i] = it.rec.Row
	}

	written, err := p.store.Upsert(ctx, table, rows, conflict)
	if err != nil {
		p.logger.Error("batch upsert failed", "pipeline", p.name, "table", table,
			"size", len(items), "first_key", items[0].rec.Key, "error", err)
		for _, it := range items {
			rr := RecordResult{Key: it.rec.Key, Outcome: OutcomeError, Err: err}
			res.Add(rr)
			p.observe(rr.Outcome)
		}
		return
	}

	inserted := make(map[string]bool, len(written))
	for _, w := range written {
		inserted[store.WrittenKeyString(w, conflict)] = w.Inserted
	}
	for _, it := range items {
		if !reports {
			p.add(res, RecordResult{Key: it.rec.Key, Outcome: insertOutcome(!existed[it.keyString])}, table)
			continue
		}
		ins, ok := inserted[it.keyString]
		if !ok {
			p.add(res, RecordResult{Key: it.rec.Key, Outcome: OutcomeError, Err: errNotReported}, table)
			continue
		}
		p.add(res, RecordResult{Key: it.rec.Key, Outcome: insertOutcome(ins)}, table)
	}
}

// add counts rr, reports it and logs failures with the record key.
func (p *Pipeline) add(res *Result, rr RecordResult, table string) {
	res.Add(rr)
	p.observe(rr.Outcome)
	switch rr.Outcome {
	case OutcomeError:
		p.logger.Error("upsert failed", "pipeline", p.name, "table", table, "key", rr.Key, "error", rr.Err)
	case OutcomeSkipped:
		p.logger.Debug("record skipped", "pipeline", p.name, "key", rr.Key, "reason", rr.Reason)
	}
}

func (p *Pipeline) observe(o Outcome) {
	if p.recorder != nil {
		p.recorder.RecordOutcome(p.name, string(o))
	}
}

func insertOutcome(inserted bool) Outcome {
	if inserted {
		return OutcomeImported
	}
	return OutcomeUpdated
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
