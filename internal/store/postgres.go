package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/hoopgeek-data/internal/normalize"
)

// maxParams is the Postgres limit on bind parameters per statement.
const maxParams = 65535

// Querier is the subset of pgxpool.Pool the Postgres store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is a Store over a pgx connection pool.
type Postgres struct {
	q Querier
}

// NewPostgres wraps q, normally a *db.Pool.
func NewPostgres(q Querier) *Postgres {
	return &Postgres{q: q}
}

// ReportsInserts is true: classification comes from RETURNING (xmax = 0).
func (p *Postgres) ReportsInserts() bool { return true }

// Upsert writes rows in one INSERT ... ON CONFLICT statement. Non-key
// columns are merged with COALESCE so nil values keep what is stored.
func (p *Postgres) Upsert(ctx context.Context, table string, rows []Row, conflict []string) ([]Written, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	sql, args, err := buildUpsert(table, rows, conflict)
	if err != nil {
		return nil, err
	}

	res, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("upsert %s: %w", table, err)
	}
	defer res.Close()

	out := make([]Written, 0, len(rows))
	for res.Next() {
		keys := make([]*string, len(conflict))
		var inserted bool
		dest := make([]any, 0, len(conflict)+1)
		for i := range keys {
			dest = append(dest, &keys[i])
		}
		dest = append(dest, &inserted)
		if err := res.Scan(dest...); err != nil {
			return nil, fmt.Errorf("upsert %s: scan: %w", table, err)
		}

		w := Written{Key: make(map[string]string, len(conflict)), Inserted: inserted}
		for i, col := range conflict {
			if keys[i] != nil {
				w.Key[col] = *keys[i]
			}
		}
		out = append(out, w)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("upsert %s: %w", table, err)
	}
	return out, nil
}

// Select runs q against table.
func (p *Postgres) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	sql, args := buildSelect(table, q)
	res, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	maps, err := pgx.CollectRows(res, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	out := make([]Row, len(maps))
	for i, m := range maps {
		out[i] = Row(m)
	}
	return out, nil
}

// Exists reports whether a row matching key is stored.
func (p *Postgres) Exists(ctx context.Context, table string, key map[string]any) (bool, error) {
	where, args := buildWhere(key, 1)
	sql := "SELECT EXISTS (SELECT 1 FROM " + quoteIdent(table) + where + ")"
	var ok bool
	if err := p.q.QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists %s: %w", table, err)
	}
	return ok, nil
}

// Call runs SELECT fn($1, ...) and converts the result to an int. Void or
// null results count as zero.
func (p *Postgres) Call(ctx context.Context, fn string, args ...any) (int, error) {
	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := "SELECT " + quoteIdent(fn) + "(" + strings.Join(placeholders, ", ") + ")::text"

	var raw *string
	if err := p.q.QueryRow(ctx, sql, args...).Scan(&raw); err != nil {
		return 0, fmt.Errorf("call %s: %w", fn, err)
	}
	if raw == nil {
		return 0, nil
	}
	if n := normalize.ToInt(*raw); n != nil {
		return *n, nil
	}
	return 0, nil
}

// ---------------------------------------------------------------------------
// SQL builders
// ---------------------------------------------------------------------------

func buildUpsert(table string, rows []Row, conflict []string) (string, []any, error) {
	if len(conflict) == 0 {
		return "", nil, fmt.Errorf("upsert %s: no conflict columns", table)
	}
	cols := Columns(rows)
	for _, c := range conflict {
		if !slices.Contains(cols, c) {
			return "", nil, fmt.Errorf("upsert %s: conflict column %q missing from rows", table, c)
		}
	}
	if len(rows)*len(cols) > maxParams {
		return "", nil, fmt.Errorf("upsert %s: %d rows x %d columns exceeds parameter limit", table, len(rows), len(cols))
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdent(table))
	b.WriteString(" AS existing (")
	b.WriteString(joinIdents(cols))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(cols))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, col := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			args = append(args, Deref(row[col]))
			fmt.Fprintf(&b, "$%d", len(args))
		}
		b.WriteByte(')')
	}

	b.WriteString(" ON CONFLICT (")
	b.WriteString(joinIdents(conflict))
	b.WriteString(") DO UPDATE SET ")

	var sets []string
	for _, col := range cols {
		if slices.Contains(conflict, col) {
			continue
		}
		q := quoteIdent(col)
		sets = append(sets, q+" = COALESCE(EXCLUDED."+q+", existing."+q+")")
	}
	if len(sets) == 0 {
		q := quoteIdent(conflict[0])
		sets = append(sets, q+" = EXCLUDED."+q)
	}
	b.WriteString(strings.Join(sets, ", "))

	b.WriteString(" RETURNING ")
	for _, c := range conflict {
		b.WriteString("existing." + quoteIdent(c) + "::text, ")
	}
	b.WriteString("(xmax = 0) AS inserted")

	return b.String(), args, nil
}

func buildSelect(table string, q Query) (string, []any) {
	cols := "*"
	if len(q.Columns) > 0 {
		cols = joinIdents(q.Columns)
	}

	where, args := buildWhere(q.Filter, 1)
	var b strings.Builder
	b.WriteString("SELECT " + cols + " FROM " + quoteIdent(table) + where)

	if len(q.OrderBy) > 0 {
		b.WriteString(" ORDER BY " + joinIdents(q.OrderBy))
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

// buildWhere renders equality predicates in sorted column order. Nil
// values become IS NULL.
func buildWhere(filter map[string]any, start int) (string, []any) {
	if len(filter) == 0 {
		return "", nil
	}
	cols := make([]string, 0, len(filter))
	for k := range filter {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	preds := make([]string, 0, len(cols))
	var args []any
	for _, col := range cols {
		v := Deref(filter[col])
		if v == nil {
			preds = append(preds, quoteIdent(col)+" IS NULL")
			continue
		}
		args = append(args, v)
		preds = append(preds, fmt.Sprintf("%s = $%d", quoteIdent(col), start+len(args)-1))
	}
	return " WHERE " + strings.Join(preds, " AND "), args
}

// quoteIdent sanitizes a possibly schema-qualified identifier.
func quoteIdent(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func joinIdents(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(q, ", ")
}
