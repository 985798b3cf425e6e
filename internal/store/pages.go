package store

import (
	"context"
	"iter"
)

// DefaultPageSize matches the hosted datastore's row cap per request.
const DefaultPageSize = 1000

// Pages yields successive pages of q until a page shorter than pageSize is
// returned. Each iteration starts again from q.Offset. An error is yielded
// once and ends the sequence.
func Pages(ctx context.Context, st Store, table string, q Query, pageSize int) iter.Seq2[[]Row, error] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return func(yield func([]Row, error) bool) {
		offset := q.Offset
		for {
			page := q
			page.Limit = pageSize
			page.Offset = offset

			rows, err := st.Select(ctx, table, page)
			if err != nil {
				yield(nil, err)
				return
			}
			if len(rows) > 0 && !yield(rows, nil) {
				return
			}
			if len(rows) < pageSize {
				return
			}
			offset += pageSize
		}
	}
}

// All drains Pages into a single slice.
func All(ctx context.Context, st Store, table string, q Query, pageSize int) ([]Row, error) {
	var out []Row
	for rows, err := range Pages(ctx, st, table, q, pageSize) {
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}
