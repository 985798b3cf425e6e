package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpsert(t *testing.T) {
	t.Parallel()

	rows := []Row{
		{"player_id": 7, "pts": 28.5, "reb": nil},
		{"player_id": 9, "pts": 24.0},
	}
	sql, args, err := buildUpsert("public.espn_player_projections", rows, []string{"player_id"})
	require.NoError(t, err)

	assert.Equal(t,
		`INSERT INTO "public"."espn_player_projections" AS existing ("player_id", "pts", "reb") VALUES ($1, $2, $3), ($4, $5, $6)`+
			` ON CONFLICT ("player_id") DO UPDATE SET "pts" = COALESCE(EXCLUDED."pts", existing."pts"), "reb" = COALESCE(EXCLUDED."reb", existing."reb")`+
			` RETURNING existing."player_id"::text, (xmax = 0) AS inserted`,
		sql)
	assert.Equal(t, []any{7, 28.5, nil, 9, 24.0, nil}, args)
}

func TestBuildUpsertKeyOnlyRows(t *testing.T) {
	t.Parallel()

	sql, _, err := buildUpsert("t", []Row{{"id": 1}}, []string{"id"})
	require.NoError(t, err)
	assert.Contains(t, sql, `DO UPDATE SET "id" = EXCLUDED."id"`)
}

func TestBuildUpsertRejectsMissingConflictColumn(t *testing.T) {
	t.Parallel()

	_, _, err := buildUpsert("t", []Row{{"name": "x"}}, []string{"id"})
	require.Error(t, err)

	_, _, err = buildUpsert("t", []Row{{"name": "x"}}, nil)
	require.Error(t, err)
}

func TestBuildSelect(t *testing.T) {
	t.Parallel()

	sql, args := buildSelect("players", Query{
		Columns: []string{"id", "name"},
		Filter:  map[string]any{"is_active": true, "team_id": nil},
		OrderBy: []string{"id"},
		Limit:   1000,
		Offset:  2000,
	})
	assert.Equal(t,
		`SELECT "id", "name" FROM "players" WHERE "is_active" = $1 AND "team_id" IS NULL ORDER BY "id" LIMIT $2 OFFSET $3`,
		sql)
	assert.Equal(t, []any{true, 1000, 2000}, args)

	sql, args = buildSelect("players", Query{})
	assert.Equal(t, `SELECT * FROM "players"`, sql)
	assert.Empty(t, args)
}

func TestKeyOf(t *testing.T) {
	t.Parallel()

	n := 7
	key, ok := KeyOf(Row{"player_id": &n, "season_id": "2023-24"}, []string{"player_id", "season_id"})
	require.True(t, ok)
	assert.Equal(t, "player_id=7,season_id=2023-24", KeyString(key, []string{"player_id", "season_id"}))

	_, ok = KeyOf(Row{"player_id": (*int)(nil)}, []string{"player_id"})
	assert.False(t, ok)

	_, ok = KeyOf(Row{}, []string{"player_id"})
	assert.False(t, ok)
}

func TestWrittenKeyStringMatchesKeyString(t *testing.T) {
	t.Parallel()

	conflict := []string{"player_id", "game_id"}
	key, ok := KeyOf(Row{"player_id": int64(7), "game_id": "0022400061"}, conflict)
	require.True(t, ok)

	w := Written{Key: map[string]string{"player_id": "7", "game_id": "0022400061"}}
	assert.Equal(t, KeyString(key, conflict), WrittenKeyString(w, conflict))
}

// pagedStore serves a fixed number of sequential ids.
type pagedStore struct {
	total   int
	calls   int
	failAt  int
	offsets []int
}

func (s *pagedStore) Select(_ context.Context, _ string, q Query) ([]Row, error) {
	s.calls++
	s.offsets = append(s.offsets, q.Offset)
	if s.failAt > 0 && s.calls == s.failAt {
		return nil, errors.New("connection reset")
	}
	var out []Row
	for i := q.Offset; i < s.total && len(out) < q.Limit; i++ {
		out = append(out, Row{"id": i})
	}
	return out, nil
}

func (s *pagedStore) Upsert(context.Context, string, []Row, []string) ([]Written, error) {
	return nil, nil
}

func (s *pagedStore) Exists(context.Context, string, map[string]any) (bool, error) {
	return false, nil
}

func (s *pagedStore) Call(context.Context, string, ...any) (int, error) { return 0, nil }

func TestPagesStopsOnShortPage(t *testing.T) {
	t.Parallel()

	st := &pagedStore{total: 25}
	rows, err := All(context.Background(), st, "players", Query{}, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 25)
	assert.Equal(t, []int{0, 10, 20}, st.offsets)
}

func TestPagesExactMultipleMakesOneEmptyRead(t *testing.T) {
	t.Parallel()

	st := &pagedStore{total: 20}
	var pages int
	for rows, err := range Pages(context.Background(), st, "players", Query{}, 10) {
		require.NoError(t, err)
		require.Len(t, rows, 10)
		pages++
	}
	assert.Equal(t, 2, pages)
	assert.Equal(t, 3, st.calls)
}

func TestPagesIsRestartable(t *testing.T) {
	t.Parallel()

	st := &pagedStore{total: 5}
	seq := Pages(context.Background(), st, "players", Query{}, 10)
	for range seq {
	}
	for range seq {
	}
	assert.Equal(t, []int{0, 0}, st.offsets)
}

func TestPagesYieldsErrorOnce(t *testing.T) {
	t.Parallel()

	st := &pagedStore{total: 50, failAt: 2}
	var errs int
	var seen int
	for rows, err := range Pages(context.Background(), st, "players", Query{}, 10) {
		if err != nil {
			errs++
			continue
		}
		seen += len(rows)
	}
	assert.Equal(t, 1, errs)
	assert.Equal(t, 10, seen)

	_, err := All(context.Background(), &pagedStore{total: 50, failAt: 1}, "players", Query{}, 10)
	require.Error(t, err)
}
