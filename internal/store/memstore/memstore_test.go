package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/hoopgeek-data/internal/store"
)

func TestUpsertInsertsThenUpdates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	conflict := []string{"player_id"}

	w, err := s.Upsert(ctx, "proj", []store.Row{{"player_id": 7, "pts": 28.5}}, conflict)
	require.NoError(t, err)
	require.Len(t, w, 1)
	assert.True(t, w[0].Inserted)
	assert.Equal(t, "7", w[0].Key["player_id"])

	w, err = s.Upsert(ctx, "proj", []store.Row{{"player_id": 7, "pts": 30.1, "reb": nil}}, conflict)
	require.NoError(t, err)
	assert.False(t, w[0].Inserted)

	rows := s.Rows("proj")
	require.Len(t, rows, 1)
	assert.Equal(t, 30.1, rows[0]["pts"])
	assert.Equal(t, int64(1), rows[0]["id"])
}

func TestUpsertNilKeepsStoredValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	team := "Denver Nuggets"
	_, err := s.Upsert(ctx, "players", []store.Row{{"nba_player_id": 203999, "team_name": &team}}, []string{"nba_player_id"})
	require.NoError(t, err)

	_, err = s.Upsert(ctx, "players", []store.Row{{"nba_player_id": 203999, "team_name": (*string)(nil)}}, []string{"nba_player_id"})
	require.NoError(t, err)
	assert.Equal(t, "Denver Nuggets", s.Rows("players")[0]["team_name"])
}

func TestUpsertFailureIsAtomic(t *testing.T) {
	t.Parallel()

	boom := errors.New("constraint violation")
	s := New(WithFailure(func(_ string, r store.Row) error {
		if r["player_id"] == 2 {
			return boom
		}
		return nil
	}))

	_, err := s.Upsert(context.Background(), "t", []store.Row{{"player_id": 1}, {"player_id": 2}}, []string{"player_id"})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, s.Rows("t"))
	assert.Equal(t, 1, s.UpsertCalls())
}

func TestUpsertRejectsMissingKey(t *testing.T) {
	t.Parallel()

	_, err := New().Upsert(context.Background(), "t", []store.Row{{"name": "x"}}, []string{"player_id"})
	require.Error(t, err)
}

func TestSelectFiltersOrdersAndPages(t *testing.T) {
	t.Parallel()

	s := New()
	s.Seed("players",
		store.Row{"id": 3, "name": "C", "is_active": true},
		store.Row{"id": 1, "name": "A", "is_active": true},
		store.Row{"id": 2, "name": "B", "is_active": false},
		store.Row{"id": 10, "name": "D", "is_active": true},
	)

	rows, err := s.Select(context.Background(), "players", store.Query{
		Columns: []string{"id", "name"},
		Filter:  map[string]any{"is_active": true},
		OrderBy: []string{"id"},
		Limit:   2,
		Offset:  1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, store.Row{"id": 3, "name": "C"}, rows[0])
	assert.Equal(t, store.Row{"id": 10, "name": "D"}, rows[1])

	all, err := store.All(context.Background(), s, "players", store.Query{OrderBy: []string{"id"}}, 3)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSeedContinuesIDSequence(t *testing.T) {
	t.Parallel()

	s := New()
	s.Seed("players", store.Row{"id": 7, "name": "Nikola Jokić"})
	_, err := s.Upsert(context.Background(), "players", []store.Row{{"nba_player_id": 1, "name": "X"}}, []string{"nba_player_id"})
	require.NoError(t, err)
	assert.Equal(t, int64(8), s.Rows("players")[1]["id"])
}

func TestExistsAndCall(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New(WithProcedure("generate_league_schedule", func(args ...any) (int, error) {
		return len(args) * 10, nil
	}), WithoutInsertReports())
	assert.False(t, s.ReportsInserts())

	s.Seed("t", store.Row{"player_id": 7, "season_id": "2023-24"})
	ok, err := s.Exists(ctx, "t", map[string]any{"player_id": int64(7), "season_id": "2023-24"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "t", map[string]any{"player_id": 8})
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.Call(ctx, "generate_league_schedule", "league-1", 18)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	_, err = s.Call(ctx, "missing_fn")
	require.Error(t, err)
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Upsert(ctx, "t", []store.Row{{"id": 1}}, []string{"id"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSeedKeepsTextIDs(t *testing.T) {
	t.Parallel()

	s := New()
	s.Seed("leagues", store.Row{"id": "5b0c2f9e-league"}, store.Row{"name": "no id"})
	rows := s.Rows("leagues")
	assert.Equal(t, "5b0c2f9e-league", rows[0]["id"])
	assert.Equal(t, int64(1), rows[1]["id"])
}
