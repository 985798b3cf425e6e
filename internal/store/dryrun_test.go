package store_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/hoopgeek-data/internal/store"
	"github.com/albapepper/hoopgeek-data/internal/store/memstore"
)

func TestDryRunNeverWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backing := memstore.New()
	backing.Seed("players", store.Row{"id": 1, "nba_player_id": 2544, "name": "LeBron James"})
	dry := store.NewDryRun(backing, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.False(t, store.ReportsInserts(dry))

	written, err := dry.Upsert(ctx, "players", []store.Row{
		{"nba_player_id": 2544, "name": "LeBron Raymone James"},
		{"nba_player_id": 203999, "name": "Nikola Jokić"},
	}, []string{"nba_player_id"})
	require.NoError(t, err)
	require.Len(t, written, 2)
	assert.Equal(t, "203999", written[1].Key["nba_player_id"])

	rows := backing.Rows("players")
	require.Len(t, rows, 1)
	assert.Equal(t, "LeBron James", rows[0]["name"])
	assert.Equal(t, map[string]int{"players": 2}, dry.Unwritten())

	ok, err := dry.Exists(ctx, "players", map[string]any{"nba_player_id": 2544})
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := dry.Call(ctx, "generate_league_schedule", "league-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDryRunRejectsMissingKey(t *testing.T) {
	t.Parallel()

	dry := store.NewDryRun(memstore.New(), nil)
	_, err := dry.Upsert(context.Background(), "players", []store.Row{{"name": "x"}}, []string{"nba_player_id"})
	assert.Error(t, err)
}

func TestDryRunRemembersWithheldKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dry := store.NewDryRun(memstore.New(), nil)
	conflict := []string{"player_id", "game_id"}

	key := map[string]any{"player_id": int64(7), "game_id": "0022400001"}
	ok, err := dry.Exists(ctx, "player_game_logs", key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = dry.Upsert(ctx, "player_game_logs", []store.Row{{"player_id": 7, "game_id": "0022400001", "pts": 31}}, conflict)
	require.NoError(t, err)

	ok, err = dry.Exists(ctx, "player_game_logs", key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dry.Exists(ctx, "players", map[string]any{"player_id": 7, "game_id": "0022400001"})
	require.NoError(t, err)
	assert.False(t, ok, "withheld keys are per table")
}
