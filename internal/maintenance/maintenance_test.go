package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/hoopgeek-data/internal/seed"
)

type fakeJobs struct {
	mu        sync.Mutex
	syncs     int
	sweeps    int
	syncRes   seed.Result
	syncErr   error
	leagueErr error
	lastIDs   []string
}

func (f *fakeJobs) TrySyncPlayers(context.Context, string) (seed.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs++
	return f.syncRes, f.syncErr
}

func (f *fakeJobs) LeagueIDs(context.Context) ([]string, error) {
	return []string{"a", "b"}, f.leagueErr
}

func (f *fakeJobs) GenerateSchedules(_ context.Context, ids []string, _ seed.ScheduleParams) seed.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sweeps++
	f.lastIDs = ids
	return seed.Result{Imported: len(ids)}
}

func (f *fakeJobs) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncs, f.sweeps
}

type fakeCache struct {
	mu       sync.Mutex
	prefixes []string
}

func (c *fakeCache) InvalidatePrefix(p string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefixes = append(c.prefixes, p)
	return 1
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestStartRunsTasksUntilCancelled(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobs{syncRes: seed.Result{Updated: 3}}
	inv := &fakeCache{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Start(ctx, jobs, inv, Config{SyncInterval: 5 * time.Millisecond, ScheduleInterval: 5 * time.Millisecond}, quiet())
		close(done)
	}()

	require.Eventually(t, func() bool {
		syncs, sweeps := jobs.counts()
		return syncs >= 2 && sweeps >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()
	assert.Contains(t, inv.prefixes, "players:")
	assert.Contains(t, inv.prefixes, "stats:")
}

func TestDisabledTasksNeverRun(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobs{}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	Start(ctx, jobs, nil, Config{}, quiet())

	syncs, sweeps := jobs.counts()
	assert.Zero(t, syncs)
	assert.Zero(t, sweeps)
}

func TestSyncRegistryKeepsCacheWhenNothingChanged(t *testing.T) {
	t.Parallel()

	inv := &fakeCache{}
	syncRegistry(context.Background(), &fakeJobs{syncErr: errors.New("upstream down")}, inv, "2024-25", quiet())
	syncRegistry(context.Background(), &fakeJobs{syncRes: seed.Result{Skipped: 2}}, inv, "2024-25", quiet())
	syncRegistry(context.Background(), &fakeJobs{syncRes: seed.Result{Updated: 5}, syncErr: seed.ErrSyncRunning}, inv, "2024-25", quiet())
	assert.Empty(t, inv.prefixes)
}

func TestScheduleSweepStopsOnListError(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobs{leagueErr: errors.New("relation leagues does not exist")}
	scheduleSweep(context.Background(), jobs, seed.DefaultScheduleParams(), quiet())
	_, sweeps := jobs.counts()
	assert.Zero(t, sweeps)
}
