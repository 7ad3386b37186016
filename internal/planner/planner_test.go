package planner

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GameHarvester/internal/domain"
)

func testConfig() Config {
	return Config{
		WindowBaseDays:  0,
		WindowStepDays:  21,
		WindowSpanDays:  14,
		RotationPrime:   13,
		PlayersPerBatch: 8,
		PerPlayerCap:    25,
		HistoryFloor:    time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testPool(n int) []domain.Player {
	pool := make([]domain.Player, 0, n)
	for i := range n {
		pool = append(pool, domain.Player{
			Handle: fmt.Sprintf("player-%02d", i),
			Rating: 2500 + i,
		})
	}
	return pool
}

func TestPlan_WindowWalk(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 23, 15, 30, 0, 0, time.UTC)
	day := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	cfg := testConfig()
	pool := testPool(40)

	first := Plan(cfg, 1, pool, today)
	assert.Equal(t, day.AddDate(0, 0, -14), first.WindowStart)
	assert.Equal(t, day, first.WindowEnd)
	assert.Equal(t, 25, first.PerPlayerCap)

	second := Plan(cfg, 2, pool, today)
	assert.Equal(t, day.AddDate(0, 0, -35), second.WindowStart)
	assert.Equal(t, day.AddDate(0, 0, -21), second.WindowEnd)
}

func TestPlan_ConsecutiveWindowsAreDisjoint(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	cfg := testConfig()
	pool := testPool(40)

	prev := Plan(cfg, 1, pool, today)
	for batch := 2; batch <= 10; batch++ {
		cur := Plan(cfg, batch, pool, today)
		assert.True(t, cur.WindowEnd.Before(prev.WindowStart),
			"batch %d window [%s, %s] overlaps batch %d window [%s, %s]",
			batch, cur.WindowStart, cur.WindowEnd, batch-1, prev.WindowStart, prev.WindowEnd)
		prev = cur
	}
}

func TestPlan_IsDeterministic(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	cfg := testConfig()
	pool := testPool(40)

	assert.Equal(t, Plan(cfg, 7, pool, today), Plan(cfg, 7, pool, today))
}

func TestPlan_RotationStridesByPrime(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	cfg := testConfig()
	pool := testPool(40)

	first := Plan(cfg, 1, pool, today)
	require.Len(t, first.Players, 8)
	assert.Equal(t, "player-13", first.Players[0].Handle)
	assert.Equal(t, "player-20", first.Players[7].Handle)

	// Batch 3 starts at offset 39 and wraps to the front of the pool.
	third := Plan(cfg, 3, pool, today)
	assert.Equal(t, "player-39", third.Players[0].Handle)
	assert.Equal(t, "player-00", third.Players[1].Handle)

	fourth := Plan(cfg, 4, pool, today)
	assert.Equal(t, "player-12", fourth.Players[0].Handle)
}

func TestOffset_CoversAllResidues(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	const poolSize = 40

	seen := map[int]bool{}
	for batch := 1; batch <= poolSize; batch++ {
		seen[Offset(cfg, batch, poolSize)] = true
	}

	// The prime stride is coprime with the pool size, so the starting
	// offset eventually visits every position.
	assert.Len(t, seen, poolSize)
}

func TestPlan_SmallPoolTakenOnce(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	cfg := testConfig()
	pool := testPool(5)

	plan := Plan(cfg, 2, pool, today)
	require.Len(t, plan.Players, 5)

	handles := map[string]bool{}
	for _, p := range plan.Players {
		assert.False(t, handles[p.Handle], "player %s planned twice", p.Handle)
		handles[p.Handle] = true
	}
}

func TestPlan_EmptyPool(t *testing.T) {
	t.Parallel()

	plan := Plan(testConfig(), 1, nil, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC))
	assert.Empty(t, plan.Players)
}

func TestPlan_ClampsAtHistoryFloor(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	floor := cfg.HistoryFloor
	today := floor.AddDate(0, 0, 30)
	pool := testPool(40)

	// Batch 2's window would start before the floor; the start clamps.
	clamped := Plan(cfg, 2, pool, today)
	assert.Equal(t, floor, clamped.WindowStart)
	assert.Equal(t, today.AddDate(0, 0, -21), clamped.WindowEnd)

	// Deeper batches would end before the floor; the window is pinned there.
	pinned := Plan(cfg, 5, pool, today)
	assert.Equal(t, floor, pinned.WindowStart)
	assert.Equal(t, floor.AddDate(0, 0, cfg.WindowSpanDays), pinned.WindowEnd)
}
