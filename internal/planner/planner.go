package planner

import (
	"time"

	"GameHarvester/internal/domain"
)

// Config fixes the deterministic window and rotation layout. Values come
// from configuration and are validated at startup.
type Config struct {
	// WindowBaseDays offsets the first batch's window end from today.
	WindowBaseDays int
	// WindowStepDays shifts each later batch's window further into the past.
	// Must exceed WindowSpanDays so consecutive windows stay disjoint.
	WindowStepDays int
	// WindowSpanDays is the width of every window.
	WindowSpanDays int
	// RotationPrime strides the player rotation so rerunning the pool order
	// pairs different players with different windows each batch.
	RotationPrime int
	// PlayersPerBatch is how many pool entries one batch covers.
	PlayersPerBatch int
	// PerPlayerCap bounds the games requested per player and window.
	PerPlayerCap int
	// HistoryFloor is the oldest date windows may reach. Once the walk gets
	// there, planning reuses the floor window instead of sliding past it.
	HistoryFloor time.Time
}

// Plan derives the work order for the given 1-based batch number from the
// pool and the reference day. Same inputs, same plan.
func Plan(cfg Config, batch int, pool []domain.Player, today time.Time) domain.BatchPlan {
	start, end := window(cfg, batch, today)

	return domain.BatchPlan{
		Batch:        batch,
		WindowStart:  start,
		WindowEnd:    end,
		Players:      rotate(cfg, batch, pool),
		PerPlayerCap: cfg.PerPlayerCap,
	}
}

// Offset returns the rotation offset into the pool for the given batch.
func Offset(cfg Config, batch, poolSize int) int {
	if poolSize <= 0 {
		return 0
	}
	return (batch * cfg.RotationPrime) % poolSize
}

func window(cfg Config, batch int, today time.Time) (time.Time, time.Time) {
	day := today.UTC().Truncate(24 * time.Hour)

	end := day.AddDate(0, 0, -(cfg.WindowBaseDays + (batch-1)*cfg.WindowStepDays))
	start := end.AddDate(0, 0, -cfg.WindowSpanDays)

	if !cfg.HistoryFloor.IsZero() {
		floor := cfg.HistoryFloor.UTC().Truncate(24 * time.Hour)
		if !end.After(floor) {
			end = floor.AddDate(0, 0, cfg.WindowSpanDays)
		}
		if start.Before(floor) {
			start = floor
		}
	}

	return start, end
}

func rotate(cfg Config, batch int, pool []domain.Player) []domain.Player {
	if len(pool) == 0 {
		return nil
	}

	count := cfg.PlayersPerBatch
	if count > len(pool) {
		count = len(pool)
	}

	offset := Offset(cfg, batch, len(pool))
	players := make([]domain.Player, 0, count)
	for i := range count {
		players = append(players, pool[(offset+i)%len(pool)])
	}
	return players
}
