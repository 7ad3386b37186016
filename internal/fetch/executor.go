package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"GameHarvester/internal/domain"
	"GameHarvester/internal/ledger"
	"GameHarvester/internal/metrics"
	"GameHarvester/internal/ports"
	"GameHarvester/internal/ratelimit"
)

// ErrPlayerExhausted signals that one player's call hit the rate limit more
// times in a row than the retry budget allows. Fatal for the player, never
// for the batch.
var ErrPlayerExhausted = errors.New("player exhausted rate-limit retries")

// Executor issues the upstream calls for one player at a time, reporting
// every outcome to the coordinator and pacing between calls.
type Executor struct {
	source          ports.GameSource
	coordinator     *ratelimit.Coordinator
	known           *ledger.KnownIDs
	maxLimitRetries int
	logger          *slog.Logger

	// test seams
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

var _ ports.Fetcher = (*Executor)(nil)

// NewExecutor wires the upstream source, the coordinator and the ledger.
func NewExecutor(source ports.GameSource, coordinator *ratelimit.Coordinator, known *ledger.KnownIDs, maxLimitRetries int, log *slog.Logger) *Executor {
	return &Executor{
		source:          source,
		coordinator:     coordinator,
		known:           known,
		maxLimitRetries: maxLimitRetries,
		logger:          log,
		now:             time.Now,
		sleep:           sleepCtx,
	}
}

// FetchPlayer pulls up to cap games for the player inside [start, end).
// Explicit rate-limit responses raise the coordinator barrier and retry the
// same call once the cooldown passed, bounded by the retry budget. Transient
// upstream failures are logged and swallowed as zero results. Games already
// present in the ledger are dropped before returning.
func (e *Executor) FetchPlayer(ctx context.Context, player domain.Player, start, end time.Time, cap int) ([]domain.Game, error) {
	for attempt := 1; ; attempt++ {
		games, err := e.source.GamesByPlayer(ctx, player.Handle, start, end, cap)
		if err == nil {
			e.coordinator.RecordSuccess()
			metrics.RecordFetch("ok")
			metrics.CurrentPaceSeconds.Set(e.coordinator.NextDelay().Seconds())

			fresh := e.dropKnown(games)
			if pauseErr := e.sleep(ctx, e.coordinator.NextDelay()); pauseErr != nil {
				return fresh, pauseErr
			}
			return fresh, nil
		}

		var limited *ratelimit.LimitError
		if !errors.As(err, &limited) {
			// Transient taxonomy: log, count, move on with nothing.
			e.logger.Warn("upstream fetch failed", "player", player.Handle, "error", err)
			metrics.RecordFetch("error")
			return nil, nil
		}

		metrics.RecordFetch("limited")
		metrics.RateLimitHits.Inc()
		e.coordinator.RecordLimited(e.now(), limited.RetryAfter)
		metrics.CurrentPaceSeconds.Set(e.coordinator.NextDelay().Seconds())

		if attempt > e.maxLimitRetries {
			e.logger.Warn("giving up on player after repeated rate limits",
				"player", player.Handle, "attempts", attempt)
			return nil, fmt.Errorf("player %s: %w", player.Handle, ErrPlayerExhausted)
		}

		wait := e.coordinator.CooldownRemaining(e.now())
		e.logger.Info("rate limited, retrying same call after cooldown",
			"player", player.Handle, "attempt", attempt, "wait", wait)
		if waitErr := e.sleep(ctx, wait); waitErr != nil {
			return nil, waitErr
		}
	}
}

// dropKnown filters games whose IDs the ledger already holds, before any
// downstream work happens on them.
func (e *Executor) dropKnown(games []domain.Game) []domain.Game {
	fresh := make([]domain.Game, 0, len(games))
	for _, g := range games {
		if g.ID == "" || e.known.Contains(g.ID) {
			metrics.RecordVerdict("duplicate")
			continue
		}
		fresh = append(fresh, g)
	}
	return fresh
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
