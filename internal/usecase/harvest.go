package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"GameHarvester/internal/domain"
	"GameHarvester/internal/eligibility"
	"GameHarvester/internal/fetch"
	"GameHarvester/internal/ledger"
	"GameHarvester/internal/metrics"
	"GameHarvester/internal/planner"
	"GameHarvester/internal/ports"
	"GameHarvester/internal/ratelimit"
)

// State is the orchestrator's externally visible phase.
type State string

const (
	StateIdle               State = "idle"
	StateRunning            State = "running"
	StateWaitingOnRateLimit State = "waiting_on_rate_limit"
	StateStopped            State = "stopped"
)

// Config tunes the harvest loop.
type Config struct {
	Planner planner.Config
	// Sorted requests a rating-ordered pool instead of a fresh shuffle.
	Sorted bool
	// EmptyBatchCeiling stops the run after this many batches in a row
	// yielded nothing new.
	EmptyBatchCeiling int
	// WaitGuard is a small extra pause on top of a reported cooldown, so the
	// first call after resuming lands safely past the barrier.
	WaitGuard time.Duration
}

// Deps wires all collaborators into the orchestrator.
type Deps struct {
	Pool        ports.PoolProvider
	Fetcher     ports.Fetcher
	Coordinator *ratelimit.Coordinator
	Known       *ledger.KnownIDs
	Filter      *eligibility.Filter
	Store       ports.LedgerStore
	Sink        ports.GameSink
	Notifier    ports.Notifier
	Logger      *slog.Logger
}

// Snapshot is the run's current tally, safe to read from other goroutines.
type Snapshot struct {
	RunID            string    `json:"run_id"`
	State            State     `json:"state"`
	Batch            int       `json:"batch"`
	ConsecutiveEmpty int       `json:"consecutive_empty"`
	Accepted         int       `json:"accepted"`
	Rejected         int       `json:"rejected"`
	KnownIDs         int       `json:"known_ids"`
	StartedAt        time.Time `json:"started_at"`
}

// Harvester drives batches of player fetches: plan, fetch player by player,
// filter, ledger, sink. One in-flight call at a time; the pacing and backoff
// discipline is the point, not throughput.
type Harvester struct {
	cfg         Config
	pool        ports.PoolProvider
	fetcher     ports.Fetcher
	coordinator *ratelimit.Coordinator
	known       *ledger.KnownIDs
	filter      *eligibility.Filter
	store       ports.LedgerStore
	sink        ports.GameSink
	notifier    ports.Notifier
	logger      *slog.Logger

	mu   sync.Mutex
	snap Snapshot

	// test seams
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewHarvester constructs the orchestration component.
func NewHarvester(cfg Config, deps Deps) *Harvester {
	return &Harvester{
		cfg:         cfg,
		pool:        deps.Pool,
		fetcher:     deps.Fetcher,
		coordinator: deps.Coordinator,
		known:       deps.Known,
		filter:      deps.Filter,
		store:       deps.Store,
		sink:        deps.Sink,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
		snap:        Snapshot{State: StateIdle},
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Snapshot returns the current run tally.
func (h *Harvester) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap
}

// Run executes batches until the empty-batch ceiling is reached or the
// context is cancelled. The returned snapshot is the final tally either way.
func (h *Harvester) Run(ctx context.Context) (Snapshot, error) {
	runID := uuid.NewString()
	h.update(func(s *Snapshot) {
		*s = Snapshot{RunID: runID, State: StateRunning, StartedAt: h.now()}
	})
	h.setState(StateRunning)

	log := h.logger.With("run_id", runID)
	log.Info("harvest run starting",
		"players_per_batch", h.cfg.Planner.PlayersPerBatch,
		"empty_batch_ceiling", h.cfg.EmptyBatchCeiling,
		"known_ids", h.known.Len())

	for batch := 1; ; batch++ {
		h.update(func(s *Snapshot) { s.Batch = batch })

		accepted, err := h.runBatch(ctx, batch, log)
		if err != nil {
			h.setState(StateStopped)
			return h.Snapshot(), err
		}

		metrics.BatchYield.Observe(float64(accepted))
		if accepted == 0 {
			metrics.EmptyBatches.Inc()
			h.update(func(s *Snapshot) { s.ConsecutiveEmpty++ })
			log.Info("batch yielded nothing new",
				"batch", batch, "consecutive_empty", h.Snapshot().ConsecutiveEmpty)
		} else {
			h.update(func(s *Snapshot) { s.ConsecutiveEmpty = 0 })
			log.Info("batch complete", "batch", batch, "accepted", accepted)
		}

		if h.Snapshot().ConsecutiveEmpty >= h.cfg.EmptyBatchCeiling {
			log.Info("empty-batch ceiling reached, stopping", "batches", batch)
			break
		}
	}

	h.setState(StateStopped)
	final := h.Snapshot()
	h.notify(ctx, final, log)
	return final, nil
}

// runBatch executes one plan. Rate-limit cooldowns suspend the iteration at
// the current player index and resume it there; the batch never restarts and
// never skips a player because of a limit signal.
func (h *Harvester) runBatch(ctx context.Context, batch int, log *slog.Logger) (int, error) {
	players, err := h.pool.Pool(ctx, h.cfg.Sorted)
	if err != nil {
		return 0, fmt.Errorf("resolve pool: %w", err)
	}

	plan := planner.Plan(h.cfg.Planner, batch, players, h.now())
	log.Info("batch planned",
		"batch", batch,
		"window_start", plan.WindowStart.Format("2006-01-02"),
		"window_end", plan.WindowEnd.Format("2006-01-02"),
		"players", len(plan.Players))

	accepted := 0
	for i := 0; i < len(plan.Players); {
		if err := ctx.Err(); err != nil {
			return accepted, err
		}

		if h.coordinator.IsLimited(h.now()) {
			if err := h.waitOutCooldown(ctx, log); err != nil {
				return accepted, err
			}
			// Same index: the suspended player still gets its turn.
			continue
		}

		player := plan.Players[i]
		games, err := h.fetcher.FetchPlayer(ctx, player, plan.WindowStart, plan.WindowEnd, plan.PerPlayerCap)
		switch {
		case errors.Is(err, fetch.ErrPlayerExhausted):
			log.Warn("player gave up its slot this batch", "player", player.Handle)
			i++
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return accepted, err
		case err != nil:
			log.Warn("fetch returned unexpected error", "player", player.Handle, "error", err)
			i++
			continue
		}

		got, err := h.ingest(ctx, games)
		if err != nil {
			return accepted, err
		}
		accepted += got
		i++
	}

	return accepted, nil
}

// waitOutCooldown is the WAITING_ON_RATE_LIMIT leg of the state machine.
func (h *Harvester) waitOutCooldown(ctx context.Context, log *slog.Logger) error {
	wait := h.coordinator.CooldownRemaining(h.now()) + h.cfg.WaitGuard
	h.setState(StateWaitingOnRateLimit)
	metrics.RateLimitWaits.Inc()
	log.Info("cooldown active, suspending batch", "wait", wait)

	err := h.sleep(ctx, wait)
	h.setState(StateRunning)
	if err != nil {
		return err
	}
	log.Info("cooldown passed, resuming batch")
	return nil
}

// ingest classifies one player's fresh games. Every fetched ID becomes known,
// accepted or not, so nothing is ever fetched twice; only accepted games are
// published.
func (h *Harvester) ingest(ctx context.Context, games []domain.Game) (int, error) {
	accepted := 0
	ids := make([]string, 0, len(games))

	for _, game := range games {
		if h.known.Contains(game.ID) {
			metrics.RecordVerdict("duplicate")
			continue
		}
		h.known.Add(game.ID)
		ids = append(ids, game.ID)

		out, ok := h.filter.Apply(game)
		if !ok {
			metrics.RecordVerdict("rejected")
			h.update(func(s *Snapshot) { s.Rejected++ })
			continue
		}

		if h.sink != nil {
			if err := h.sink.Publish(ctx, out); err != nil {
				return accepted, fmt.Errorf("publish game %s: %w", out.ID, err)
			}
		}
		metrics.RecordVerdict("accepted")
		h.update(func(s *Snapshot) { s.Accepted++ })
		accepted++
	}

	if h.store != nil && len(ids) > 0 {
		if err := h.store.AppendKnown(ctx, ids); err != nil {
			// The in-memory ledger still protects this run; a refetch in a
			// later run is the worst case.
			h.logger.Warn("durable ledger append failed", "count", len(ids), "error", err)
		}
	}

	h.update(func(s *Snapshot) { s.KnownIDs = h.known.Len() })
	metrics.KnownIDsTotal.Set(float64(h.known.Len()))
	return accepted, nil
}

func (h *Harvester) notify(ctx context.Context, snap Snapshot, log *slog.Logger) {
	if h.notifier == nil {
		return
	}
	summary := fmt.Sprintf("harvest %s stopped after batch %d: %d accepted, %d rejected, %d known IDs",
		snap.RunID, snap.Batch, snap.Accepted, snap.Rejected, snap.KnownIDs)
	if err := h.notifier.NotifyRunSummary(ctx, summary); err != nil {
		log.Warn("run summary notification failed", "error", err)
	}
}

func (h *Harvester) setState(state State) {
	h.update(func(s *Snapshot) { s.State = state })
	switch state {
	case StateRunning:
		metrics.HarvestState.Set(1)
	case StateWaitingOnRateLimit:
		metrics.HarvestState.Set(2)
	case StateStopped:
		metrics.HarvestState.Set(3)
	default:
		metrics.HarvestState.Set(0)
	}
}

func (h *Harvester) update(fn func(*Snapshot)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.snap)
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
