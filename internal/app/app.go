// Package app is the composition root: it turns configuration into a wired,
// runnable harvester and owns the process lifecycle around it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"GameHarvester/internal/config"
	"GameHarvester/internal/domain"
	"GameHarvester/internal/eligibility"
	"GameHarvester/internal/fetch"
	"GameHarvester/internal/infrastructure/lichess"
	"GameHarvester/internal/infrastructure/scheduler"
	"GameHarvester/internal/infrastructure/sink"
	"GameHarvester/internal/infrastructure/storage"
	"GameHarvester/internal/infrastructure/telegram"
	"GameHarvester/internal/leaderboard"
	"GameHarvester/internal/ledger"
	"GameHarvester/internal/logging"
	"GameHarvester/internal/ops"
	"GameHarvester/internal/planner"
	"GameHarvester/internal/pool"
	"GameHarvester/internal/ports"
	"GameHarvester/internal/ratelimit"
	"GameHarvester/internal/usecase"
)

// opsShutdownTimeout bounds how long a finished run waits for the ops server
// to drain.
const opsShutdownTimeout = 5 * time.Second

// Application wires configuration into use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	harvester *usecase.Harvester
	known     *ledger.KnownIDs
	store     ports.LedgerStore
	sink      ports.GameSink
	ops       *ops.Server
	cleanup   []func()
}

// New validates cfg and builds a runnable application instance. The context
// only covers startup probes (database ping, broker ping).
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	coordinator, err := ratelimit.New(rateConfig(cfg.Rate), baseLogger.With("component", "ratelimit"))
	if err != nil {
		return nil, fmt.Errorf("build coordinator: %w", err)
	}

	client := lichess.NewClient(clientConfig(cfg.Upstream), baseLogger.With("component", "lichess"))
	provider := buildPool(cfg, client, baseLogger)

	app := &Application{cfg: cfg, logger: baseLogger, known: ledger.New(nil)}

	app.store, err = app.buildStore(ctx)
	if err != nil {
		return nil, err
	}

	app.sink, err = app.buildSink(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	plannerCfg, err := PlannerConfig(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	executor := fetch.NewExecutor(client, coordinator, app.known,
		cfg.Rate.MaxLimitRetries, baseLogger.With("component", "fetch"))

	app.harvester = usecase.NewHarvester(usecase.Config{
		Planner:           plannerCfg,
		Sorted:            cfg.Pool.Sorted,
		EmptyBatchCeiling: cfg.Harvest.EmptyBatchCeiling,
		WaitGuard:         time.Second,
	}, usecase.Deps{
		Pool:        provider,
		Fetcher:     executor,
		Coordinator: coordinator,
		Known:       app.known,
		Filter:      eligibility.New(cfg.Harvest.MinPlies),
		Store:       app.store,
		Sink:        app.sink,
		Notifier:    notifier,
		Logger:      baseLogger.With("component", "harvest"),
	})

	if cfg.Ops.Enabled {
		app.ops = ops.NewServer(cfg.Ops.Addr, app.harvester, coordinator,
			baseLogger.With("component", "ops"))
	}

	return app, nil
}

// Run seeds the ledger and executes the harvest, serving the ops endpoints
// alongside it when enabled. It blocks until the run finishes or ctx is done.
func (a *Application) Run(ctx context.Context) error {
	ids, err := a.store.SeedKnownIDs(ctx)
	if err != nil {
		return fmt.Errorf("seed known ids: %w", err)
	}
	a.known.Add(ids...)
	a.logger.Info("known-ID ledger seeded", "ids", a.known.Len())

	g, gctx := errgroup.WithContext(ctx)
	if a.ops != nil {
		g.Go(a.ops.Start)
	}
	g.Go(func() error {
		defer a.shutdownOps()
		return a.harvest(gctx)
	})
	return g.Wait()
}

// Close releases the sink and any held connections. Safe to call after a
// partially failed New.
func (a *Application) Close() {
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Warn("sink close failed", "error", err)
		}
	}
	for _, fn := range a.cleanup {
		fn()
	}
}

// harvest is one foreground run, or a scheduler-driven loop in daemon mode.
func (a *Application) harvest(ctx context.Context) error {
	if a.cfg.Scheduler.IntervalMinutes > 0 {
		driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval())
		sched := usecase.NewScheduler(driver, a.harvester)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		a.logger.Info("daemon mode", "interval", a.cfg.Scheduler.Interval())

		<-ctx.Done()
		_ = sched.Stop(context.Background())
		return ctx.Err()
	}

	snap, err := a.harvester.Run(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("harvest finished",
		"run_id", snap.RunID,
		"batches", snap.Batch,
		"accepted", snap.Accepted,
		"rejected", snap.Rejected,
		"known_ids", snap.KnownIDs)
	return nil
}

func (a *Application) shutdownOps() {
	if a.ops == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
	defer cancel()
	if err := a.ops.Shutdown(ctx); err != nil {
		a.logger.Warn("ops server shutdown failed", "error", err)
	}
}

func (a *Application) buildStore(ctx context.Context) (ports.LedgerStore, error) {
	switch a.cfg.Storage.Backend {
	case "postgres":
		db, err := storage.Connect(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect ledger database: %w", err)
		}
		a.cleanup = append(a.cleanup, db.Close)
		return storage.NewPostgres(db), nil
	case "file":
		return storage.NewFile(a.cfg.Storage.FilePath), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", a.cfg.Storage.Backend)
	}
}

func (a *Application) buildSink(ctx context.Context) (ports.GameSink, error) {
	switch a.cfg.Sink.Backend {
	case "redis":
		s, err := sink.NewRedisWithURL(a.cfg.Redis.URL, a.cfg.Redis.Stream)
		if err != nil {
			return nil, fmt.Errorf("build redis sink: %w", err)
		}
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("ping redis sink: %w", err)
		}
		return s, nil
	case "jsonl":
		s, err := sink.NewJSONL(a.cfg.Sink.JSONLPath)
		if err != nil {
			return nil, fmt.Errorf("build jsonl sink: %w", err)
		}
		return s, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown sink backend %q", a.cfg.Sink.Backend)
	}
}

// BuildPool assembles just the pool provider, for commands that inspect the
// pool or the plan without touching storage.
func BuildPool(cfg config.Config, log *slog.Logger) *pool.Provider {
	client := lichess.NewClient(clientConfig(cfg.Upstream), log.With("component", "lichess"))
	return buildPool(cfg, client, log)
}

// PlannerConfig converts the configured planner section, parsing the history
// floor date.
func PlannerConfig(cfg config.Config) (planner.Config, error) {
	floor, err := cfg.Planner.Floor()
	if err != nil {
		return planner.Config{}, err
	}
	return planner.Config{
		WindowBaseDays:  cfg.Planner.WindowBaseDays,
		WindowStepDays:  cfg.Planner.WindowStepDays,
		WindowSpanDays:  cfg.Planner.WindowSpanDays,
		RotationPrime:   cfg.Planner.RotationPrime,
		PlayersPerBatch: cfg.Planner.PlayersPerBatch,
		PerPlayerCap:    cfg.Planner.PerPlayerCap,
		HistoryFloor:    floor,
	}, nil
}

func buildPool(cfg config.Config, client *lichess.Client, log *slog.Logger) *pool.Provider {
	registry := leaderboard.NewRegistry()
	registry.Register(client)
	registry.Register(leaderboard.NewHTMLScanner(nil, cfg.Upstream.UserAgent))

	source := leaderboard.NewSource(registry, cfg.Pool.Strategy,
		categories(cfg.Pool.Categories), cfg.Pool.PerCategory,
		log.With("component", "leaderboard"))

	return pool.NewProvider(source, fallbackPlayers(cfg.Pool.Fallback),
		cfg.Pool.CacheTTL(), log.With("component", "pool"))
}

func categories(cfgs []config.CategoryConfig) []leaderboard.Category {
	out := make([]leaderboard.Category, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, leaderboard.Category{Name: c.Name, URL: c.URL})
	}
	return out
}

func fallbackPlayers(cfgs []config.FallbackPlayer) []domain.Player {
	out := make([]domain.Player, 0, len(cfgs))
	for _, p := range cfgs {
		out = append(out, domain.Player{
			Handle:   p.Handle,
			Title:    p.Title,
			Rating:   p.Rating,
			Category: p.Category,
			Source:   domain.PlayerSourceFallback,
		})
	}
	return out
}

func rateConfig(cfg config.RateConfig) ratelimit.Config {
	return ratelimit.Config{
		PaceInitial:  time.Duration(cfg.PaceInitialMs) * time.Millisecond,
		PaceFloor:    time.Duration(cfg.PaceFloorMs) * time.Millisecond,
		PaceCeiling:  time.Duration(cfg.PaceCeilingMs) * time.Millisecond,
		RecoveryPace: time.Duration(cfg.RecoveryPaceMs) * time.Millisecond,
		DecayFactor:  cfg.DecayFactor,
		SafetyMargin: time.Duration(cfg.SafetyMarginMs) * time.Millisecond,
	}
}

func clientConfig(cfg config.UpstreamConfig) lichess.Config {
	return lichess.Config{
		BaseURL:           cfg.BaseURL,
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.Timeout(),
		DefaultRetryAfter: cfg.DefaultRetryAfter(),
	}
}
