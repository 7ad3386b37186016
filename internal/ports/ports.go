package ports

import (
	"context"
	"time"

	"GameHarvester/internal/domain"
)

// GameSource pulls games for one player inside a historical window.
type GameSource interface {
	GamesByPlayer(ctx context.Context, handle string, since, until time.Time, max int) ([]domain.Game, error)
}

// PlayerSource produces the merged live player list across all configured
// categories.
type PlayerSource interface {
	LivePlayers(ctx context.Context) ([]domain.Player, error)
}

// PoolProvider resolves the current player pool, randomized unless sorted.
type PoolProvider interface {
	Pool(ctx context.Context, sorted bool) ([]domain.Player, error)
}

// Fetcher pulls one player's games inside a historical window, already
// filtered against the known-ID ledger.
type Fetcher interface {
	FetchPlayer(ctx context.Context, player domain.Player, start, end time.Time, cap int) ([]domain.Game, error)
}

// LedgerStore persists the set of game IDs ever fetched, in any state.
type LedgerStore interface {
	SeedKnownIDs(ctx context.Context) ([]string, error)
	AppendKnown(ctx context.Context, ids []string) error
}

// GameSink receives accepted games for downstream processing.
type GameSink interface {
	Publish(ctx context.Context, game domain.Game) error
	Close() error
}

// Notifier delivers run summaries to an operations channel.
type Notifier interface {
	NotifyRunSummary(ctx context.Context, summary string) error
}

// Scheduler controls when harvest runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
