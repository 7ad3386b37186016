package pool

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"GameHarvester/internal/domain"
	"GameHarvester/internal/metrics"
	"GameHarvester/internal/ports"
)

// Provider assembles the player pool: live leaderboard entries unioned with
// the static fallback list, deduplicated by handle. Live fetch failures are
// swallowed; the provider only errors when both sides come up empty.
type Provider struct {
	source   ports.PlayerSource
	fallback []domain.Player
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	cached    []domain.Player
	fetchedAt time.Time
}

var _ ports.PoolProvider = (*Provider)(nil)

// ErrEmptyPool is returned when neither the live source nor the fallback list
// produced a single player.
var ErrEmptyPool = errors.New("player pool is empty")

// NewProvider wires the live source and the fallback list. An empty fallback
// slice selects the bundled static list.
func NewProvider(source ports.PlayerSource, fallback []domain.Player, ttl time.Duration, log *slog.Logger) *Provider {
	if len(fallback) == 0 {
		fallback = StaticPlayers()
	}
	return &Provider{
		source:   source,
		fallback: fallback,
		ttl:      ttl,
		logger:   log,
		now:      time.Now,
	}
}

// Pool returns the merged pool. The randomized path reshuffles a copy on
// every call so each batch sees a fresh permutation; sorted orders by rating
// descending. Only the merged base list is cached, keyed by the TTL.
func (p *Provider) Pool(ctx context.Context, sorted bool) ([]domain.Player, error) {
	base := p.mergedBase(ctx)
	if len(base) == 0 {
		return nil, ErrEmptyPool
	}

	out := make([]domain.Player, len(base))
	copy(out, base)

	if sorted {
		sort.Slice(out, func(i, j int) bool {
			if out[i].Rating != out[j].Rating {
				return out[i].Rating > out[j].Rating
			}
			return out[i].Handle < out[j].Handle
		})
		return out, nil
	}

	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out, nil
}

// mergedBase returns the cached live∪fallback union, refreshing the live part
// when the cache expired.
func (p *Provider) mergedBase(ctx context.Context) []domain.Player {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.cached != nil && now.Sub(p.fetchedAt) < p.ttl {
		return p.cached
	}

	var live []domain.Player
	if p.source != nil {
		var err error
		live, err = p.source.LivePlayers(ctx)
		if err != nil {
			metrics.PoolFallbacks.Inc()
			if p.logger != nil {
				p.logger.Warn("live pool fetch failed, using fallback list", "error", err)
			}
			live = nil
		}
	}

	p.cached = merge(live, p.fallback)
	p.fetchedAt = now
	return p.cached
}

// merge unions live and fallback entries; live entries win handle collisions.
func merge(live, fallback []domain.Player) []domain.Player {
	merged := make([]domain.Player, 0, len(live)+len(fallback))
	seen := make(map[string]struct{}, len(live)+len(fallback))

	for _, p := range live {
		if p.Handle == "" {
			continue
		}
		if _, ok := seen[p.Handle]; ok {
			continue
		}
		seen[p.Handle] = struct{}{}
		merged = append(merged, p)
	}

	for _, p := range fallback {
		if p.Handle == "" {
			continue
		}
		if _, ok := seen[p.Handle]; ok {
			continue
		}
		seen[p.Handle] = struct{}{}
		p.Source = domain.PlayerSourceFallback
		merged = append(merged, p)
	}

	return merged
}
