package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"GameHarvester/internal/domain"
	"GameHarvester/internal/ports"
)

// Source implements the live player list via a registered scanner strategy,
// merging the configured categories into one deduplicated list.
type Source struct {
	registry    *Registry
	strategy    string
	categories  []Category
	perCategory int
	logger      *slog.Logger
}

var _ ports.PlayerSource = (*Source)(nil)

// NewSource wires the scanner registry with the configured strategy.
func NewSource(reg *Registry, strategy string, categories []Category, perCategory int, log *slog.Logger) *Source {
	return &Source{
		registry:    reg,
		strategy:    strategy,
		categories:  categories,
		perCategory: perCategory,
		logger:      log,
	}
}

// LivePlayers queries every category and merges the results by handle. When
// the same handle ranks in several categories the higher-rated entry wins.
func (s *Source) LivePlayers(ctx context.Context) ([]domain.Player, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("leaderboard registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.strategy)
	if err != nil {
		return nil, err
	}

	s.debug("fetch leaderboards", "strategy", s.strategy, "categories", len(s.categories))

	var merged []domain.Player
	index := map[string]int{}
	for _, cat := range s.categories {
		players, err := strategy.TopPlayers(ctx, cat, s.perCategory)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Name, err)
		}
		s.debug("category produced players", "category", cat.Name, "count", len(players))

		for _, p := range players {
			if p.Handle == "" {
				continue
			}
			p.Source = domain.PlayerSourceLive
			if at, ok := index[p.Handle]; ok {
				if p.Rating > merged[at].Rating {
					merged[at] = p
				}
				continue
			}
			index[p.Handle] = len(merged)
			merged = append(merged, p)
		}
	}

	s.debug("leaderboard source done", "total_players", len(merged))
	return merged, nil
}

func (s *Source) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
