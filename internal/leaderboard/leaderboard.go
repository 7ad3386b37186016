package leaderboard

import (
	"context"
	"fmt"

	"GameHarvester/internal/domain"
)

// Category describes one ranked list to merge into the pool. Name is the
// speed class; URL is only needed by page-scraping strategies.
type Category struct {
	Name string
	URL  string
}

// Scanner captures a single leaderboard retrieval strategy (API, HTML page).
type Scanner interface {
	Name() string
	TopPlayers(ctx context.Context, category Category, limit int) ([]domain.Player, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("leaderboard scanner %s is not registered", name)
}
