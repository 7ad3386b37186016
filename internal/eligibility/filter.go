package eligibility

import "GameHarvester/internal/domain"

// Filter applies the storefront's usability rules to fetched games.
type Filter struct {
	minPlies int
}

// New builds a filter; games shorter than minPlies are rejected.
func New(minPlies int) *Filter {
	return &Filter{minPlies: minPlies}
}

// Apply classifies a single game. The returned game carries the enrichment
// mode and ok reports whether it passed. Games arriving without upstream
// analysis are kept in neutral mode rather than dropped, so the consumer can
// run its own engine pass.
func (f *Filter) Apply(game domain.Game) (domain.Game, bool) {
	if game.Plies < f.minPlies {
		return game, false
	}

	if game.Eval == nil {
		game.Enrichment = domain.EnrichmentNeutral
		return game, true
	}

	game.Enrichment = domain.EnrichmentEngine
	return game, true
}
