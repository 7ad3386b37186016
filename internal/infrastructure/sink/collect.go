package sink

import (
	"context"
	"sync"

	"GameHarvester/internal/domain"
	"GameHarvester/internal/ports"
)

// Collector keeps accepted games in memory; used by tests and the CLI's
// dry path.
type Collector struct {
	mu    sync.Mutex
	games []domain.Game
}

var _ ports.GameSink = (*Collector)(nil)

// NewCollector builds an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Publish appends the game.
func (c *Collector) Publish(_ context.Context, game domain.Game) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.games = append(c.games, game)
	return nil
}

// Games returns a copy of everything published so far.
func (c *Collector) Games() []domain.Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Game, len(c.games))
	copy(out, c.games)
	return out
}

// Close is a no-op.
func (c *Collector) Close() error {
	return nil
}
