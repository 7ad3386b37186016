// Package sink delivers accepted games downstream: a Redis Stream for the
// storefront ingest workers, a JSONL file for standalone runs, and an
// in-memory collector for tests and dry runs.
package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"GameHarvester/internal/domain"
	"GameHarvester/internal/ports"
)

// Redis publishes accepted games to a Redis Stream via XADD.
type Redis struct {
	client *redis.Client
	stream string
}

var _ ports.GameSink = (*Redis)(nil)

// NewRedis connects to the given address.
func NewRedis(addr, stream string) *Redis {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &Redis{client: client, stream: stream}
}

// NewRedisWithURL connects using a redis:// URL.
func NewRedisWithURL(url, stream string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts), stream: stream}, nil
}

// Ping checks the connection; called at startup so a dead broker fails fast.
func (s *Redis) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Publish appends one game to the stream.
func (s *Redis) Publish(ctx context.Context, game domain.Game) error {
	if err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: gameToValues(game),
	}).Err(); err != nil {
		return fmt.Errorf("xadd game %s: %w", game.ID, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *Redis) Close() error {
	return s.client.Close()
}

func gameToValues(game domain.Game) map[string]interface{} {
	values := map[string]interface{}{
		"game_id":    game.ID,
		"handle":     game.Handle,
		"white":      game.White,
		"black":      game.Black,
		"speed":      game.Speed,
		"played_at":  game.PlayedAt.Format(time.RFC3339),
		"plies":      strconv.Itoa(game.Plies),
		"enrichment": string(game.Enrichment),
	}

	if game.Eval != nil {
		values["eval_score"] = strconv.Itoa(game.Eval.Score)
		values["eval_depth"] = strconv.Itoa(game.Eval.Depth)
	}

	return values
}
