package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"GameHarvester/internal/domain"
	"GameHarvester/internal/ports"
)

// jsonlRecord is the on-disk shape of one accepted game.
type jsonlRecord struct {
	ID         string    `json:"id"`
	Handle     string    `json:"handle"`
	White      string    `json:"white"`
	Black      string    `json:"black"`
	Speed      string    `json:"speed"`
	PlayedAt   time.Time `json:"played_at"`
	Plies      int       `json:"plies"`
	Enrichment string    `json:"enrichment"`
	EvalScore  *int      `json:"eval_score,omitempty"`
	EvalDepth  *int      `json:"eval_depth,omitempty"`
}

// JSONL appends accepted games to a JSON-lines file, for runs detached from
// the storefront's broker.
type JSONL struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

var _ ports.GameSink = (*JSONL)(nil)

// NewJSONL opens (or creates) the output file in append mode.
func NewJSONL(path string) (*JSONL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open jsonl sink: %w", err)
	}
	return &JSONL{file: file, enc: json.NewEncoder(file)}, nil
}

// Publish writes one game as a JSON line.
func (s *JSONL) Publish(_ context.Context, game domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := jsonlRecord{
		ID:         game.ID,
		Handle:     game.Handle,
		White:      game.White,
		Black:      game.Black,
		Speed:      game.Speed,
		PlayedAt:   game.PlayedAt,
		Plies:      game.Plies,
		Enrichment: string(game.Enrichment),
	}
	if game.Eval != nil {
		record.EvalScore = &game.Eval.Score
		record.EvalDepth = &game.Eval.Depth
	}

	if err := s.enc.Encode(record); err != nil {
		return fmt.Errorf("encode game %s: %w", game.ID, err)
	}
	return nil
}

// Close syncs and closes the file.
func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.file.Sync(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("sync jsonl sink: %w", err)
	}
	return s.file.Close()
}
