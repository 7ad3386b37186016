package fetch

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GameHarvester/internal/domain"
	"GameHarvester/internal/ledger"
	"GameHarvester/internal/ratelimit"
)

type scriptedSource struct {
	responses []sourceResponse
	calls     int
}

type sourceResponse struct {
	games []domain.Game
	err   error
}

func (s *scriptedSource) GamesByPlayer(_ context.Context, _ string, _, _ time.Time, _ int) ([]domain.Game, error) {
	if s.calls >= len(s.responses) {
		return nil, errors.New("unexpected extra call")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp.games, resp.err
}

func newTestExecutor(t *testing.T, source *scriptedSource, known *ledger.KnownIDs) (*Executor, *[]time.Duration) {
	t.Helper()

	coord, err := ratelimit.New(ratelimit.DefaultConfig(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	if known == nil {
		known = ledger.New(nil)
	}

	exec := NewExecutor(source, coord, known, 3, slog.New(slog.DiscardHandler))

	var slept []time.Duration
	exec.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	exec.now = func() time.Time { return now }

	return exec, &slept
}

func games(ids ...string) []domain.Game {
	out := make([]domain.Game, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Game{ID: id, Plies: 40})
	}
	return out
}

func TestExecutor_SuccessFiltersKnownAndPaces(t *testing.T) {
	t.Parallel()

	source := &scriptedSource{responses: []sourceResponse{
		{games: games("a", "b", "c")},
	}}
	known := ledger.New([]string{"b"})
	exec, slept := newTestExecutor(t, source, known)

	fresh, err := exec.FetchPlayer(context.Background(), domain.Player{Handle: "p1"}, time.Time{}, time.Time{}, 25)
	require.NoError(t, err)

	require.Len(t, fresh, 2)
	assert.Equal(t, "a", fresh[0].ID)
	assert.Equal(t, "c", fresh[1].ID)

	// One pacing pause after the successful call.
	require.Len(t, *slept, 1)
	assert.Positive(t, (*slept)[0])
}

func TestExecutor_RetriesSameCallAfterRateLimit(t *testing.T) {
	t.Parallel()

	source := &scriptedSource{responses: []sourceResponse{
		{err: &ratelimit.LimitError{RetryAfter: 30 * time.Second}},
		{err: &ratelimit.LimitError{RetryAfter: 10 * time.Second}},
		{games: games("x")},
	}}
	exec, slept := newTestExecutor(t, source, nil)

	fresh, err := exec.FetchPlayer(context.Background(), domain.Player{Handle: "p1"}, time.Time{}, time.Time{}, 25)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, 3, source.calls)

	// Two cooldown waits plus the final pacing pause. The first wait covers
	// the 30s hint plus the 2s safety margin.
	require.Len(t, *slept, 3)
	assert.Equal(t, 32*time.Second, (*slept)[0])
}

func TestExecutor_ExhaustsRetryBudget(t *testing.T) {
	t.Parallel()

	limited := sourceResponse{err: &ratelimit.LimitError{RetryAfter: time.Second}}
	source := &scriptedSource{responses: []sourceResponse{limited, limited, limited, limited}}
	exec, _ := newTestExecutor(t, source, nil)

	_, err := exec.FetchPlayer(context.Background(), domain.Player{Handle: "p1"}, time.Time{}, time.Time{}, 25)
	assert.ErrorIs(t, err, ErrPlayerExhausted)
	assert.Equal(t, 4, source.calls)
}

func TestExecutor_TransientErrorYieldsNothing(t *testing.T) {
	t.Parallel()

	source := &scriptedSource{responses: []sourceResponse{
		{err: errors.New("connection reset")},
	}}
	exec, slept := newTestExecutor(t, source, nil)

	fresh, err := exec.FetchPlayer(context.Background(), domain.Player{Handle: "p1"}, time.Time{}, time.Time{}, 25)
	require.NoError(t, err)
	assert.Empty(t, fresh)
	assert.Empty(t, *slept, "transient failures must not trigger cooldown waits")
}

func TestExecutor_CancelledDuringCooldownWait(t *testing.T) {
	t.Parallel()

	source := &scriptedSource{responses: []sourceResponse{
		{err: &ratelimit.LimitError{RetryAfter: time.Minute}},
	}}
	exec, _ := newTestExecutor(t, source, nil)
	exec.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	_, err := exec.FetchPlayer(context.Background(), domain.Player{Handle: "p1"}, time.Time{}, time.Time{}, 25)
	assert.ErrorIs(t, err, context.Canceled)
}
