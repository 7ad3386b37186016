package pool

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GameHarvester/internal/domain"
)

type fakeSource struct {
	players []domain.Player
	err     error
	calls   int
}

func (f *fakeSource) LivePlayers(context.Context) ([]domain.Player, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.players, nil
}

func livePlayers(n int) []domain.Player {
	players := make([]domain.Player, 0, n)
	for i := range n {
		players = append(players, domain.Player{
			Handle: fmt.Sprintf("live-%02d", i),
			Rating: 2800 + i,
			Source: domain.PlayerSourceLive,
		})
	}
	return players
}

func TestProvider_MergesLiveAndFallback(t *testing.T) {
	t.Parallel()

	source := &fakeSource{players: livePlayers(3)}
	fallback := []domain.Player{
		{Handle: "fallback-a", Rating: 2600},
		{Handle: "live-00", Rating: 1}, // collides with a live handle
	}

	provider := NewProvider(source, fallback, time.Hour, nil)
	players, err := provider.Pool(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, players, 4)

	byHandle := map[string]domain.Player{}
	for _, p := range players {
		byHandle[p.Handle] = p
	}

	// The live entry wins the handle collision.
	assert.Equal(t, 2800, byHandle["live-00"].Rating)
	assert.Equal(t, domain.PlayerSourceLive, byHandle["live-00"].Source)
	assert.Equal(t, domain.PlayerSourceFallback, byHandle["fallback-a"].Source)
}

func TestProvider_SortedOrdersByRatingDescending(t *testing.T) {
	t.Parallel()

	provider := NewProvider(&fakeSource{players: livePlayers(10)}, []domain.Player{{Handle: "f", Rating: 2000}}, time.Hour, nil)
	players, err := provider.Pool(context.Background(), true)
	require.NoError(t, err)

	for i := 1; i < len(players); i++ {
		assert.GreaterOrEqual(t, players[i-1].Rating, players[i].Rating)
	}
}

func TestProvider_RandomizedGivesFreshPermutations(t *testing.T) {
	t.Parallel()

	provider := NewProvider(&fakeSource{players: livePlayers(40)}, nil, time.Hour, nil)
	ctx := context.Background()

	first, err := provider.Pool(ctx, false)
	require.NoError(t, err)

	// Forty entries make an identical shuffle astronomically unlikely, but a
	// few retries keep the test honest about its randomness.
	same := true
	for range 5 {
		next, err := provider.Pool(ctx, false)
		require.NoError(t, err)
		require.Len(t, next, len(first))
		for i := range next {
			if next[i].Handle != first[i].Handle {
				same = false
				break
			}
		}
		if !same {
			break
		}
	}
	assert.False(t, same, "five reshuffles never changed the order")
}

func TestProvider_FallsBackSilentlyOnLiveFailure(t *testing.T) {
	t.Parallel()

	provider := NewProvider(&fakeSource{err: errors.New("leaderboard down")}, nil, time.Hour, nil)
	players, err := provider.Pool(context.Background(), true)
	require.NoError(t, err)
	require.NotEmpty(t, players)

	for _, p := range players {
		assert.Equal(t, domain.PlayerSourceFallback, p.Source)
	}
}

func TestProvider_EmptyEverythingErrors(t *testing.T) {
	t.Parallel()

	provider := NewProvider(&fakeSource{err: errors.New("down")}, []domain.Player{{Handle: ""}}, time.Hour, nil)
	_, err := provider.Pool(context.Background(), false)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestProvider_CachesLiveListUntilTTL(t *testing.T) {
	t.Parallel()

	source := &fakeSource{players: livePlayers(5)}
	provider := NewProvider(source, nil, 30*time.Minute, nil)

	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	now := base
	provider.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := provider.Pool(ctx, false)
	require.NoError(t, err)
	_, err = provider.Pool(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls, "second call inside the TTL must hit the cache")

	now = base.Add(31 * time.Minute)
	_, err = provider.Pool(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls, "expired cache must refetch the live list")
}
