package leaderboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GameHarvester/internal/domain"
)

type fakeScanner struct {
	perCategory map[string][]domain.Player
	err         error
}

func (f *fakeScanner) Name() string { return "fake" }

func (f *fakeScanner) TopPlayers(_ context.Context, cat Category, _ int) ([]domain.Player, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.perCategory[cat.Name], nil
}

func TestSource_MergesCategoriesByHandle(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(&fakeScanner{perCategory: map[string][]domain.Player{
		"blitz": {
			{Handle: "alpha", Rating: 3100, Category: "blitz"},
			{Handle: "beta", Rating: 2950, Category: "blitz"},
		},
		"rapid": {
			{Handle: "alpha", Rating: 3200, Category: "rapid"},
			{Handle: "gamma", Rating: 2800, Category: "rapid"},
			{Handle: "", Rating: 2700, Category: "rapid"},
		},
	}})

	source := NewSource(reg, "fake", []Category{{Name: "blitz"}, {Name: "rapid"}}, 50, nil)
	players, err := source.LivePlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 3)

	byHandle := map[string]domain.Player{}
	for _, p := range players {
		byHandle[p.Handle] = p
		assert.Equal(t, domain.PlayerSourceLive, p.Source)
	}

	// alpha ranks in both categories; the higher-rated rapid entry wins.
	assert.Equal(t, 3200, byHandle["alpha"].Rating)
	assert.Equal(t, "rapid", byHandle["alpha"].Category)
	assert.Contains(t, byHandle, "beta")
	assert.Contains(t, byHandle, "gamma")
}

func TestSource_CategoryFailurePropagates(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(&fakeScanner{err: errors.New("boom")})

	source := NewSource(reg, "fake", []Category{{Name: "blitz"}}, 50, nil)
	_, err := source.LivePlayers(context.Background())
	assert.ErrorContains(t, err, "category blitz")
}

func TestSource_UnknownStrategy(t *testing.T) {
	t.Parallel()

	source := NewSource(NewRegistry(), "missing", nil, 50, nil)
	_, err := source.LivePlayers(context.Background())
	assert.ErrorContains(t, err, "not registered")
}
