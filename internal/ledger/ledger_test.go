package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnownIDs_SeedAndContains(t *testing.T) {
	t.Parallel()

	known := New([]string{"abc123", "def456", ""})

	assert.Equal(t, 2, known.Len())
	assert.True(t, known.Contains("abc123"))
	assert.True(t, known.Contains("def456"))
	assert.False(t, known.Contains("ghi789"))
}

func TestKnownIDs_AddIsIdempotent(t *testing.T) {
	t.Parallel()

	known := New(nil)

	known.Add("abc123")
	known.Add("abc123", "def456", "")
	known.Add()

	assert.Equal(t, 2, known.Len())
	assert.True(t, known.Contains("abc123"))
	assert.False(t, known.Contains(""))
}

func TestKnownIDs_GrowsAcrossBatches(t *testing.T) {
	t.Parallel()

	known := New([]string{"seed1"})

	known.Add("batch1a", "batch1b")
	known.Add("batch1a", "batch2a")

	assert.Equal(t, 4, known.Len())
	for _, id := range []string{"seed1", "batch1a", "batch1b", "batch2a"} {
		assert.True(t, known.Contains(id), "expected %s to be known", id)
	}
}
