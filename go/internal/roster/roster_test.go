package roster

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(n int) []models.Participant {
	out := make([]models.Participant, n)
	for i := range out {
		out[i] = models.Participant{ID: fmt.Sprintf("u%02d", i), Name: fmt.Sprintf("User %d", i)}
	}
	return out
}

type stubStats struct {
	snap models.StatsSnapshot
	err  error
}

func (s stubStats) Load(context.Context) (models.StatsSnapshot, error) { return s.snap, s.err }

func TestSelect(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	t.Run("too few candidates", func(t *testing.T) {
		_, err := Select(candidates(5), 6, false, rng)
		assert.ErrorIs(t, err, ErrInsufficientCandidates)
	})

	t.Run("minimum is enforced", func(t *testing.T) {
		_, err := Select(candidates(4), 2, false, rng)
		assert.ErrorIs(t, err, ErrInsufficientCandidates)
	})

	t.Run("smaller teams seat exactly n", func(t *testing.T) {
		got, err := Select(candidates(7), 4, false, rng)
		require.NoError(t, err)
		assert.Len(t, got, 4)

		got, err = Select(candidates(6), 2, true, rng)
		require.NoError(t, err)
		assert.Equal(t, candidates(2), got)
	})

	t.Run("larger teams need more candidates", func(t *testing.T) {
		_, err := Select(candidates(7), 8, false, rng)
		assert.ErrorIs(t, err, ErrInsufficientCandidates)

		got, err := Select(candidates(8), 8, false, rng)
		require.NoError(t, err)
		assert.Len(t, got, 8)
	})

	t.Run("non-positive seat count", func(t *testing.T) {
		_, err := Select(candidates(6), 0, false, rng)
		assert.Error(t, err)
	})

	t.Run("dev mode takes the first seats", func(t *testing.T) {
		got, err := Select(candidates(9), 6, true, rng)
		require.NoError(t, err)
		assert.Equal(t, candidates(6), got)
	})

	t.Run("random sample is distinct", func(t *testing.T) {
		pool := candidates(10)
		got, err := Select(pool, 6, false, rng)
		require.NoError(t, err)
		require.Len(t, got, 6)
		seen := map[string]bool{}
		for _, p := range got {
			assert.False(t, seen[p.ID])
			seen[p.ID] = true
		}
		assert.Equal(t, candidates(10), pool, "input untouched")
	})

	t.Run("every candidate gets seated eventually", func(t *testing.T) {
		counts := map[string]int{}
		for i := 0; i < 500; i++ {
			got, err := Select(candidates(8), 6, false, rng)
			require.NoError(t, err)
			for _, p := range got {
				counts[p.ID]++
			}
		}
		assert.Len(t, counts, 8)
		for id, c := range counts {
			assert.InDelta(t, 375, c, 60, id)
		}
	})

	t.Run("duplicate ids", func(t *testing.T) {
		c := candidates(6)
		c[5].ID = c[0].ID
		_, err := Select(c, 6, false, rng)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInsufficientCandidates)
	})

	t.Run("blank id", func(t *testing.T) {
		c := candidates(6)
		c[2].ID = " "
		_, err := Select(c, 6, false, rng)
		assert.Error(t, err)
	})
}

func TestFromStats(t *testing.T) {
	snap := models.NewStatsSnapshot()
	snap.Players["b"] = models.PlayerRecord{Name: "Bee", Wins: 2}
	snap.Players["a"] = models.PlayerRecord{Name: "Ay", Wins: 5}

	got, err := FromStats{Stats: stubStats{snap: snap}}.Candidates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Participant{
		{ID: "a", Name: "Ay", Wins: 5},
		{ID: "b", Name: "Bee", Wins: 2},
	}, got)

	boom := errors.New("boom")
	_, err = FromStats{Stats: stubStats{err: boom}}.Candidates(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestStatic(t *testing.T) {
	src := Static(candidates(3))
	got, err := src.Candidates(context.Background())
	require.NoError(t, err)
	got[0].Name = "changed"
	assert.Equal(t, "User 0", src[0].Name)
}
