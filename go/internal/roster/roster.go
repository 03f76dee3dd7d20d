// Package roster chooses who plays a session from the available candidates.
package roster

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/mcdev12/champdraft/go/internal/models"
)

// MinCandidates is the smallest pool a session can be formed from: two teams of three.
const MinCandidates = 2 * models.DefaultTeamSize

// ErrInsufficientCandidates is returned when fewer candidates than seats are available.
var ErrInsufficientCandidates = errors.New("not enough candidates to form two teams")

// Source supplies the candidates for a new session.
type Source interface {
	Candidates(ctx context.Context) ([]models.Participant, error)
}

// Static is a fixed candidate list.
type Static []models.Participant

func (s Static) Candidates(context.Context) ([]models.Participant, error) {
	return append([]models.Participant(nil), s...), nil
}

// StatsLoader is the slice of the stats store FromStats needs.
type StatsLoader interface {
	Load(ctx context.Context) (models.StatsSnapshot, error)
}

// FromStats seats every participant known to the stats store. It backs dev mode,
// where no presence source is wired. Candidates come back sorted by id.
type FromStats struct {
	Stats StatsLoader
}

func (f FromStats) Candidates(ctx context.Context) ([]models.Participant, error) {
	snap, err := f.Stats.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats roster: %w", err)
	}
	out := make([]models.Participant, 0, len(snap.Players))
	for id, rec := range snap.Players {
		out = append(out, models.Participant{ID: id, Name: rec.Name, Wins: rec.Wins})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Select validates the candidates and seats exactly n of them. In dev mode it takes
// the first n; otherwise it samples n uniformly. Fewer than max(n, MinCandidates)
// candidates is rejected, as are duplicate or blank ids.
func Select(candidates []models.Participant, n int, devMode bool, rng *rand.Rand) ([]models.Participant, error) {
	if n <= 0 {
		return nil, fmt.Errorf("seat count must be positive, got %d", n)
	}
	need := max(n, MinCandidates)
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return nil, fmt.Errorf("candidate %q has no id", c.Name)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate candidate id %q", id)
		}
		seen[id] = struct{}{}
	}
	if len(candidates) < need {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientCandidates, need, len(candidates))
	}

	picked := make([]models.Participant, len(candidates))
	copy(picked, candidates)
	if !devMode {
		rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	}
	return picked[:n:n], nil
}
