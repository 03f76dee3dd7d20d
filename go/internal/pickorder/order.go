// Package pickorder derives the turn order of a draft session from win records.
package pickorder

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/mcdev12/champdraft/go/internal/models"
)

// ErrNoParticipants is returned when there is nobody to order.
var ErrNoParticipants = errors.New("no participants to order")

// Compute orders participants by ascending win count, shuffling each group of
// equal wins uniformly. Participants missing from wins count as zero.
// The input slice is not modified.
func Compute(participants []models.Participant, wins map[string]int, rng *rand.Rand) ([]models.Participant, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	groups := make(map[int][]models.Participant)
	for _, p := range participants {
		w := wins[p.ID]
		groups[w] = append(groups[w], p)
	}

	keys := make([]int, 0, len(groups))
	for w := range groups {
		keys = append(keys, w)
	}
	sort.Ints(keys)

	order := make([]models.Participant, 0, len(participants))
	for _, w := range keys {
		group := groups[w]
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		order = append(order, group...)
	}
	return order, nil
}

// WithWins returns copies of the participants carrying their win count from the snapshot.
func WithWins(participants []models.Participant, snapshot models.StatsSnapshot) []models.Participant {
	out := make([]models.Participant, len(participants))
	for i, p := range participants {
		p.Wins = snapshot.Wins(p.ID)
		out[i] = p
	}
	return out
}
