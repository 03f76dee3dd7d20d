// Package round commits the outcome of a completed draft to the stats store.
package round

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/champdraft/go/internal/draft/events"
	"github.com/mcdev12/champdraft/go/internal/draft/session"
	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

var (
	ErrIncompleteSession = errors.New("not every participant has claimed an item")
	ErrAlreadyResolved   = errors.New("round already resolved")
	ErrInvalidSide       = errors.New("unknown winning side")
	// ErrPersist wraps stats store failures. The round result is lost unless the caller acts on it.
	ErrPersist = errors.New("failed to persist round result")
)

// StatsRepository defines what the resolver needs from the stats store
type StatsRepository interface {
	Load(ctx context.Context) (models.StatsSnapshot, error)
	Save(ctx context.Context, snapshot models.StatsSnapshot) error
}

// Draft is the view of a session the resolver reads.
type Draft interface {
	Snapshot() session.Snapshot
}

// Result is the outcome of one resolved round.
type Result struct {
	SessionID  uuid.UUID                   `json:"session_id"`
	Round      int                         `json:"round"`
	Winner     models.Side                 `json:"winner"`
	Outcomes   []events.ParticipantOutcome `json:"outcomes"`
	ResolvedAt time.Time                   `json:"resolved_at"`
}

// Resolver is the only writer of the stats store during normal operation.
type Resolver struct {
	repo     StatsRepository
	ledger   *Ledger
	notifier events.Notifier
	clock    clockwork.Clock

	mu       sync.Mutex
	resolved map[uuid.UUID]int
}

// NewResolver creates a new Resolver
func NewResolver(repo StatsRepository, ledger *Ledger, notifier events.Notifier, clock clockwork.Clock) *Resolver {
	if ledger == nil {
		ledger = NewLedger()
	}
	if notifier == nil {
		notifier = events.Nop
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Resolver{
		repo:     repo,
		ledger:   ledger,
		notifier: notifier,
		clock:    clock,
		resolved: make(map[uuid.UUID]int),
	}
}

// Ledger returns the in-process results ledger.
func (r *Resolver) Ledger() *Ledger { return r.ledger }

// Resolved reports whether the session has already been committed.
func (r *Resolver) Resolved(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.resolved[id]
	return ok
}

// Resolve adds a win to every participant of the winning side, counts the round
// and saves the snapshot. Nothing is written when validation fails.
func (r *Resolver) Resolve(ctx context.Context, d Draft, winner models.Side) (*Result, error) {
	if winner != models.SideTeam1 && winner != models.SideTeam2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSide, winner)
	}
	snap := d.Snapshot()
	if err := checkComplete(snap); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if round, ok := r.resolved[snap.ID]; ok {
		return nil, fmt.Errorf("%w: session %s was round %d", ErrAlreadyResolved, snap.ID, round)
	}

	current, err := r.repo.Load(ctx)
	if err != nil {
		log.Error().Err(err).Str("session_id", snap.ID.String()).Msg("failed to load stats")
		return nil, fmt.Errorf("%w: load: %w", ErrPersist, err)
	}

	updated := current.Clone()
	for _, p := range snap.Teams[winner] {
		rec, ok := updated.Players[p.ID]
		if !ok {
			rec.Name = p.Name
		}
		rec.Wins++
		updated.Players[p.ID] = rec
	}
	updated.TotalRounds++

	if err := r.repo.Save(ctx, updated); err != nil {
		log.Error().
			Err(err).
			Str("session_id", snap.ID.String()).
			Str("winner", string(winner)).
			Int("round", updated.TotalRounds).
			Msg("failed to save round result")
		return nil, fmt.Errorf("%w: save: %w", ErrPersist, err)
	}
	r.resolved[snap.ID] = updated.TotalRounds

	res := &Result{
		SessionID:  snap.ID,
		Round:      updated.TotalRounds,
		Winner:     winner,
		ResolvedAt: r.clock.Now(),
	}
	for _, side := range models.Sides {
		for _, p := range snap.Teams[side] {
			won := side == winner
			cumulative := updated.CumulativeRecord(p.ID)
			if cumulative.Name == "" {
				cumulative.Name = p.Name
			}
			res.Outcomes = append(res.Outcomes, events.ParticipantOutcome{
				Participant: p,
				Side:        side,
				Item:        snap.Selections[p.ID],
				Won:         won,
				Session:     r.ledger.Record(p.ID, p.Name, won),
				Cumulative:  cumulative,
			})
		}
	}

	log.Info().
		Str("session_id", snap.ID.String()).
		Str("winner", string(winner)).
		Int("round", res.Round).
		Msg("round resolved")
	r.notifier.Notify(events.New(snap.ID, events.TypeRoundResolved, res.ResolvedAt, events.RoundResolvedPayload{
		Round:    res.Round,
		Winner:   winner,
		Outcomes: res.Outcomes,
	}))
	return res, nil
}

func checkComplete(snap session.Snapshot) error {
	if snap.State != models.SessionStateCompleted {
		return fmt.Errorf("%w: session is %s", ErrIncompleteSession, snap.State)
	}
	for _, p := range snap.Teams.All() {
		if snap.Selections[p.ID] == "" {
			return fmt.Errorf("%w: %s has no item", ErrIncompleteSession, p.ID)
		}
	}
	return nil
}
