// Package session implements the draft state machine: team split, turn order,
// claims and cancellations, forced assignment on expiry and completion.
//
// Every mutation runs under one mutex that also guards the timer callbacks, so a
// manual claim and an expiring timer can never both be accepted for the same turn.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/champdraft/go/internal/draft/events"
	"github.com/mcdev12/champdraft/go/internal/draft/timer"
	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/mcdev12/champdraft/go/internal/pickorder"
	"github.com/mcdev12/champdraft/go/internal/pool"
	"github.com/rs/zerolog/log"
)

// Options configures a new session.
type Options struct {
	Settings models.DraftSettings
	// Round is the number this session will carry once resolved.
	Round        int
	Clock        clockwork.Clock
	Rand         *rand.Rand
	Notifier     events.Notifier
	TickInterval time.Duration
}

// Action tells what an accepted Claim call did.
type Action string

const (
	ActionClaimed   Action = "claimed"
	ActionCancelled Action = "cancelled"
)

// ClaimResult describes an accepted Claim call.
type ClaimResult struct {
	Action    Action       `json:"action"`
	Claim     models.Claim `json:"claim"`
	Completed bool         `json:"completed"`
}

// Session is one draft. It is created by New and is safe for concurrent use.
type Session struct {
	id       uuid.UUID
	round    int
	settings models.DraftSettings
	clock    clockwork.Clock
	rng      *rand.Rand
	notifier events.Notifier
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       models.SessionState
	teams       models.Teams
	order       []models.Participant
	offered     []models.Item
	pool        *pool.Pool
	index       int
	selections  map[string]string
	history     []models.Claim
	timer       *timer.Timer
	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time
}

// New forms a session: it splits the participants into two teams, computes the
// turn order from their win counts and samples the offered items from p.
// The session is returned in AwaitingStart with no timer running.
func New(ctx context.Context, participants []models.Participant, p *pool.Pool, opts Options) (*Session, error) {
	settings := opts.Settings.WithDefaults()
	if len(participants) != settings.Participants() {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrInvalidRoster, settings.Participants(), len(participants))
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(clock.Now().UnixNano()))
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = events.Nop
	}

	s := &Session{
		id:         uuid.New(),
		round:      opts.Round,
		settings:   settings,
		clock:      clock,
		rng:        rng,
		notifier:   notifier,
		interval:   opts.TickInterval,
		state:      models.SessionStateForming,
		pool:       p,
		selections: make(map[string]string, len(participants)),
		createdAt:  clock.Now(),
	}

	s.teams = s.splitTeams(participants)

	wins := make(map[string]int, len(participants))
	for _, pt := range participants {
		wins[pt.ID] = pt.Wins
	}
	order, err := pickorder.Compute(participants, wins, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to compute pick order: %w", err)
	}
	s.order = order

	offered, err := p.Sample(settings.ChampionCount)
	if err != nil {
		return nil, fmt.Errorf("failed to sample items: %w", err)
	}
	s.offered = offered
	if len(offered) < len(order) {
		log.Warn().
			Int("offered", len(offered)).
			Int("participants", len(order)).
			Msg("fewer offered items than participants, forced assignment may run dry")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.state = models.SessionStateAwaitingStart

	log.Info().
		Str("session_id", s.id.String()).
		Int("round", s.round).
		Int("participants", len(order)).
		Int("items", len(offered)).
		Msg("draft session formed")

	s.emit(events.TypeSessionCreated, events.SessionCreatedPayload{
		Round:     s.round,
		Teams:     s.copyTeams(),
		PickOrder: s.copyOrder(),
		Items:     s.copyOffered(),
	})
	return s, nil
}

func (s *Session) splitTeams(participants []models.Participant) models.Teams {
	shuffled := make([]models.Participant, len(participants))
	copy(shuffled, participants)
	s.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	half := len(shuffled) / 2
	return models.Teams{
		models.SideTeam1: shuffled[:half:half],
		models.SideTeam2: shuffled[half:],
	}
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.id }

// Round returns the round number the session was formed with.
func (s *Session) Round() int { return s.round }

// State returns the current lifecycle state.
func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start moves the session into turn 0 and starts its timer.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case models.SessionStateAwaitingStart:
	case models.SessionStateCompleted:
		return ErrSessionCompleted
	case models.SessionStateAborted:
		return ErrSessionAborted
	default:
		return ErrAlreadyStarted
	}

	s.state = models.SessionStateInTurn
	s.startedAt = s.clock.Now()
	log.Info().Str("session_id", s.id.String()).Msg("draft session started")
	s.emit(events.TypeSessionStarted, events.SessionStartedPayload{StartedAt: s.startedAt})
	s.startTurn()
	return nil
}

// Claim applies a participant's selection. Re-claiming the item the participant
// holds cancels that claim when it is the most recent one and rewinds the session
// to that participant's turn.
func (s *Session) Claim(participantID, item string) (ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkClaimable(); err != nil {
		return ClaimResult{}, err
	}

	if held, ok := s.selections[participantID]; ok {
		if held != item {
			return ClaimResult{}, fmt.Errorf("%w: %s holds %s", ErrAlreadyClaimed, participantID, held)
		}
		return s.cancelClaim(participantID)
	}

	holder := s.order[s.index]
	if holder.ID != participantID {
		return ClaimResult{}, fmt.Errorf("%w: turn %d belongs to %s", ErrNotYourTurn, s.index, holder.ID)
	}
	if !s.isOffered(item) {
		return ClaimResult{}, fmt.Errorf("%w: %s", ErrItemNotOffered, item)
	}
	if s.pool.Excluded(item) {
		return ClaimResult{}, fmt.Errorf("%w: %s", ErrItemUnavailable, item)
	}

	claim := s.accept(holder, item, false)
	return ClaimResult{Action: ActionClaimed, Claim: claim, Completed: s.state == models.SessionStateCompleted}, nil
}

// Abort stops the timer and ends the session without a result.
func (s *Session) Abort(reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case models.SessionStateCompleted:
		return ErrSessionCompleted
	case models.SessionStateAborted:
		return ErrSessionAborted
	}

	s.stopTimer()
	s.cancel()
	s.state = models.SessionStateAborted
	s.completedAt = s.clock.Now()

	log.Info().Str("session_id", s.id.String()).Str("reason", reason).Msg("draft session aborted")
	s.emit(events.TypeSessionAborted, events.SessionAbortedPayload{AbortedAt: s.completedAt, Reason: reason})
	return nil
}

func (s *Session) checkClaimable() error {
	switch s.state {
	case models.SessionStateInTurn:
		return nil
	case models.SessionStateCompleted:
		return ErrSessionCompleted
	case models.SessionStateAborted:
		return ErrSessionAborted
	default:
		return ErrNotStarted
	}
}

func (s *Session) cancelClaim(participantID string) (ClaimResult, error) {
	last := s.history[len(s.history)-1]
	if last.ParticipantID != participantID {
		return ClaimResult{}, fmt.Errorf("%w: %s claimed at turn %d", ErrCancelNotAllowed, participantID, s.turnOf(participantID))
	}

	s.stopTimer()
	s.history = s.history[:len(s.history)-1]
	delete(s.selections, participantID)
	s.pool.Release(last.Item)
	s.index = last.Turn

	p := s.order[s.index]
	log.Info().
		Str("session_id", s.id.String()).
		Str("participant_id", participantID).
		Str("item", last.Item).
		Int("turn", s.index).
		Msg("claim cancelled")

	s.emit(events.TypeClaimCancelled, s.claimPayload(p, last.Item))
	s.startTurn()

	cancelled := last
	cancelled.ClaimedAt = s.clock.Now()
	return ClaimResult{Action: ActionCancelled, Claim: cancelled}, nil
}

// accept records the claim for the turn holder and advances. Callers hold s.mu
// and have validated the claim.
func (s *Session) accept(holder models.Participant, item string, forced bool) models.Claim {
	s.stopTimer()

	claim := models.Claim{
		ParticipantID: holder.ID,
		Item:          item,
		Turn:          s.index,
		Forced:        forced,
		ClaimedAt:     s.clock.Now(),
	}
	s.selections[holder.ID] = item
	s.pool.Exclude(item)
	s.history = append(s.history, claim)

	typ := events.TypeClaimAccepted
	if forced {
		typ = events.TypeForcedAssignment
	}
	log.Info().
		Str("session_id", s.id.String()).
		Str("participant_id", holder.ID).
		Str("item", item).
		Int("turn", s.index).
		Bool("forced", forced).
		Msg("claim accepted")
	s.emit(typ, s.claimPayload(holder, item))

	s.index++
	if s.index == len(s.order) {
		s.complete()
		return claim
	}
	s.startTurn()
	return claim
}

func (s *Session) complete() {
	s.state = models.SessionStateCompleted
	s.completedAt = s.clock.Now()
	s.cancel()

	duration := s.completedAt.Sub(s.startedAt)
	log.Info().
		Str("session_id", s.id.String()).
		Dur("duration", duration).
		Msg("draft session completed")
	s.emit(events.TypeSessionCompleted, events.SessionCompletedPayload{
		Selections:  s.copySelections(),
		CompletedAt: s.completedAt,
		Duration:    duration.String(),
	})
}

// startTurn arms the timer for the current index. Callers hold s.mu.
func (s *Session) startTurn() {
	p := s.order[s.index]
	side, _ := s.teams.SideOf(p.ID)
	t := timer.Start(s.ctx, s.clock, s.index, s.settings.PickTimeout, s.interval, timer.Callbacks{
		OnTick:   s.onTick,
		OnExpire: s.onExpire,
	})
	s.timer = t

	s.emit(events.TypeTurnStarted, events.TurnStartedPayload{
		Participant:    p,
		Turn:           s.index,
		Side:           side,
		StartedAt:      s.clock.Now(),
		TimeoutAt:      t.Deadline(),
		TimePerPickSec: int(s.settings.PickTimeout / time.Second),
	})
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// checkTimer reports ErrStaleTimer unless t still watches the live turn. Callers hold s.mu.
func (s *Session) checkTimer(t *timer.Timer) error {
	if s.state != models.SessionStateInTurn || s.timer != t || t.Turn() != s.index {
		return ErrStaleTimer
	}
	return nil
}

func (s *Session) onTick(t *timer.Timer, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTimer(t); err != nil {
		return
	}
	s.emit(events.TypeTimeRemaining, events.TimeRemainingPayload{
		Turn:             s.index,
		RemainingSeconds: remaining,
	})
}

func (s *Session) onExpire(t *timer.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTimer(t); err != nil {
		log.Debug().
			Err(err).
			Str("session_id", s.id.String()).
			Int("timer_turn", t.Turn()).
			Int("turn", s.index).
			Msg("ignoring expired timer")
		return
	}
	s.timer = nil

	holder := s.order[s.index]
	item, ok := s.pool.Pick(s.offered)
	if !ok {
		log.Error().
			Str("session_id", s.id.String()).
			Str("participant_id", holder.ID).
			Int("turn", s.index).
			Msg("turn expired with no eligible item left, waiting for a manual claim")
		return
	}
	s.accept(holder, item.Name, true)
}

func (s *Session) isOffered(item string) bool {
	for _, it := range s.offered {
		if it.Name == item {
			return true
		}
	}
	return false
}

func (s *Session) turnOf(participantID string) int {
	for i, p := range s.order {
		if p.ID == participantID {
			return i
		}
	}
	return -1
}

func (s *Session) claimPayload(p models.Participant, item string) events.ClaimPayload {
	side, _ := s.teams.SideOf(p.ID)
	return events.ClaimPayload{
		Participant: p,
		Side:        side,
		Item:        item,
		Turn:        s.index,
		At:          s.clock.Now(),
	}
}

func (s *Session) emit(typ events.Type, payload any) {
	s.notifier.Notify(events.New(s.id, typ, s.clock.Now(), payload))
}
