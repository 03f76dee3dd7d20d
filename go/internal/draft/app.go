// Package draft owns the single live draft session and the round bookkeeping
// around it. The HTTP control surface in service.go drives it.
package draft

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/champdraft/go/internal/draft/events"
	"github.com/mcdev12/champdraft/go/internal/draft/round"
	"github.com/mcdev12/champdraft/go/internal/draft/session"
	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/mcdev12/champdraft/go/internal/pickorder"
	"github.com/mcdev12/champdraft/go/internal/pool"
	"github.com/mcdev12/champdraft/go/internal/roster"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoSession         = errors.New("no draft session")
	ErrSessionInProgress = errors.New("a draft session is already in progress")
	ErrNoCatalog         = errors.New("item catalog is empty")
)

// CatalogSource fetches the item universe
type CatalogSource interface {
	FetchCatalog(ctx context.Context) ([]models.Item, error)
}

// StatsRepository defines what the app layer needs from the stats store
type StatsRepository interface {
	Load(ctx context.Context) (models.StatsSnapshot, error)
}

// Resolver commits a completed session to the stats store.
type Resolver interface {
	Resolve(ctx context.Context, d round.Draft, winner models.Side) (*round.Result, error)
	Resolved(id uuid.UUID) bool
	Ledger() *round.Ledger
}

// Config holds the app tunables.
type Config struct {
	Settings models.DraftSettings
	DevMode  bool
	// TickInterval overrides the per-second countdown, mostly for tests.
	TickInterval time.Duration
	Clock        clockwork.Clock
	// Seed fixes the random source. Zero seeds from the clock.
	Seed int64
}

// Standings is the cumulative and in-process view of every known participant.
type Standings struct {
	TotalRounds int                `json:"total_rounds"`
	Records     []models.Record    `json:"records"`
	Today       []round.LedgerLine `json:"today"`
}

// App handles draft business logic
type App struct {
	catalogSource CatalogSource
	roster        roster.Source
	stats         StatsRepository
	resolver      Resolver
	notifier      events.Notifier
	cfg           Config
	clock         clockwork.Clock

	// rootCtx parents every session so timers outlive the request that created them.
	rootCtx context.Context

	mu      sync.Mutex
	rng     *rand.Rand
	catalog []models.Item
	current *session.Session
	carried map[string]struct{}
}

// NewApp creates a new draft App. rootCtx bounds the lifetime of every session it creates.
func NewApp(rootCtx context.Context, catalog CatalogSource, src roster.Source, stats StatsRepository, resolver Resolver, notifier events.Notifier, cfg Config) *App {
	cfg.Settings = cfg.Settings.WithDefaults()
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = clock.Now().UnixNano()
	}
	if notifier == nil {
		notifier = events.Nop
	}
	return &App{
		catalogSource: catalog,
		roster:        src,
		stats:         stats,
		resolver:      resolver,
		notifier:      notifier,
		cfg:           cfg,
		clock:         clock,
		rootCtx:       rootCtx,
		rng:           rand.New(rand.NewSource(seed)),
		carried:       make(map[string]struct{}),
	}
}

// RefreshCatalog refetches the item universe. Sessions already formed keep the items they sampled.
func (a *App) RefreshCatalog(ctx context.Context) ([]models.Item, error) {
	items, err := a.catalogSource.FetchCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNoCatalog
	}

	a.mu.Lock()
	a.catalog = items
	a.mu.Unlock()

	log.Info().Int("items", len(items)).Msg("catalog refreshed")
	return append([]models.Item(nil), items...), nil
}

// Catalog returns the cached item universe.
func (a *App) Catalog() []models.Item {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Item(nil), a.catalog...)
}

// CreateSession forms a new session from the given candidates, or from the
// roster source when none are given. A running session must finish or be aborted first.
func (a *App) CreateSession(ctx context.Context, candidates []models.Participant) (session.Snapshot, error) {
	if len(a.Catalog()) == 0 {
		if _, err := a.RefreshCatalog(ctx); err != nil {
			return session.Snapshot{}, err
		}
	}

	if len(candidates) == 0 {
		if a.roster == nil {
			return session.Snapshot{}, fmt.Errorf("%w: no roster source configured", roster.ErrInsufficientCandidates)
		}
		var err error
		candidates, err = a.roster.Candidates(ctx)
		if err != nil {
			return session.Snapshot{}, fmt.Errorf("failed to list candidates: %w", err)
		}
	}

	snap, err := a.stats.Load(ctx)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to load stats: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current != nil {
		switch a.current.State() {
		case models.SessionStateAwaitingStart, models.SessionStateInTurn:
			return session.Snapshot{}, ErrSessionInProgress
		case models.SessionStateCompleted:
			prev := a.current.Snapshot()
			if !a.resolver.Resolved(prev.ID) {
				log.Warn().
					Str("session_id", prev.ID.String()).
					Msg("replacing a completed session that was never resolved")
			}
			a.carryOver(prev)
		}
	}

	seated, err := roster.Select(candidates, a.cfg.Settings.Participants(), a.cfg.DevMode, a.rng)
	if err != nil {
		return session.Snapshot{}, err
	}
	seated = pickorder.WithWins(seated, snap)

	p := pool.New(a.catalog, rand.New(rand.NewSource(a.rng.Int63())))
	if a.cfg.Settings.Fearless {
		for name := range a.carried {
			p.Exclude(name)
		}
	}

	s, err := session.New(a.rootCtx, seated, p, session.Options{
		Settings:     a.cfg.Settings,
		Round:        snap.TotalRounds + 1,
		Clock:        a.clock,
		Rand:         rand.New(rand.NewSource(a.rng.Int63())),
		Notifier:     a.notifier,
		TickInterval: a.cfg.TickInterval,
	})
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to form session: %w", err)
	}
	a.current = s
	return s.Snapshot(), nil
}

// carryOver remembers a finished session's items for fearless pools. Callers hold a.mu.
func (a *App) carryOver(snap session.Snapshot) {
	if !a.cfg.Settings.Fearless {
		return
	}
	for _, item := range snap.Selections {
		a.carried[item] = struct{}{}
	}
	log.Debug().Int("carried", len(a.carried)).Msg("fearless exclusions carried over")
}

// live returns the live session or ErrNoSession.
func (a *App) live() (*session.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return nil, ErrNoSession
	}
	return a.current, nil
}

// Start starts the live session.
func (a *App) Start() (session.Snapshot, error) {
	s, err := a.live()
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := s.Start(); err != nil {
		return session.Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Claim forwards a participant's claim to the live session.
func (a *App) Claim(participantID, item string) (session.ClaimResult, error) {
	s, err := a.live()
	if err != nil {
		return session.ClaimResult{}, err
	}
	return s.Claim(participantID, item)
}

// Abort ends the live session without a result.
func (a *App) Abort(reason string) (session.Snapshot, error) {
	s, err := a.live()
	if err != nil {
		return session.Snapshot{}, err
	}
	if err := s.Abort(reason); err != nil {
		return session.Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Snapshot returns the live session view.
func (a *App) Snapshot() (session.Snapshot, error) {
	s, err := a.live()
	if err != nil {
		return session.Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// DeclareWinner resolves the live session with the given winning side.
func (a *App) DeclareWinner(ctx context.Context, side models.Side) (*round.Result, error) {
	s, err := a.live()
	if err != nil {
		return nil, err
	}
	return a.resolver.Resolve(ctx, s, side)
}

// Standings returns cumulative records for everyone in the stats store plus today's ledger.
func (a *App) Standings(ctx context.Context) (Standings, error) {
	snap, err := a.stats.Load(ctx)
	if err != nil {
		return Standings{}, fmt.Errorf("failed to load stats: %w", err)
	}
	ids := make([]string, 0, len(snap.Players))
	for id := range snap.Players {
		ids = append(ids, id)
	}
	records := make([]models.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, snap.CumulativeRecord(id))
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Wins != records[j].Wins {
			return records[i].Wins > records[j].Wins
		}
		return records[i].ParticipantID < records[j].ParticipantID
	})

	return Standings{
		TotalRounds: snap.TotalRounds,
		Records:     records,
		Today:       a.resolver.Ledger().Lines(),
	}, nil
}
