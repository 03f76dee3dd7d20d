package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcdev12/champdraft/go/internal/draft/events"
	"github.com/rs/zerolog/log"
)

var (
	ErrAlreadyRunning = errors.New("outbox relay already running")
	ErrNotRunning     = errors.New("outbox relay not running")
)

type Config struct {
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	// FlushTimeout bounds how long Stop keeps publishing queued events.
	FlushTimeout time.Duration
	// SkipTicks drops TimeRemaining events, which only matter to live observers.
	SkipTicks bool
}

func DefaultConfig() Config {
	return Config{
		BufferSize:   256,
		MaxRetries:   3,
		RetryDelay:   200 * time.Millisecond,
		FlushTimeout: 5 * time.Second,
		SkipTicks:    true,
	}
}

// Relay is an events.Notifier that queues events and publishes them from its own goroutine.
// Notify never blocks: when the queue is full the event is dropped and counted.
type Relay struct {
	publisher EventPublisher
	config    Config
	queue     chan events.Event

	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	lastSent  atomic.Int64

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewRelay(publisher EventPublisher, cfg Config) *Relay {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = DefaultConfig().FlushTimeout
	}
	return &Relay{
		publisher: publisher,
		config:    cfg,
		queue:     make(chan events.Event, cfg.BufferSize),
		stopChan:  make(chan struct{}),
	}
}

func (r *Relay) Notify(e events.Event) {
	if r.config.SkipTicks && e.Type == events.TypeTimeRemaining {
		return
	}
	select {
	case r.queue <- e:
	default:
		r.dropped.Add(1)
		log.Warn().
			Str("event_type", string(e.Type)).
			Str("event_id", e.ID.String()).
			Msg("outbox queue full, dropping event")
	}
}

func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrAlreadyRunning
	}
	r.running = true

	r.wg.Add(1)
	go r.run(ctx)

	log.Info().
		Int("buffer_size", r.config.BufferSize).
		Int("max_retries", r.config.MaxRetries).
		Msg("outbox relay started")
	return nil
}

// Stop ends the worker after publishing whatever is still queued, bounded by FlushTimeout.
func (r *Relay) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotRunning
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopChan)
	r.wg.Wait()

	log.Info().
		Uint64("published", r.published.Load()).
		Uint64("failed", r.failed.Load()).
		Uint64("dropped", r.dropped.Load()).
		Msg("outbox relay stopped")
	return nil
}

// Running reports whether the worker goroutine is active.
func (r *Relay) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Relay) run(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			r.flush()
			return
		case <-r.stopChan:
			r.flush()
			return
		case e := <-r.queue:
			r.deliver(ctx, e)
		}
	}
}

func (r *Relay) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.FlushTimeout)
	defer cancel()
	for {
		select {
		case e := <-r.queue:
			r.deliver(ctx, e)
		default:
			return
		}
	}
}

func (r *Relay) deliver(ctx context.Context, e events.Event) {
	if err := r.publishWithRetry(ctx, e); err != nil {
		r.failed.Add(1)
		log.Error().
			Err(err).
			Str("event_id", e.ID.String()).
			Str("event_type", string(e.Type)).
			Msg("failed to publish event")
		return
	}
	r.published.Add(1)
	r.lastSent.Store(time.Now().UnixNano())
}

func (r *Relay) publishWithRetry(ctx context.Context, e events.Event) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := r.publisher.Publish(ctx, e); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Str("event_id", e.ID.String()).
				Int("attempt", attempt+1).
				Msg("failed to publish event, retrying")
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}

// Stats reads the relay counters.
type Stats struct {
	Published uint64    `json:"published"`
	Failed    uint64    `json:"failed"`
	Dropped   uint64    `json:"dropped"`
	Pending   int       `json:"pending"`
	LastSent  time.Time `json:"last_sent,omitempty"`
}

func (r *Relay) Stats() Stats {
	s := Stats{
		Published: r.published.Load(),
		Failed:    r.failed.Load(),
		Dropped:   r.dropped.Load(),
		Pending:   len(r.queue),
	}
	if ns := r.lastSent.Load(); ns != 0 {
		s.LastSent = time.Unix(0, ns)
	}
	return s
}
