// Package events defines what the draft engine emits and the sinks that receive it.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Type names one kind of draft event.
type Type string

const (
	TypeSessionCreated   Type = "SessionCreated"
	TypeSessionStarted   Type = "SessionStarted"
	TypeTurnStarted      Type = "TurnStarted"
	TypeTimeRemaining    Type = "TimeRemaining"
	TypeClaimAccepted    Type = "ClaimAccepted"
	TypeClaimCancelled   Type = "ClaimCancelled"
	TypeForcedAssignment Type = "ForcedAssignment"
	TypeSessionCompleted Type = "SessionCompleted"
	TypeSessionAborted   Type = "SessionAborted"
	TypeRoundResolved    Type = "RoundResolved"
)

// Event is an envelope around one payload.
type Event struct {
	ID        uuid.UUID `json:"event_id"`
	Type      Type      `json:"event_type"`
	SessionID uuid.UUID `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New wraps a payload into an event with a fresh id.
func New(sessionID uuid.UUID, typ Type, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.New(),
		Type:      typ,
		SessionID: sessionID,
		Timestamp: at.UTC(),
		Payload:   payload,
	}
}

// Marshal encodes the event for the wire.
func (e Event) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.Type, err)
	}
	return data, nil
}

// Notifier receives events synchronously from inside the session's critical
// section. Implementations must return quickly and never block on I/O.
type Notifier interface {
	Notify(e Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(e Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// Nop drops every event.
var Nop Notifier = NotifierFunc(func(Event) {})

// Multi fans an event out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(e Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(e)
		}
	}
}

// LogNotifier writes every event to the global zerolog logger.
type LogNotifier struct{}

func (LogNotifier) Notify(e Event) {
	ev := log.Debug()
	if e.Type != TypeTimeRemaining {
		ev = log.Info()
	}
	ev.Str("event_type", string(e.Type)).
		Str("session_id", e.SessionID.String()).
		Str("event_id", e.ID.String()).
		Interface("payload", e.Payload).
		Msg("draft event")
}

// Recorder keeps every event in memory. It is used by tests and the snapshot endpoint.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

// NewRecorder returns a recorder that also mirrors events to a buffered channel.
func NewRecorder(buffer int) *Recorder {
	return &Recorder{ch: make(chan Event, buffer)}
}

func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	select {
	case r.ch <- e:
	default:
	}
}

// C returns the mirror channel.
func (r *Recorder) C() <-chan Event { return r.ch }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of one type were recorded.
func (r *Recorder) Count(typ Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// OfType returns recorded events of one type in order.
func (r *Recorder) OfType(typ Type) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
