package round

import (
	"strings"
	"sync"

	"github.com/mcdev12/champdraft/go/internal/models"
)

// Ledger keeps each participant's results since the process started.
type Ledger struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*ledgerEntry
}

type ledgerEntry struct {
	name    string
	results []bool
}

// LedgerLine is one participant's row of the ledger.
type LedgerLine struct {
	ParticipantID string        `json:"participant_id"`
	Name          string        `json:"name"`
	History       string        `json:"history"` // "O" per win, "X" per loss, oldest first
	Record        models.Record `json:"record"`
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]*ledgerEntry)}
}

// Record appends one result and returns the participant's updated record.
func (l *Ledger) Record(participantID, name string, won bool) models.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[participantID]
	if !ok {
		e = &ledgerEntry{name: name}
		l.entries[participantID] = e
		l.order = append(l.order, participantID)
	}
	e.results = append(e.results, won)
	return e.record(participantID)
}

// Lines returns every row in first-seen order.
func (l *Ledger) Lines() []LedgerLine {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines := make([]LedgerLine, 0, len(l.order))
	for _, id := range l.order {
		e := l.entries[id]
		lines = append(lines, LedgerLine{
			ParticipantID: id,
			Name:          e.name,
			History:       e.history(),
			Record:        e.record(id),
		})
	}
	return lines
}

// Reset forgets every result.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = nil
	l.entries = make(map[string]*ledgerEntry)
}

func (e *ledgerEntry) record(id string) models.Record {
	r := models.Record{ParticipantID: id, Name: e.name}
	for _, won := range e.results {
		if won {
			r.Wins++
		} else {
			r.Losses++
		}
	}
	if n := len(e.results); n > 0 {
		r.WinRate = float64(r.Wins) / float64(n) * 100
	}
	return r
}

func (e *ledgerEntry) history() string {
	var b strings.Builder
	for _, won := range e.results {
		if won {
			b.WriteByte('O')
		} else {
			b.WriteByte('X')
		}
	}
	return b.String()
}
