package store

import (
	"sync"
	"time"

	"github.com/africana/nftmarket/internal/domain"
)

// EventLog is the append-only marketplace event stream. Sequence numbers
// start at 1 and follow append order; the engine appends while holding
// its operation lock, so the sequence matches commit order.
type EventLog struct {
	mu     sync.RWMutex
	events []domain.Event
}

// NewEventLog creates an empty EventLog.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append assigns the next sequence number and timestamp, stores the
// event, and returns it.
func (l *EventLog) Append(e domain.Event) domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.Seq = uint64(len(l.events)) + 1
	e.EmittedAt = time.Now()
	l.events = append(l.events, e)
	return e
}

// After returns up to limit events with sequence numbers greater than
// seq, in emission order. A non-positive limit means no cap.
func (l *EventLog) After(seq uint64, limit int) []domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if seq >= uint64(len(l.events)) {
		return []domain.Event{}
	}
	tail := l.events[seq:]
	if limit > 0 && len(tail) > limit {
		tail = tail[:limit]
	}

	// Return a copy to avoid callers mutating the internal slice.
	result := make([]domain.Event, len(tail))
	copy(result, tail)
	return result
}

// Len returns the number of events emitted so far.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
