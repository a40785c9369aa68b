package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a marketplace event.
type EventType string

const (
	EventListed    EventType = "Listed"
	EventCancelled EventType = "Cancelled"
	EventBought    EventType = "Bought"
)

// Event is one entry in the append-only marketplace event stream.
// Exactly one event is emitted per successful mutating operation, and
// sequence numbers follow commit order.
type Event struct {
	Seq        uint64
	Type       EventType
	ItemID     uint64
	Collection uuid.UUID
	TokenID    uint64
	Price      int64 // the listing price, never the fee-inclusive total
	Seller     string
	Buyer      string // set for Bought only
	EmittedAt  time.Time
}
