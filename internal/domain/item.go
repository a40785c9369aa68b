package domain

import (
	"time"

	"github.com/google/uuid"
)

// Item represents one escrowed marketplace listing. While the item is
// listed, custody of the underlying token belongs to the marketplace's
// escrow account, not the seller.
type Item struct {
	ItemID     uint64
	Collection uuid.UUID // asset ledger instance the token belongs to
	TokenID    uint64
	Price      int64 // smallest currency unit, > 0 at creation
	Seller     string
	Sold       bool
	ListedAt   time.Time
}

// Cleared reports whether the record has been reset to the zero sentinel
// by a cancellation. Item ids are never reissued, so a cleared record is
// terminal for its id.
func (i *Item) Cleared() bool {
	return i.ItemID == 0
}
