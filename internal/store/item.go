package store

import (
	"sync"
	"time"

	"github.com/africana/nftmarket/internal/domain"
)

// ItemStore is the marketplace registry: item records keyed by their
// dense, monotonically assigned ids. Ids start at 1 and are never
// reissued; 0 is the "no item" sentinel. Cancelled records are cleared
// in place rather than deleted so the id space stays stable for lookups.
type ItemStore struct {
	mu    sync.RWMutex
	items map[uint64]*domain.Item
	count uint64 // last assigned id
}

// NewItemStore creates an empty ItemStore.
func NewItemStore() *ItemStore {
	return &ItemStore{
		items: make(map[uint64]*domain.Item),
	}
}

// Create assigns the next item id, stores the record, and returns a copy
// with the id set. The counter increments only on successful creation.
func (s *ItemStore) Create(item domain.Item) domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	item.ItemID = s.count
	item.Sold = false
	item.ListedAt = time.Now()

	stored := item
	s.items[stored.ItemID] = &stored
	return item
}

// Get returns a copy of the record for the given id. The second return
// is false for id 0 and for ids beyond the last assigned one. A
// cancelled record is returned as stored: cleared to the zero sentinel,
// so callers must check Cleared().
func (s *ItemStore) Get(id uint64) (domain.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return domain.Item{}, false
	}
	return *it, true
}

// Count returns the last assigned item id.
func (s *ItemStore) Count() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Clear resets the record for id to the zero sentinel: item_id, token_id,
// and price become 0 and sold stays false. The collection and seller are
// kept for audit. Clearing an unknown id is a no-op.
func (s *ItemStore) Clear(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return
	}
	it.ItemID = 0
	it.TokenID = 0
	it.Price = 0
	it.Sold = false
}

// MarkSold flips the sold flag on the record. The rest of the record is
// left intact so it stays queryable after the sale.
func (s *ItemStore) MarkSold(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it, ok := s.items[id]; ok {
		it.Sold = true
	}
}
