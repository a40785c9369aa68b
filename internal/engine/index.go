package engine

import (
	"sync"

	"github.com/google/btree"
)

// ListingEntry is one active listing in the browse index.
type ListingEntry struct {
	Price  int64
	ItemID uint64
}

// listingLess orders the browse index by price ascending, then item id
// ascending. Equal prices surface the older listing first because ids
// are assigned in listing order.
func listingLess(a, b ListingEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return a.ItemID < b.ItemID
}

// ListingIndex maintains the set of active (listed, unsold, uncancelled)
// items ordered by price using a B-tree, with a secondary index for
// O(log n) removal by item id.
type ListingIndex struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[ListingEntry]
	byID map[uint64]ListingEntry
}

// NewListingIndex creates an empty ListingIndex.
func NewListingIndex() *ListingIndex {
	const degree = 32
	return &ListingIndex{
		tree: btree.NewG[ListingEntry](degree, listingLess),
		byID: make(map[uint64]ListingEntry),
	}
}

// Insert adds a listing to the index.
func (x *ListingIndex) Insert(e ListingEntry) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.tree.ReplaceOrInsert(e)
	x.byID[e.ItemID] = e
}

// Remove deletes a listing by item id. Removing an id that is not
// indexed is a no-op.
func (x *ListingIndex) Remove(itemID uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	e, ok := x.byID[itemID]
	if !ok {
		return
	}
	delete(x.byID, itemID)
	x.tree.Delete(e)
}

// Page returns one page of active listings in price order (1-based
// pagination) plus the total number of active listings.
func (x *ListingIndex) Page(page, limit int) ([]ListingEntry, int) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	total := x.tree.Len()
	start := (page - 1) * limit
	if start >= total {
		return []ListingEntry{}, total
	}

	entries := make([]ListingEntry, 0, limit)
	i := 0
	x.tree.Ascend(func(e ListingEntry) bool {
		if i >= start {
			entries = append(entries, e)
		}
		i++
		return len(entries) < limit
	})
	return entries, total
}

// Len returns the number of active listings.
func (x *ListingIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.tree.Len()
}
