package engine

import (
	"fmt"
	"sync"

	"github.com/africana/nftmarket/internal/bank"
	"github.com/africana/nftmarket/internal/domain"
	"github.com/africana/nftmarket/internal/ledger"
	"github.com/africana/nftmarket/internal/store"
	"github.com/google/uuid"
)

// Market is the marketplace settlement engine. It owns the item
// registry, executes the listing, cancellation, and purchase state
// machine, computes fees, and drives custody and value transfers
// against the asset ledger and the bank.
//
// Every mutating operation runs to completion under a single mutex, so
// no operation ever observes a partially applied effect of another.
// External transfers are fallible synchronous calls; when one fails,
// every effect already applied within the same operation is rolled back
// before the error is returned.
type Market struct {
	mu sync.Mutex

	fee     domain.FeeConfig
	custody string // account the engine escrows tokens and receives value under

	items   *store.ItemStore
	events  *store.EventLog
	index   *ListingIndex
	ledgers *ledger.Registry
	bank    *bank.Bank
}

// NewMarket creates a settlement engine. The fee configuration and the
// custody account identity are immutable afterwards.
func NewMarket(
	fee domain.FeeConfig,
	custody string,
	items *store.ItemStore,
	events *store.EventLog,
	index *ListingIndex,
	ledgers *ledger.Registry,
	bk *bank.Bank,
) *Market {
	return &Market{
		fee:     fee,
		custody: custody,
		items:   items,
		events:  events,
		index:   index,
		ledgers: ledgers,
		bank:    bk,
	}
}

// ListItem escrows the token with the engine and records a new item.
// The caller must own the token and must have approved the engine's
// custody account as an operator in the collection; both are enforced
// by the asset ledger, not here.
func (m *Market) ListItem(seller string, collectionID uuid.UUID, tokenID uint64, price int64) (domain.Item, domain.Event, error) {
	if price <= 0 {
		return domain.Item{}, domain.Event{}, domain.ErrInvalidPrice
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	col, err := m.ledgers.Get(collectionID)
	if err != nil {
		return domain.Item{}, domain.Event{}, err
	}

	// Custody moves first. If the ledger rejects the transfer nothing
	// has been recorded yet, so the whole operation aborts cleanly.
	if err := col.TransferFrom(m.custody, seller, m.custody, tokenID); err != nil {
		return domain.Item{}, domain.Event{}, fmt.Errorf("%w: %w", domain.ErrCustodyTransfer, err)
	}

	item := m.items.Create(domain.Item{
		Collection: collectionID,
		TokenID:    tokenID,
		Price:      price,
		Seller:     seller,
	})
	m.index.Insert(ListingEntry{Price: item.Price, ItemID: item.ItemID})

	ev := m.events.Append(domain.Event{
		Type:       domain.EventListed,
		ItemID:     item.ItemID,
		Collection: collectionID,
		TokenID:    tokenID,
		Price:      price,
		Seller:     seller,
	})
	return item, ev, nil
}

// CancelListing returns the token to the seller and clears the record
// to the zero sentinel. Checks run in a fixed order: a record must
// exist and be listed before the caller is compared against the seller,
// so acting on a never-existing id reports not-found, not a seller
// mismatch. Sold items cannot be cancelled; their custody already
// belongs to the buyer.
func (m *Market) CancelListing(caller string, itemID uint64) (domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items.Get(itemID)
	if !ok || item.Cleared() {
		return domain.Event{}, domain.ErrItemNotFound
	}
	if item.Seller != caller {
		return domain.Event{}, domain.ErrNotSeller
	}
	if item.Sold {
		return domain.Event{}, domain.ErrItemSold
	}

	col, err := m.ledgers.Get(item.Collection)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%w: %w", domain.ErrCustodyTransfer, err)
	}
	if err := col.TransferFrom(m.custody, m.custody, item.Seller, item.TokenID); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %w", domain.ErrCustodyTransfer, err)
	}

	m.items.Clear(itemID)
	m.index.Remove(itemID)

	// The event carries the pre-clear values.
	ev := m.events.Append(domain.Event{
		Type:       domain.EventCancelled,
		ItemID:     itemID,
		Collection: item.Collection,
		TokenID:    item.TokenID,
		Price:      item.Price,
		Seller:     item.Seller,
	})
	return ev, nil
}

// PurchaseItem settles a sale: the seller receives the listing price,
// the fee account receives the truncated fee, custody moves to the
// buyer, and the record is marked sold. The buyer attaches value; it
// must cover TotalPrice, and exactly TotalPrice is debited — any excess
// stays with the buyer. Returns the emitted event and the amount
// charged.
func (m *Market) PurchaseItem(buyer string, itemID uint64, value int64) (domain.Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items.Get(itemID)
	if !ok || item.Cleared() {
		return domain.Event{}, 0, domain.ErrItemNotFound
	}
	if item.Sold {
		return domain.Event{}, 0, domain.ErrItemSold
	}

	total := m.fee.TotalPrice(item.Price)
	if value < total {
		return domain.Event{}, 0, domain.ErrInsufficientFunds
	}

	// Value payout: price to the seller, the remainder of the total to
	// the fee account. Each step that succeeds is reversed if a later
	// one fails, so the operation is all-or-nothing.
	if err := m.bank.Transfer(buyer, item.Seller, item.Price); err != nil {
		return domain.Event{}, 0, fmt.Errorf("%w: %w", domain.ErrPayout, err)
	}
	fee := total - item.Price
	if fee > 0 {
		if err := m.bank.Transfer(buyer, m.fee.Account, fee); err != nil {
			m.rollbackTransfer(item.Seller, buyer, item.Price)
			return domain.Event{}, 0, fmt.Errorf("%w: %w", domain.ErrPayout, err)
		}
	}

	col, err := m.ledgers.Get(item.Collection)
	if err == nil {
		err = col.TransferFrom(m.custody, m.custody, buyer, item.TokenID)
	}
	if err != nil {
		m.rollbackTransfer(item.Seller, buyer, item.Price)
		if fee > 0 {
			m.rollbackTransfer(m.fee.Account, buyer, fee)
		}
		return domain.Event{}, 0, fmt.Errorf("%w: %w", domain.ErrCustodyTransfer, err)
	}

	m.items.MarkSold(itemID)
	m.index.Remove(itemID)

	// The event carries the listing price, not the fee-inclusive total.
	ev := m.events.Append(domain.Event{
		Type:       domain.EventBought,
		ItemID:     itemID,
		Collection: item.Collection,
		TokenID:    item.TokenID,
		Price:      item.Price,
		Seller:     item.Seller,
		Buyer:      buyer,
	})
	return ev, total, nil
}

// rollbackTransfer reverses an already-applied payout. The reverse
// transfer cannot legitimately fail: the destination just received the
// amount and both accounts exist.
func (m *Market) rollbackTransfer(from, to string, amount int64) {
	_ = m.bank.Transfer(from, to, amount)
}

// TotalPrice returns price plus the truncated fee for a listed item.
// It is a pure read; unknown and cleared ids report not-found.
func (m *Market) TotalPrice(itemID uint64) (int64, error) {
	item, ok := m.items.Get(itemID)
	if !ok || item.Cleared() {
		return 0, domain.ErrItemNotFound
	}
	return m.fee.TotalPrice(item.Price), nil
}

// Item returns the stored record for an id. Cleared records come back
// as the zero sentinel with ok true; ids beyond the counter report
// ok false.
func (m *Market) Item(itemID uint64) (domain.Item, bool) {
	return m.items.Get(itemID)
}

// ItemCount returns the last assigned item id.
func (m *Market) ItemCount() uint64 {
	return m.items.Count()
}

// Fee returns the immutable fee configuration.
func (m *Market) Fee() domain.FeeConfig {
	return m.fee
}

// Browse returns one page of active listings in price order plus the
// total count of active listings.
func (m *Market) Browse(page, limit int) ([]domain.Item, int) {
	entries, total := m.index.Page(page, limit)
	items := make([]domain.Item, 0, len(entries))
	for _, e := range entries {
		if item, ok := m.items.Get(e.ItemID); ok {
			items = append(items, item)
		}
	}
	return items, total
}
