package engine

import (
	"errors"
	"testing"

	"github.com/africana/nftmarket/internal/bank"
	"github.com/africana/nftmarket/internal/domain"
	"github.com/africana/nftmarket/internal/ledger"
	"github.com/africana/nftmarket/internal/store"
	"github.com/google/uuid"
)

const (
	custodyAccount = "marketplace"
	feeAccount     = "treasury"
)

// marketFixture bundles the engine with its collaborators for tests.
type marketFixture struct {
	market  *Market
	bank    *bank.Bank
	ledgers *ledger.Registry
	col     *ledger.Collection
	events  *store.EventLog
}

// newMarketFixture builds an engine with a 1% fee, one collection, and
// funded accounts for alice, bob, and the platform.
func newMarketFixture(t *testing.T, feePercent int64) *marketFixture {
	t.Helper()

	bk := bank.New()
	for _, id := range []string{custodyAccount, feeAccount} {
		if _, err := bk.Open(id, 0); err != nil {
			t.Fatalf("open %s: %v", id, err)
		}
	}
	for _, id := range []string{"alice", "bob"} {
		if _, err := bk.Open(id, 1_000_000); err != nil {
			t.Fatalf("open %s: %v", id, err)
		}
	}

	ledgers := ledger.NewRegistry()
	col := ledgers.Create("Africana NFT", "A54")

	events := store.NewEventLog()
	m := NewMarket(
		domain.FeeConfig{Account: feeAccount, Percent: feePercent},
		custodyAccount,
		store.NewItemStore(),
		events,
		NewListingIndex(),
		ledgers,
		bk,
	)
	return &marketFixture{market: m, bank: bk, ledgers: ledgers, col: col, events: events}
}

// mintAndApprove mints a token for owner and approves the engine's
// custody account as operator.
func (f *marketFixture) mintAndApprove(owner string) uint64 {
	id := f.col.Mint(owner, "ipfs://token")
	f.col.SetApprovalForAll(owner, custodyAccount, true)
	return id
}

func (f *marketFixture) balance(t *testing.T, id string) int64 {
	t.Helper()
	bal, err := f.bank.BalanceOf(id)
	if err != nil {
		t.Fatalf("balance of %s: %v", id, err)
	}
	return bal
}

func TestMarket_ListItem(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenID := f.mintAndApprove("alice")

	item, ev, err := f.market.ListItem("alice", f.col.ID, tokenID, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Custody moved to the engine.
	owner, _ := f.col.OwnerOf(tokenID)
	if owner != custodyAccount {
		t.Errorf("token owner = %q, want the custody account", owner)
	}

	if f.market.ItemCount() != 1 {
		t.Errorf("item count = %d, want 1", f.market.ItemCount())
	}
	if item.ItemID != 1 || item.TokenID != tokenID || item.Price != 200 || item.Seller != "alice" {
		t.Errorf("unexpected item: %+v", item)
	}
	if item.Sold {
		t.Error("new item must not be sold")
	}

	if ev.Type != domain.EventListed || ev.Seq != 1 {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.ItemID != 1 || ev.Collection != f.col.ID || ev.TokenID != tokenID || ev.Price != 200 || ev.Seller != "alice" {
		t.Errorf("Listed event payload wrong: %+v", ev)
	}
}

func TestMarket_ListItem_InvalidPrice(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenID := f.mintAndApprove("alice")

	_, _, err := f.market.ListItem("alice", f.col.ID, tokenID, 0)
	if !errors.Is(err, domain.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}

	// No state change, no event, custody untouched.
	if f.market.ItemCount() != 0 {
		t.Error("item count must not change on a failed listing")
	}
	if f.events.Len() != 0 {
		t.Error("no event must be emitted on a failed listing")
	}
	owner, _ := f.col.OwnerOf(tokenID)
	if owner != "alice" {
		t.Errorf("token owner = %q, want alice", owner)
	}
}

func TestMarket_ListItem_WithoutApproval(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenID := f.col.Mint("alice", "ipfs://token") // no approval

	_, _, err := f.market.ListItem("alice", f.col.ID, tokenID, 200)
	if !errors.Is(err, domain.ErrCustodyTransfer) {
		t.Fatalf("expected ErrCustodyTransfer, got %v", err)
	}
	if !errors.Is(err, domain.ErrNotApproved) {
		t.Fatalf("expected the ledger rejection to be preserved, got %v", err)
	}
	if f.market.ItemCount() != 0 {
		t.Error("item count must not change when custody transfer fails")
	}
}

func TestMarket_ListItem_NotOwner(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenID := f.mintAndApprove("alice")
	f.col.SetApprovalForAll("bob", custodyAccount, true)

	_, _, err := f.market.ListItem("bob", f.col.ID, tokenID, 200)
	if !errors.Is(err, domain.ErrCustodyTransfer) {
		t.Fatalf("expected ErrCustodyTransfer, got %v", err)
	}
}

func TestMarket_ListItem_UnknownCollection(t *testing.T) {
	f := newMarketFixture(t, 1)

	_, _, err := f.market.ListItem("alice", uuid.New(), 1, 200)
	if !errors.Is(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestMarket_CancelListing(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenID := f.mintAndApprove("alice")
	item, _, err := f.market.ListItem("alice", f.col.ID, tokenID, 200)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	ev, err := f.market.CancelListing("alice", item.ItemID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Custody returned to the seller.
	owner, _ := f.col.OwnerOf(tokenID)
	if owner != "alice" {
		t.Errorf("token owner = %q, want alice", owner)
	}

	// The record reads back as the zero sentinel.
	got, ok := f.market.Item(item.ItemID)
	if !ok {
		t.Fatal("cleared record must stay addressable")
	}
	if got.ItemID != 0 || got.TokenID != 0 || got.Price != 0 || got.Sold {
		t.Errorf("expected zero sentinel, got %+v", got)
	}

	// The event carries the pre-clear values.
	if ev.Type != domain.EventCancelled {
		t.Errorf("event type = %s, want Cancelled", ev.Type)
	}
	if ev.ItemID != item.ItemID || ev.TokenID != tokenID || ev.Price != 200 || ev.Seller != "alice" {
		t.Errorf("Cancelled event payload wrong: %+v", ev)
	}
}

func TestMarket_CancelListing_ErrorOrdering(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenID := f.mintAndApprove("alice")
	item, _, err := f.market.ListItem("alice", f.col.ID, tokenID, 200)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	// Wrong caller on an existing id: seller mismatch.
	if _, err := f.market.CancelListing("bob", item.ItemID); !errors.Is(err, domain.ErrNotSeller) {
		t.Errorf("expected ErrNotSeller, got %v", err)
	}

	// Never-existing id, even from a non-seller: not found wins.
	if _, err := f.market.CancelListing("bob", item.ItemID+1); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
	if _, err := f.market.CancelListing("alice", 0); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound for id 0, got %v", err)
	}
}

func TestMarket_CancelListing_AlreadyCancelled(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenID := f.mintAndApprove("alice")
	item, _, _ := f.market.ListItem("alice", f.col.ID, tokenID, 200)

	if _, err := f.market.CancelListing("alice", item.ItemID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.market.CancelListing("alice", item.ItemID); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound on a cleared record, got %v", err)
	}
}

func TestMarket_CancelListing_SoldItem(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenID := f.mintAndApprove("alice")
	item, _, _ := f.market.ListItem("alice", f.col.ID, tokenID, 200)

	total, _ := f.market.TotalPrice(item.ItemID)
	if _, _, err := f.market.PurchaseItem("bob", item.ItemID, total); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	if _, err := f.market.CancelListing("alice", item.ItemID); !errors.Is(err, domain.ErrItemSold) {
		t.Errorf("expected ErrItemSold, got %v", err)
	}
	// Custody stays with the buyer.
	owner, _ := f.col.OwnerOf(tokenID)
	if owner != "bob" {
		t.Errorf("token owner = %q, want bob", owner)
	}
}

func TestMarket_PurchaseItem(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenID := f.mintAndApprove("alice")
	item, _, _ := f.market.ListItem("alice", f.col.ID, tokenID, 200)

	sellerBefore := f.balance(t, "alice")
	feeBefore := f.balance(t, feeAccount)
	buyerBefore := f.balance(t, "bob")

	total, err := f.market.TotalPrice(item.ItemID)
	if err != nil {
		t.Fatalf("total price: %v", err)
	}
	if total != 202 { // 200 + floor(200×1/100)
		t.Fatalf("total = %d, want 202", total)
	}

	ev, charged, err := f.market.PurchaseItem("bob", item.ItemID, total)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if charged != total {
		t.Errorf("charged = %d, want %d", charged, total)
	}

	// Exact payment accounting.
	if got := f.balance(t, "alice"); got != sellerBefore+200 {
		t.Errorf("seller balance = %d, want +200", got-sellerBefore)
	}
	if got := f.balance(t, feeAccount); got != feeBefore+2 {
		t.Errorf("fee account balance = %d, want +2", got-feeBefore)
	}
	if got := f.balance(t, "bob"); got != buyerBefore-total {
		t.Errorf("buyer balance delta = %d, want -%d", got-buyerBefore, total)
	}

	// Buyer owns the token; record is sold but otherwise intact.
	owner, _ := f.col.OwnerOf(tokenID)
	if owner != "bob" {
		t.Errorf("token owner = %q, want bob", owner)
	}
	got, _ := f.market.Item(item.ItemID)
	if !got.Sold {
		t.Error("expected sold flag set")
	}
	if got.ItemID != item.ItemID || got.Price != 200 || got.Seller != "alice" {
		t.Errorf("sold record should stay queryable, got %+v", got)
	}

	// The event carries the listing price, not the total.
	if ev.Type != domain.EventBought || ev.Price != 200 || ev.Buyer != "bob" || ev.Seller != "alice" {
		t.Errorf("Bought event payload wrong: %+v", ev)
	}
}

func TestMarket_PurchaseItem_Failures(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenID := f.mintAndApprove("alice")
	item, _, _ := f.market.ListItem("alice", f.col.ID, tokenID, 200)
	total, _ := f.market.TotalPrice(item.ItemID)

	// Id 0 and ids beyond the counter do not exist.
	if _, _, err := f.market.PurchaseItem("bob", 0, total); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound for id 0, got %v", err)
	}
	if _, _, err := f.market.PurchaseItem("bob", item.ItemID+1, total); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound beyond count, got %v", err)
	}

	// Attached value below the fee-inclusive total.
	if _, _, err := f.market.PurchaseItem("bob", item.ItemID, item.Price); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}

	// Second purchase of the same id.
	if _, _, err := f.market.PurchaseItem("bob", item.ItemID, total); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if _, _, err := f.market.PurchaseItem("alice", item.ItemID, total); !errors.Is(err, domain.ErrItemSold) {
		t.Errorf("expected ErrItemSold, got %v", err)
	}
}

func TestMarket_PurchaseItem_OverpaymentRefunded(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenID := f.mintAndApprove("alice")
	item, _, _ := f.market.ListItem("alice", f.col.ID, tokenID, 200)

	buyerBefore := f.balance(t, "bob")
	total, _ := f.market.TotalPrice(item.ItemID)

	_, charged, err := f.market.PurchaseItem("bob", item.ItemID, total+5_000)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if charged != total {
		t.Errorf("charged = %d, want exactly the total %d", charged, total)
	}
	if got := f.balance(t, "bob"); got != buyerBefore-total {
		t.Errorf("buyer debited %d, want %d", buyerBefore-got, total)
	}
}

func TestMarket_PurchaseItem_PayoutFailureRollsBack(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenID := f.mintAndApprove("alice")
	item, _, _ := f.market.ListItem("alice", f.col.ID, tokenID, 200)
	total, _ := f.market.TotalPrice(item.ItemID)

	// Buyer attaches enough value but holds less than the total.
	if _, err := f.bank.Open("carol", 100); err != nil {
		t.Fatalf("open carol: %v", err)
	}
	_, _, err := f.market.PurchaseItem("carol", item.ItemID, total)
	if !errors.Is(err, domain.ErrPayout) {
		t.Fatalf("expected ErrPayout, got %v", err)
	}

	// Nothing changed: balances, custody, record.
	if got := f.balance(t, "carol"); got != 100 {
		t.Errorf("carol balance = %d, want 100", got)
	}
	owner, _ := f.col.OwnerOf(tokenID)
	if owner != custodyAccount {
		t.Errorf("token owner = %q, want custody", owner)
	}
	got, _ := f.market.Item(item.ItemID)
	if got.Sold {
		t.Error("record must not be marked sold after a failed settlement")
	}
	if f.events.Len() != 1 { // only the Listed event
		t.Errorf("event count = %d, want 1", f.events.Len())
	}
}

func TestMarket_TotalPrice_TruncationScenarios(t *testing.T) {
	f := newMarketFixture(t, 1)

	// Price of one smallest unit: the 1% fee truncates to zero.
	token1 := f.mintAndApprove("alice")
	item1, _, _ := f.market.ListItem("alice", f.col.ID, token1, 1)
	if total, _ := f.market.TotalPrice(item1.ItemID); total != 1 {
		t.Errorf("total for price 1 = %d, want 1", total)
	}

	// Large enough price that the floor is nonzero: exact split.
	token2 := f.mintAndApprove("alice")
	item2, _, _ := f.market.ListItem("alice", f.col.ID, token2, 1_000_000)
	if total, _ := f.market.TotalPrice(item2.ItemID); total != 1_010_000 {
		t.Errorf("total for price 1000000 = %d, want 1010000", total)
	}

	if _, err := f.market.TotalPrice(99); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestMarket_TwoSellersListInOrder(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenA := f.mintAndApprove("alice")
	tokenB := f.mintAndApprove("bob")

	itemA, _, err := f.market.ListItem("alice", f.col.ID, tokenA, 100)
	if err != nil {
		t.Fatalf("alice list: %v", err)
	}
	itemB, _, err := f.market.ListItem("bob", f.col.ID, tokenB, 300)
	if err != nil {
		t.Fatalf("bob list: %v", err)
	}

	if f.market.ItemCount() != 2 {
		t.Errorf("item count = %d, want 2", f.market.ItemCount())
	}
	if itemA.ItemID != 1 || itemB.ItemID != 2 {
		t.Errorf("ids = %d, %d; want 1, 2 in listing order", itemA.ItemID, itemB.ItemID)
	}
	if itemA.Seller != "alice" || itemB.Seller != "bob" {
		t.Error("each item's seller must match its lister")
	}
}

func TestMarket_Browse_PriceOrdered(t *testing.T) {
	f := newMarketFixture(t, 1)
	prices := []int64{500, 100, 300}
	for _, p := range prices {
		tokenID := f.mintAndApprove("alice")
		if _, _, err := f.market.ListItem("alice", f.col.ID, tokenID, p); err != nil {
			t.Fatalf("list at %d: %v", p, err)
		}
	}

	items, total := f.market.Browse(1, 10)
	if total != 3 || len(items) != 3 {
		t.Fatalf("browse returned %d/%d, want 3/3", len(items), total)
	}
	if items[0].Price != 100 || items[1].Price != 300 || items[2].Price != 500 {
		t.Errorf("browse not price-ascending: %d, %d, %d", items[0].Price, items[1].Price, items[2].Price)
	}

	// Sold and cancelled items drop out of the browse set.
	totalPrice, _ := f.market.TotalPrice(items[0].ItemID)
	if _, _, err := f.market.PurchaseItem("bob", items[0].ItemID, totalPrice); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := f.market.CancelListing("alice", items[2].ItemID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	items, total = f.market.Browse(1, 10)
	if total != 1 || len(items) != 1 || items[0].Price != 300 {
		t.Errorf("browse after purchase+cancel: %+v (total %d)", items, total)
	}
}

func TestMarket_EventStream_CommitOrder(t *testing.T) {
	f := newMarketFixture(t, 1)
	tokenA := f.mintAndApprove("alice")
	tokenB := f.mintAndApprove("alice")

	itemA, _, _ := f.market.ListItem("alice", f.col.ID, tokenA, 100)
	itemB, _, _ := f.market.ListItem("alice", f.col.ID, tokenB, 200)
	total, _ := f.market.TotalPrice(itemA.ItemID)
	_, _, _ = f.market.PurchaseItem("bob", itemA.ItemID, total)
	_, _ = f.market.CancelListing("alice", itemB.ItemID)

	events := f.events.After(0, 0)
	want := []domain.EventType{domain.EventListed, domain.EventListed, domain.EventBought, domain.EventCancelled}
	if len(events) != len(want) {
		t.Fatalf("event count = %d, want %d", len(events), len(want))
	}
	for i, e := range events {
		if e.Type != want[i] {
			t.Errorf("event %d type = %s, want %s", i, e.Type, want[i])
		}
		if e.Seq != uint64(i+1) {
			t.Errorf("event %d seq = %d, want %d", i, e.Seq, i+1)
		}
	}
}
