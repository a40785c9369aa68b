package service

import (
	"log/slog"
	"regexp"

	"github.com/africana/nftmarket/internal/domain"
	"github.com/africana/nftmarket/internal/engine"
	"github.com/africana/nftmarket/internal/store"
	"github.com/google/uuid"
)

var accountIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ListItemRequest represents the input for listing an item.
type ListItemRequest struct {
	AccountID  string
	Collection uuid.UUID
	TokenID    uint64
	Price      int64
}

// PurchaseRequest represents the input for purchasing an item.
type PurchaseRequest struct {
	AccountID string
	ItemID    uint64
	Value     int64 // attached payment, smallest currency unit
}

// MarketService validates marketplace requests, runs them through the
// settlement engine, and fans out post-commit effects (webhook dispatch
// and journal persistence). The engine alone decides settlement
// semantics; nothing here mutates marketplace state.
type MarketService struct {
	market   *engine.Market
	bank     accountChecker
	webhooks *WebhookService
	journal  *store.Journal // nil when journalling is disabled
	logger   *slog.Logger
}

// NewMarketService creates a MarketService. journal may be nil.
func NewMarketService(
	market *engine.Market,
	bank accountChecker,
	webhooks *WebhookService,
	journal *store.Journal,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		market:   market,
		bank:     bank,
		webhooks: webhooks,
		journal:  journal,
		logger:   logger,
	}
}

// ListItem validates and executes a listing.
func (s *MarketService) ListItem(req ListItemRequest) (domain.Item, error) {
	if !accountIDRegex.MatchString(req.AccountID) {
		return domain.Item{}, &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !s.bank.Exists(req.AccountID) {
		return domain.Item{}, domain.ErrAccountNotFound
	}
	if req.Price > domain.MaxListingPrice {
		return domain.Item{}, &domain.ValidationError{
			Message: "price exceeds the maximum listing price",
		}
	}

	item, ev, err := s.market.ListItem(req.AccountID, req.Collection, req.TokenID, req.Price)
	if err != nil {
		return domain.Item{}, err
	}
	s.afterCommit(ev)
	return item, nil
}

// CancelListing validates and executes a cancellation on behalf of caller.
func (s *MarketService) CancelListing(caller string, itemID uint64) error {
	if !accountIDRegex.MatchString(caller) {
		return &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}

	ev, err := s.market.CancelListing(caller, itemID)
	if err != nil {
		return err
	}
	s.afterCommit(ev)
	return nil
}

// PurchaseItem validates and settles a purchase. Returns the amount
// actually charged (the fee-inclusive total; excess attached value is
// never debited).
func (s *MarketService) PurchaseItem(req PurchaseRequest) (int64, error) {
	if !accountIDRegex.MatchString(req.AccountID) {
		return 0, &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !s.bank.Exists(req.AccountID) {
		return 0, domain.ErrAccountNotFound
	}
	if req.Value < 0 {
		return 0, &domain.ValidationError{Message: "value must be >= 0"}
	}

	ev, charged, err := s.market.PurchaseItem(req.AccountID, req.ItemID, req.Value)
	if err != nil {
		return 0, err
	}
	s.afterCommit(ev)
	return charged, nil
}

// TotalPrice exposes the engine's fee-inclusive price query.
func (s *MarketService) TotalPrice(itemID uint64) (int64, error) {
	return s.market.TotalPrice(itemID)
}

// Item returns the stored record for an id.
func (s *MarketService) Item(itemID uint64) (domain.Item, bool) {
	return s.market.Item(itemID)
}

// Browse returns a page of active listings in price order.
func (s *MarketService) Browse(page, limit int) ([]domain.Item, int, error) {
	if page < 1 {
		return nil, 0, &domain.ValidationError{Message: "page must be >= 1"}
	}
	if limit < 1 || limit > 100 {
		return nil, 0, &domain.ValidationError{Message: "limit must be between 1 and 100"}
	}
	items, total := s.market.Browse(page, limit)
	return items, total, nil
}

// ItemCount returns the last assigned item id.
func (s *MarketService) ItemCount() uint64 {
	return s.market.ItemCount()
}

// Fee returns the immutable fee configuration.
func (s *MarketService) Fee() domain.FeeConfig {
	return s.market.Fee()
}

// afterCommit persists the event to the journal (best effort) and
// dispatches webhooks. Both happen outside the engine lock and never
// affect the already-committed operation.
func (s *MarketService) afterCommit(ev domain.Event) {
	if s.journal != nil {
		if err := s.journal.Append(ev); err != nil {
			s.logger.Warn("journal append failed",
				slog.Uint64("seq", ev.Seq),
				slog.String("type", string(ev.Type)),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.webhooks != nil {
		s.webhooks.Dispatch(ev)
	}
}
