package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/africana/nftmarket/internal/domain"
	"github.com/africana/nftmarket/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// MarketHandler handles HTTP requests for listing and marketplace endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc}
}

// listItemRequest is the JSON request body for POST /listings.
type listItemRequest struct {
	AccountID    string `json:"account_id"`
	CollectionID string `json:"collection_id"`
	TokenID      uint64 `json:"token_id"`
	Price        int64  `json:"price"`
}

// purchaseRequest is the JSON request body for POST /listings/{item_id}/purchase.
type purchaseRequest struct {
	AccountID string `json:"account_id"`
	Value     int64  `json:"value"`
}

// listingResponse is the JSON representation of an item record. Cancelled
// listings keep their slot with zeroed item_id, token_id, and price.
type listingResponse struct {
	ItemID       uint64 `json:"item_id"`
	CollectionID string `json:"collection_id"`
	TokenID      uint64 `json:"token_id"`
	Price        int64  `json:"price"`
	Seller       string `json:"seller"`
	Sold         bool   `json:"sold"`
	ListedAt     string `json:"listed_at"`
}

// listingPageResponse is the JSON response for GET /listings.
type listingPageResponse struct {
	Listings []listingResponse `json:"listings"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// totalPriceResponse is the JSON response for GET /listings/{item_id}/total-price.
type totalPriceResponse struct {
	ItemID     uint64 `json:"item_id"`
	Price      int64  `json:"price"`
	Fee        int64  `json:"fee"`
	TotalPrice int64  `json:"total_price"`
}

// purchaseResponse is the JSON response for POST /listings/{item_id}/purchase.
type purchaseResponse struct {
	ItemID  uint64 `json:"item_id"`
	Buyer   string `json:"buyer"`
	Charged int64  `json:"charged"`
}

// marketplaceResponse is the JSON response for GET /marketplace.
type marketplaceResponse struct {
	FeeAccount string `json:"fee_account"`
	FeePercent int64  `json:"fee_percent"`
	ItemCount  uint64 `json:"item_count"`
}

// ListItem handles POST /listings.
func (h *MarketHandler) ListItem(w http.ResponseWriter, r *http.Request) {
	var req listItemRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	collectionID, err := uuid.Parse(req.CollectionID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "collection_id must be a valid UUID")
		return
	}

	item, err := h.marketSvc.ListItem(service.ListItemRequest{
		AccountID:  req.AccountID,
		Collection: collectionID,
		TokenID:    req.TokenID,
		Price:      req.Price,
	})
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, buildListingResponse(item))
}

// GetListing handles GET /listings/{item_id}. Ids within the assigned
// range always resolve, including cancelled slots; ids beyond it are 404.
func (h *MarketHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	item, found := h.marketSvc.Item(itemID)
	if !found {
		WriteError(w, http.StatusNotFound, "item_not_found", domain.ErrItemNotFound.Error())
		return
	}

	WriteJSON(w, http.StatusOK, buildListingResponse(item))
}

// Browse handles GET /listings.
func (h *MarketHandler) Browse(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		var err error
		page, err = strconv.Atoi(p)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "page must be a valid integer")
			return
		}
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a valid integer")
			return
		}
	}

	items, total, err := h.marketSvc.Browse(page, limit)
	if err != nil {
		mapMarketError(w, err)
		return
	}

	listings := make([]listingResponse, len(items))
	for i, item := range items {
		listings[i] = buildListingResponse(item)
	}

	WriteJSON(w, http.StatusOK, listingPageResponse{
		Listings: listings,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

// GetTotalPrice handles GET /listings/{item_id}/total-price.
func (h *MarketHandler) GetTotalPrice(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	total, err := h.marketSvc.TotalPrice(itemID)
	if err != nil {
		mapMarketError(w, err)
		return
	}
	item, _ := h.marketSvc.Item(itemID)

	WriteJSON(w, http.StatusOK, totalPriceResponse{
		ItemID:     itemID,
		Price:      item.Price,
		Fee:        total - item.Price,
		TotalPrice: total,
	})
}

// CancelListing handles DELETE /listings/{item_id}. The caller identifies
// itself through the account_id query parameter.
func (h *MarketHandler) CancelListing(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	caller := r.URL.Query().Get("account_id")
	if caller == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "account_id query parameter is required")
		return
	}

	if err := h.marketSvc.CancelListing(caller, itemID); err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"item_id":   itemID,
		"cancelled": true,
	})
}

// Purchase handles POST /listings/{item_id}/purchase.
func (h *MarketHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	var req purchaseRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	charged, err := h.marketSvc.PurchaseItem(service.PurchaseRequest{
		AccountID: req.AccountID,
		ItemID:    itemID,
		Value:     req.Value,
	})
	if err != nil {
		mapMarketError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, purchaseResponse{
		ItemID:  itemID,
		Buyer:   req.AccountID,
		Charged: charged,
	})
}

// GetMarketplace handles GET /marketplace.
func (h *MarketHandler) GetMarketplace(w http.ResponseWriter, r *http.Request) {
	fee := h.marketSvc.Fee()
	WriteJSON(w, http.StatusOK, marketplaceResponse{
		FeeAccount: fee.Account,
		FeePercent: fee.Percent,
		ItemCount:  h.marketSvc.ItemCount(),
	})
}

func buildListingResponse(item domain.Item) listingResponse {
	resp := listingResponse{
		ItemID:       item.ItemID,
		CollectionID: item.Collection.String(),
		TokenID:      item.TokenID,
		Price:        item.Price,
		Seller:       item.Seller,
		Sold:         item.Sold,
	}
	if !item.ListedAt.IsZero() {
		resp.ListedAt = item.ListedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// parseItemID extracts and validates the item_id URL param.
// Writes a 400 response and returns false when the id is not an integer.
func parseItemID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "item_id must be a non-negative integer")
		return 0, false
	}
	return id, true
}

// mapMarketError maps domain errors to HTTP responses for listing endpoints.
func mapMarketError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidPrice):
		WriteError(w, http.StatusBadRequest, "invalid_price", err.Error())
	case errors.Is(err, domain.ErrAccountNotFound):
		WriteError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, domain.ErrItemNotFound):
		WriteError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, domain.ErrCollectionNotFound):
		WriteError(w, http.StatusNotFound, "collection_not_found", err.Error())
	case errors.Is(err, domain.ErrNotSeller):
		WriteError(w, http.StatusForbidden, "not_seller", err.Error())
	case errors.Is(err, domain.ErrItemSold):
		WriteError(w, http.StatusConflict, "item_sold", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusConflict, "insufficient_funds", err.Error())
	case errors.Is(err, domain.ErrCustodyTransfer):
		WriteError(w, http.StatusConflict, "custody_transfer_failed", err.Error())
	case errors.Is(err, domain.ErrPayout):
		WriteError(w, http.StatusConflict, "payout_failed", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
