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

// CollectionHandler handles HTTP requests for collection and token endpoints.
type CollectionHandler struct {
	collectionSvc *service.CollectionService
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(collectionSvc *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionSvc: collectionSvc}
}

// createCollectionRequest is the JSON request body for POST /collections.
type createCollectionRequest struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// collectionResponse is the JSON response for POST /collections (201 Created).
type collectionResponse struct {
	CollectionID string `json:"collection_id"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
}

// mintTokenRequest is the JSON request body for POST /collections/{collection_id}/tokens.
type mintTokenRequest struct {
	AccountID string `json:"account_id"`
	TokenURI  string `json:"token_uri"`
}

// tokenResponse is the JSON response for token endpoints.
type tokenResponse struct {
	TokenID uint64 `json:"token_id"`
	Owner   string `json:"owner"`
	URI     string `json:"uri"`
}

// approvalRequest is the JSON request body for POST /collections/{collection_id}/approvals.
type approvalRequest struct {
	AccountID string `json:"account_id"`
	Operator  string `json:"operator"`
	Approved  bool   `json:"approved"`
}

// Create handles POST /collections.
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	col, err := h.collectionSvc.Create(service.CreateCollectionRequest{
		Name:   req.Name,
		Symbol: req.Symbol,
	})
	if err != nil {
		mapCollectionError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, collectionResponse{
		CollectionID: col.ID.String(),
		Name:         col.Name,
		Symbol:       col.Symbol,
	})
}

// Mint handles POST /collections/{collection_id}/tokens.
func (h *CollectionHandler) Mint(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := parseCollectionID(w, r)
	if !ok {
		return
	}

	var req mintTokenRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	token, err := h.collectionSvc.Mint(service.MintRequest{
		Collection: collectionID,
		AccountID:  req.AccountID,
		TokenURI:   req.TokenURI,
	})
	if err != nil {
		mapCollectionError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, tokenResponse{
		TokenID: token.TokenID,
		Owner:   token.Owner,
		URI:     token.URI,
	})
}

// GetToken handles GET /collections/{collection_id}/tokens/{token_id}.
func (h *CollectionHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := parseCollectionID(w, r)
	if !ok {
		return
	}

	tokenID, err := strconv.ParseUint(chi.URLParam(r, "token_id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "token_id must be a positive integer")
		return
	}

	token, err := h.collectionSvc.Token(collectionID, tokenID)
	if err != nil {
		mapCollectionError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tokenResponse{
		TokenID: token.TokenID,
		Owner:   token.Owner,
		URI:     token.URI,
	})
}

// Approve handles POST /collections/{collection_id}/approvals.
func (h *CollectionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	collectionID, ok := parseCollectionID(w, r)
	if !ok {
		return
	}

	var req approvalRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	err := h.collectionSvc.Approve(service.ApprovalRequest{
		Collection: collectionID,
		OwnerID:    req.AccountID,
		Operator:   req.Operator,
		Approved:   req.Approved,
	})
	if err != nil {
		mapCollectionError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"account_id": req.AccountID,
		"operator":   req.Operator,
		"approved":   req.Approved,
	})
}

// parseCollectionID extracts and validates the collection_id URL param.
// Writes a 400 response and returns false when the id is not a UUID.
func parseCollectionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "collection_id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "collection_id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// mapCollectionError maps domain errors to HTTP responses for collection endpoints.
func mapCollectionError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		WriteError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, domain.ErrCollectionNotFound):
		WriteError(w, http.StatusNotFound, "collection_not_found", err.Error())
	case errors.Is(err, domain.ErrTokenNotFound):
		WriteError(w, http.StatusNotFound, "token_not_found", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
