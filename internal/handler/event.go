package handler

import (
	"net/http"
	"strconv"

	"github.com/africana/nftmarket/internal/domain"
	"github.com/africana/nftmarket/internal/store"
)

// EventHandler serves the committed marketplace event stream.
type EventHandler struct {
	events *store.EventLog
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events *store.EventLog) *EventHandler {
	return &EventHandler{events: events}
}

// eventResponse is a single event in the stream response.
type eventResponse struct {
	Seq          uint64 `json:"seq"`
	Type         string `json:"type"`
	ItemID       uint64 `json:"item_id"`
	CollectionID string `json:"collection_id"`
	TokenID      uint64 `json:"token_id"`
	Price        int64  `json:"price"`
	Seller       string `json:"seller"`
	Buyer        string `json:"buyer,omitempty"`
	EmittedAt    string `json:"emitted_at"`
}

// eventListResponse is the JSON response for GET /events.
type eventListResponse struct {
	Events []eventResponse `json:"events"`
	Total  int             `json:"total"`
}

// List handles GET /events. The after query parameter resumes the stream
// past a known sequence number; limit caps the page size at 1000.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if a := r.URL.Query().Get("after"); a != "" {
		var err error
		after, err = strconv.ParseUint(a, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "after must be a non-negative integer")
			return
		}
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 || limit > 1000 {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be between 1 and 1000")
			return
		}
	}

	events := h.events.After(after, limit)
	result := make([]eventResponse, len(events))
	for i, ev := range events {
		result[i] = buildEventResponse(ev)
	}

	WriteJSON(w, http.StatusOK, eventListResponse{
		Events: result,
		Total:  h.events.Len(),
	})
}

func buildEventResponse(ev domain.Event) eventResponse {
	return eventResponse{
		Seq:          ev.Seq,
		Type:         string(ev.Type),
		ItemID:       ev.ItemID,
		CollectionID: ev.Collection.String(),
		TokenID:      ev.TokenID,
		Price:        ev.Price,
		Seller:       ev.Seller,
		Buyer:        ev.Buyer,
		EmittedAt:    ev.EmittedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
