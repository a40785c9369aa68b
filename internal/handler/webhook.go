package handler

import (
	"errors"
	"net/http"

	"github.com/africana/nftmarket/internal/domain"
	"github.com/africana/nftmarket/internal/service"
	"github.com/go-chi/chi/v5"
)

// WebhookHandler exposes webhook subscription management. Subscriptions
// are keyed per (account, event), so registering and listing both return
// the full set of affected subscriptions.
type WebhookHandler struct {
	webhookSvc *service.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc}
}

// upsertWebhookRequest is the JSON request body for POST /webhooks.
type upsertWebhookRequest struct {
	AccountID string   `json:"account_id"`
	URL       string   `json:"url"`
	Events    []string `json:"events"`
}

// webhookPayload is a single subscription in webhook responses.
type webhookPayload struct {
	WebhookID string `json:"webhook_id"`
	AccountID string `json:"account_id"`
	Event     string `json:"event"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func webhookPayloadFrom(wh *domain.Webhook) webhookPayload {
	return webhookPayload{
		WebhookID: wh.WebhookID,
		AccountID: wh.AccountID,
		Event:     wh.Event,
		URL:       wh.URL,
		CreatedAt: wh.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: wh.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// Upsert handles POST /webhooks. Responds 201 when at least one new
// subscription was created, 200 when every requested event was already
// subscribed.
func (h *WebhookHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req upsertWebhookRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	webhooks, anyCreated, err := h.webhookSvc.Upsert(service.UpsertWebhookRequest{
		AccountID: req.AccountID,
		URL:       req.URL,
		Events:    req.Events,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := http.StatusOK
	if anyCreated {
		status = http.StatusCreated
	}
	h.writeList(w, status, webhooks)
}

// List handles GET /webhooks. The account_id query parameter is
// mandatory; subscriptions are never listed across accounts.
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "account_id query parameter is required")
		return
	}

	webhooks, err := h.webhookSvc.List(accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeList(w, http.StatusOK, webhooks)
}

// Delete handles DELETE /webhooks/{webhook_id}.
func (h *WebhookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.webhookSvc.Delete(chi.URLParam(r, "webhook_id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeList renders subscriptions under the "webhooks" key.
func (h *WebhookHandler) writeList(w http.ResponseWriter, status int, webhooks []*domain.Webhook) {
	payloads := make([]webhookPayload, len(webhooks))
	for i, wh := range webhooks {
		payloads[i] = webhookPayloadFrom(wh)
	}
	WriteJSON(w, status, map[string]any{"webhooks": payloads})
}

// writeError maps domain errors to HTTP responses for webhook endpoints.
func (h *WebhookHandler) writeError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		WriteError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, domain.ErrWebhookNotFound):
		WriteError(w, http.StatusNotFound, "webhook_not_found", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
