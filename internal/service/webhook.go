package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/africana/nftmarket/internal/domain"
	"github.com/africana/nftmarket/internal/store"
	"github.com/google/uuid"
)

// Valid webhook event types.
var validWebhookEvents = map[string]bool{
	"listing.created":   true,
	"listing.cancelled": true,
	"item.sold":         true,
}

// marketEventNames maps engine event types to webhook event names.
var marketEventNames = map[domain.EventType]string{
	domain.EventListed:    "listing.created",
	domain.EventCancelled: "listing.cancelled",
	domain.EventBought:    "item.sold",
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	AccountID string
	URL       string
	Events    []string
}

// WebhookService handles webhook CRUD and marketplace event dispatch.
type WebhookService struct {
	store  *store.WebhookStore
	bank   accountChecker
	client *http.Client
}

// accountChecker is the slice of the bank the webhook service needs.
type accountChecker interface {
	Exists(id string) bool
}

// NewWebhookService creates a new WebhookService with the given dependencies.
func NewWebhookService(webhookStore *store.WebhookStore, bank accountChecker, timeout time.Duration) *WebhookService {
	return &WebhookService{
		store:  webhookStore,
		bank:   bank,
		client: &http.Client{Timeout: timeout},
	}
}

// Upsert validates the request and creates or updates subscriptions for
// each requested event. Returns the resulting webhooks and whether any
// new subscription was created.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]*domain.Webhook, bool, error) {
	if !s.bank.Exists(req.AccountID) {
		return nil, false, domain.ErrAccountNotFound
	}

	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	deduped := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: listing.created, listing.cancelled, item.sold",
			}
		}
		if !seen[event] {
			seen[event] = true
			deduped = append(deduped, event)
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]*domain.Webhook, 0, len(deduped))

	for _, event := range deduped {
		w := &domain.Webhook{
			WebhookID: uuid.New().String(),
			AccountID: req.AccountID,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if s.store.Upsert(w) {
			anyCreated = true
			webhooks = append(webhooks, w)
		} else if existing := s.store.GetByAccountEvent(req.AccountID, event); existing != nil {
			webhooks = append(webhooks, existing)
		}
	}

	return webhooks, anyCreated, nil
}

// List validates the account exists and returns all its subscriptions.
func (s *WebhookService) List(accountID string) ([]*domain.Webhook, error) {
	if !s.bank.Exists(accountID) {
		return nil, domain.ErrAccountNotFound
	}
	return s.store.ListByAccount(accountID), nil
}

// Delete removes a webhook subscription by id.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// marketEventPayload is the JSON body delivered for marketplace events.
type marketEventPayload struct {
	Event     string          `json:"event"`
	Timestamp string          `json:"timestamp"`
	Data      marketEventData `json:"data"`
}

type marketEventData struct {
	Seq          uint64 `json:"seq"`
	ItemID       uint64 `json:"item_id"`
	CollectionID string `json:"collection_id"`
	TokenID      uint64 `json:"token_id"`
	Price        int64  `json:"price"`
	Seller       string `json:"seller"`
	Buyer        string `json:"buyer,omitempty"`
}

// Dispatch notifies every subscribed party about a committed marketplace
// event: the seller for all three event types, and additionally the
// buyer for item.sold. Delivery is fire-and-forget.
func (s *WebhookService) Dispatch(ev domain.Event) {
	name, ok := marketEventNames[ev.Type]
	if !ok {
		return
	}

	recipients := []string{ev.Seller}
	if ev.Type == domain.EventBought && ev.Buyer != ev.Seller {
		recipients = append(recipients, ev.Buyer)
	}

	payload := marketEventPayload{
		Event:     name,
		Timestamp: ev.EmittedAt.UTC().Truncate(time.Second).Format(time.RFC3339),
		Data: marketEventData{
			Seq:          ev.Seq,
			ItemID:       ev.ItemID,
			CollectionID: ev.Collection.String(),
			TokenID:      ev.TokenID,
			Price:        ev.Price,
			Seller:       ev.Seller,
			Buyer:        ev.Buyer,
		},
	}

	for _, accountID := range recipients {
		wh := s.store.GetByAccountEvent(accountID, name)
		if wh == nil {
			continue
		}
		go s.deliver(wh, name, payload)
	}
}

// deliver sends the payload via HTTP POST with the delivery headers.
// Errors are silently ignored (fire-and-forget).
func (s *WebhookService) deliver(wh *domain.Webhook, eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", uuid.New().String())
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", eventType)

	resp, err := s.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
