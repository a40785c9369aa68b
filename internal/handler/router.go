package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/africana/nftmarket/internal/service"
	"github.com/africana/nftmarket/internal/store"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// NewRouter creates a chi router with all routes registered, request
// logging, Content-Type validation, and request rate limiting middleware.
// A nil limiter disables rate limiting.
func NewRouter(
	accountSvc *service.AccountService,
	collectionSvc *service.CollectionService,
	marketSvc *service.MarketService,
	webhookSvc *service.WebhookService,
	events *store.EventLog,
	limiter *rate.Limiter,
	logger *slog.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(requestLogging(logger))
	if limiter != nil {
		r.Use(rateLimit(limiter))
	}
	r.Use(contentTypeJSON)

	// Create handlers.
	accountH := NewAccountHandler(accountSvc)
	collectionH := NewCollectionHandler(collectionSvc)
	marketH := NewMarketHandler(marketSvc)
	webhookH := NewWebhookHandler(webhookSvc)
	eventH := NewEventHandler(events)

	// Health check.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Account routes.
	r.Post("/accounts", accountH.Register)
	r.Get("/accounts/{account_id}/balance", accountH.GetBalance)

	// Collection routes.
	r.Post("/collections", collectionH.Create)
	r.Post("/collections/{collection_id}/tokens", collectionH.Mint)
	r.Get("/collections/{collection_id}/tokens/{token_id}", collectionH.GetToken)
	r.Post("/collections/{collection_id}/approvals", collectionH.Approve)

	// Listing routes.
	r.Post("/listings", marketH.ListItem)
	r.Get("/listings", marketH.Browse)
	r.Get("/listings/{item_id}", marketH.GetListing)
	r.Get("/listings/{item_id}/total-price", marketH.GetTotalPrice)
	r.Delete("/listings/{item_id}", marketH.CancelListing)
	r.Post("/listings/{item_id}/purchase", marketH.Purchase)

	// Marketplace metadata and event stream.
	r.Get("/marketplace", marketH.GetMarketplace)
	r.Get("/events", eventH.List)

	// Webhook routes.
	r.Post("/webhooks", webhookH.Upsert)
	r.Get("/webhooks", webhookH.List)
	r.Delete("/webhooks/{webhook_id}", webhookH.Delete)

	return r
}

// requestLogging returns middleware that logs each request's method, path,
// status code, and duration using slog.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// rateLimit returns middleware that rejects requests with 429 once the
// shared token bucket is exhausted.
func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				WriteError(w, http.StatusTooManyRequests, "rate_limited",
					"Too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// contentTypeJSON is middleware that validates Content-Type for POST, PUT,
// and PATCH requests. If the Content-Type header doesn't start with
// "application/json", it returns 400 Bad Request before the handler runs.
func contentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				WriteError(w, http.StatusBadRequest, "invalid_request",
					"Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
