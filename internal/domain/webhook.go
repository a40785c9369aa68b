package domain

import "time"

// Webhook represents an account's subscription to a marketplace event
// notification.
type Webhook struct {
	WebhookID string
	AccountID string
	Event     string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
