package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	// Marketplace engine.
	ErrInvalidPrice      = errors.New("invalid_price")
	ErrItemNotFound      = errors.New("item_not_found")
	ErrNotSeller         = errors.New("not_seller")
	ErrItemSold          = errors.New("item_sold")
	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrCustodyTransfer   = errors.New("custody_transfer_failed")
	ErrPayout            = errors.New("payout_failed")

	// Value substrate.
	ErrAccountAlreadyExists = errors.New("account_already_exists")
	ErrAccountNotFound      = errors.New("account_not_found")
	ErrInsufficientBalance  = errors.New("insufficient_balance")

	// Asset ledger.
	ErrCollectionNotFound = errors.New("collection_not_found")
	ErrTokenNotFound      = errors.New("token_not_found")
	ErrNotTokenOwner      = errors.New("not_token_owner")
	ErrNotApproved        = errors.New("operator_not_approved")

	// Webhooks.
	ErrWebhookNotFound = errors.New("webhook_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
