package domain

import (
	"errors"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "price must be greater than zero"}
	if err.Error() != "price must be greater than zero" {
		t.Errorf("Error() = %q, want %q", err.Error(), "price must be greater than zero")
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	errs := []error{
		ErrInvalidPrice,
		ErrItemNotFound,
		ErrNotSeller,
		ErrItemSold,
		ErrInsufficientFunds,
		ErrCustodyTransfer,
		ErrPayout,
		ErrAccountAlreadyExists,
		ErrAccountNotFound,
		ErrInsufficientBalance,
		ErrCollectionNotFound,
		ErrTokenNotFound,
		ErrNotTokenOwner,
		ErrNotApproved,
		ErrWebhookNotFound,
	}
	for i := 0; i < len(errs); i++ {
		for j := i + 1; j < len(errs); j++ {
			if errors.Is(errs[i], errs[j]) {
				t.Errorf("sentinel errors %d and %d should be distinct", i, j)
			}
		}
	}
}

func TestSentinelErrors_SurviveWrapping(t *testing.T) {
	wrapped := errors.Join(ErrCustodyTransfer, ErrNotApproved)
	if !errors.Is(wrapped, ErrCustodyTransfer) {
		t.Error("wrapped error should match ErrCustodyTransfer")
	}
	if !errors.Is(wrapped, ErrNotApproved) {
		t.Error("wrapped error should match ErrNotApproved")
	}
}
