package service

import (
	"github.com/africana/nftmarket/internal/bank"
	"github.com/africana/nftmarket/internal/domain"
)

// RegisterAccountRequest represents the input for account registration.
type RegisterAccountRequest struct {
	AccountID      string
	InitialBalance int64 // smallest currency unit
}

// AccountService handles account registration and balance queries.
type AccountService struct {
	bank *bank.Bank
}

// NewAccountService creates a new AccountService.
func NewAccountService(b *bank.Bank) *AccountService {
	return &AccountService{bank: b}
}

// Register validates the request and opens an account.
func (s *AccountService) Register(req RegisterAccountRequest) (*bank.Account, error) {
	if !accountIDRegex.MatchString(req.AccountID) {
		return nil, &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if req.InitialBalance < 0 {
		return nil, &domain.ValidationError{
			Message: "initial_balance must be >= 0",
		}
	}
	return s.bank.Open(req.AccountID, req.InitialBalance)
}

// Balance returns the account's current balance.
func (s *AccountService) Balance(accountID string) (int64, error) {
	return s.bank.BalanceOf(accountID)
}
