// Package bank implements the value substrate the marketplace settles
// payments through: accounts holding integer balances in the smallest
// currency unit, with atomic transfers between them.
package bank

import (
	"sync"
	"time"

	"github.com/africana/nftmarket/internal/domain"
)

// Account is a registered principal with a currency balance.
type Account struct {
	AccountID string
	Balance   int64 // smallest currency unit
	CreatedAt time.Time
}

// Bank is a thread-safe in-memory set of accounts keyed by account id.
type Bank struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// New creates an empty Bank.
func New() *Bank {
	return &Bank{
		accounts: make(map[string]*Account),
	}
}

// Open registers a new account with an initial balance. It returns
// domain.ErrAccountAlreadyExists if the id is taken.
func (b *Bank) Open(id string, initial int64) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.accounts[id]; exists {
		return nil, domain.ErrAccountAlreadyExists
	}
	a := &Account{
		AccountID: id,
		Balance:   initial,
		CreatedAt: time.Now(),
	}
	b.accounts[id] = a
	return a, nil
}

// Exists returns true if an account with the given id exists.
func (b *Bank) Exists(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	_, ok := b.accounts[id]
	return ok
}

// BalanceOf returns the account's current balance. It returns
// domain.ErrAccountNotFound if the account does not exist.
func (b *Bank) BalanceOf(id string) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	a, ok := b.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	return a.Balance, nil
}

// Transfer moves amount from one account to another as a single atomic
// step: either both balances change or neither does. It returns
// domain.ErrAccountNotFound if either side is unknown and
// domain.ErrInsufficientBalance if the source cannot cover the amount.
func (b *Bank) Transfer(from, to string, amount int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	src, ok := b.accounts[from]
	if !ok {
		return domain.ErrAccountNotFound
	}
	dst, ok := b.accounts[to]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if src.Balance < amount {
		return domain.ErrInsufficientBalance
	}

	src.Balance -= amount
	dst.Balance += amount
	return nil
}
