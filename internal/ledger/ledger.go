// Package ledger implements the asset ledger the marketplace settles
// against: named token collections with per-token ownership, token URIs,
// and per-owner operator approvals. The marketplace engine never mutates
// collection state directly; every custody change goes through
// TransferFrom, which enforces ownership and approval rules.
package ledger

import (
	"sync"

	"github.com/africana/nftmarket/internal/domain"
	"github.com/google/uuid"
)

// Collection is a single token ledger instance. Token ids are assigned
// monotonically from 1 within the collection.
type Collection struct {
	ID     uuid.UUID
	Name   string
	Symbol string

	mu         sync.RWMutex
	tokenCount uint64
	owners     map[uint64]string // token_id → owner account
	uris       map[uint64]string
	approvals  map[string]map[string]bool // owner → operator → approved
}

// Registry is a thread-safe set of collections keyed by collection id.
type Registry struct {
	mu          sync.RWMutex
	collections map[uuid.UUID]*Collection
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		collections: make(map[uuid.UUID]*Collection),
	}
}

// Create adds a new collection and returns it.
func (r *Registry) Create(name, symbol string) *Collection {
	c := &Collection{
		ID:        uuid.New(),
		Name:      name,
		Symbol:    symbol,
		owners:    make(map[uint64]string),
		uris:      make(map[uint64]string),
		approvals: make(map[string]map[string]bool),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections[c.ID] = c
	return c
}

// Get retrieves a collection by id. It returns
// domain.ErrCollectionNotFound if the collection does not exist.
func (r *Registry) Get(id uuid.UUID) (*Collection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.collections[id]
	if !ok {
		return nil, domain.ErrCollectionNotFound
	}
	return c, nil
}

// Mint creates a new token owned by owner with the given URI and returns
// its token id.
func (c *Collection) Mint(owner, uri string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokenCount++
	id := c.tokenCount
	c.owners[id] = owner
	c.uris[id] = uri
	return id
}

// TokenCount returns the number of tokens minted so far.
func (c *Collection) TokenCount() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokenCount
}

// OwnerOf returns the current owner of a token. It returns
// domain.ErrTokenNotFound for ids that were never minted.
func (c *Collection) OwnerOf(tokenID uint64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	owner, ok := c.owners[tokenID]
	if !ok {
		return "", domain.ErrTokenNotFound
	}
	return owner, nil
}

// TokenURI returns the metadata URI recorded at mint time.
func (c *Collection) TokenURI(tokenID uint64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	uri, ok := c.uris[tokenID]
	if !ok {
		return "", domain.ErrTokenNotFound
	}
	return uri, nil
}

// BalanceOf returns how many tokens in the collection the account owns.
func (c *Collection) BalanceOf(owner string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, o := range c.owners {
		if o == owner {
			n++
		}
	}
	return n
}

// SetApprovalForAll grants or revokes the operator's right to transfer
// any of the owner's tokens in this collection.
func (c *Collection) SetApprovalForAll(owner, operator string, approved bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.approvals[owner] == nil {
		if !approved {
			return
		}
		c.approvals[owner] = make(map[string]bool)
	}
	if approved {
		c.approvals[owner][operator] = true
	} else {
		delete(c.approvals[owner], operator)
	}
}

// IsApprovedForAll reports whether operator may transfer owner's tokens.
func (c *Collection) IsApprovedForAll(owner, operator string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.approvals[owner][operator]
}

// TransferFrom moves a token from one account to another on behalf of
// operator. The transfer succeeds only when the token exists, from is
// its current owner, and operator is either the owner or an approved
// operator for the owner.
func (c *Collection) TransferFrom(operator, from, to string, tokenID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	owner, ok := c.owners[tokenID]
	if !ok {
		return domain.ErrTokenNotFound
	}
	if owner != from {
		return domain.ErrNotTokenOwner
	}
	if operator != owner && !c.approvals[owner][operator] {
		return domain.ErrNotApproved
	}

	c.owners[tokenID] = to
	return nil
}
