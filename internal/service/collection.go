package service

import (
	"regexp"

	"github.com/africana/nftmarket/internal/domain"
	"github.com/africana/nftmarket/internal/ledger"
	"github.com/google/uuid"
)

var collectionSymbolRegex = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// CreateCollectionRequest represents the input for collection creation.
type CreateCollectionRequest struct {
	Name   string
	Symbol string
}

// MintRequest represents the input for minting a token.
type MintRequest struct {
	Collection uuid.UUID
	AccountID  string
	TokenURI   string
}

// ApprovalRequest represents the input for granting or revoking an
// operator approval.
type ApprovalRequest struct {
	Collection uuid.UUID
	OwnerID    string
	Operator   string
	Approved   bool
}

// TokenInfo is the read model for a single token.
type TokenInfo struct {
	TokenID uint64
	Owner   string
	URI     string
}

// CollectionService handles collection creation, minting, approvals,
// and token queries against the asset ledger.
type CollectionService struct {
	ledgers *ledger.Registry
	bank    accountChecker
}

// NewCollectionService creates a new CollectionService.
func NewCollectionService(ledgers *ledger.Registry, bank accountChecker) *CollectionService {
	return &CollectionService{ledgers: ledgers, bank: bank}
}

// Create validates the request and registers a new collection.
func (s *CollectionService) Create(req CreateCollectionRequest) (*ledger.Collection, error) {
	if req.Name == "" || len(req.Name) > 100 {
		return nil, &domain.ValidationError{
			Message: "name must be between 1 and 100 characters",
		}
	}
	if !collectionSymbolRegex.MatchString(req.Symbol) {
		return nil, &domain.ValidationError{
			Message: "symbol must match ^[A-Z0-9]{1,10}$",
		}
	}
	return s.ledgers.Create(req.Name, req.Symbol), nil
}

// Mint creates a new token owned by the requesting account.
func (s *CollectionService) Mint(req MintRequest) (TokenInfo, error) {
	if !accountIDRegex.MatchString(req.AccountID) {
		return TokenInfo{}, &domain.ValidationError{
			Message: "account_id must match ^[a-zA-Z0-9_-]{1,64}$",
		}
	}
	if !s.bank.Exists(req.AccountID) {
		return TokenInfo{}, domain.ErrAccountNotFound
	}

	col, err := s.ledgers.Get(req.Collection)
	if err != nil {
		return TokenInfo{}, err
	}
	tokenID := col.Mint(req.AccountID, req.TokenURI)
	return TokenInfo{TokenID: tokenID, Owner: req.AccountID, URI: req.TokenURI}, nil
}

// Approve grants or revokes an operator approval for all of the owner's
// tokens in the collection.
func (s *CollectionService) Approve(req ApprovalRequest) error {
	if !s.bank.Exists(req.OwnerID) {
		return domain.ErrAccountNotFound
	}

	col, err := s.ledgers.Get(req.Collection)
	if err != nil {
		return err
	}
	col.SetApprovalForAll(req.OwnerID, req.Operator, req.Approved)
	return nil
}

// Token returns the owner and URI for a token.
func (s *CollectionService) Token(collectionID uuid.UUID, tokenID uint64) (TokenInfo, error) {
	col, err := s.ledgers.Get(collectionID)
	if err != nil {
		return TokenInfo{}, err
	}
	owner, err := col.OwnerOf(tokenID)
	if err != nil {
		return TokenInfo{}, err
	}
	uri, err := col.TokenURI(tokenID)
	if err != nil {
		return TokenInfo{}, err
	}
	return TokenInfo{TokenID: tokenID, Owner: owner, URI: uri}, nil
}
