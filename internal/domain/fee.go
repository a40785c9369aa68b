package domain

import "math"

// MaxListingPrice is the highest accepted listing price. The cap keeps
// the fee product price × percent within int64 for any percent up to 100.
const MaxListingPrice = math.MaxInt64 / 100

// FeeConfig is the marketplace fee setup. Both fields are fixed when the
// engine is constructed and never mutated afterwards.
type FeeConfig struct {
	Account string // payout destination for platform fees
	Percent int64  // integer percentage applied to the listing price
}

// Fee returns the platform fee for a listing price. The division
// truncates: floor(price × percent / 100).
func (c FeeConfig) Fee(price int64) int64 {
	return price * c.Percent / 100
}

// TotalPrice returns the amount a buyer must attach to purchase an item
// listed at price: the price itself plus the truncated fee.
func (c FeeConfig) TotalPrice(price int64) int64 {
	return price + c.Fee(price)
}
