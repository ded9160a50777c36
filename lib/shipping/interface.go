package shipping

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPostalCode is returned for postal codes that are not 8 digits
	ErrInvalidPostalCode = errors.New("invalid postal code")
	// ErrInvalidItem is returned for items with a negative weight or quantity
	ErrInvalidItem = errors.New("invalid item")
	// ErrCarrierUnavailable is returned when the carrier can not quote right now
	ErrCarrierUnavailable = errors.New("carrier unavailable")
	// ErrSuperseded is joined with context.Canceled when a newer request
	// replaced the call
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Item is what the carrier needs to know about one cart line
type Item struct {
	Weight   float64 // kg per unit
	Quantity int     // units (0 counts as 1)
}

// Option is one shipping quote
type Option struct {
	Service      string          `json:"service"`
	Price        decimal.Decimal `json:"price"`
	DeadlineDays int             `json:"deadlineDays"`
}

// IEstimator quotes shipping options for a postal code and a set of items.
// Estimate blocks until the quote is ready or ctx is done.
type IEstimator interface {
	Estimate(ctx context.Context, postalCode string, items []Item) ([]Option, error)
}

// EstimatorFunc adapts a function to IEstimator
type EstimatorFunc func(ctx context.Context, postalCode string, items []Item) ([]Option, error)

func (f EstimatorFunc) Estimate(ctx context.Context, postalCode string, items []Item) ([]Option, error) {
	return f(ctx, postalCode, items)
}

// TotalWeight sums weight times quantity over items.
func TotalWeight(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		total = total.Add(decimal.NewFromFloat(item.Weight).Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}
