package product

import (
	"context"
)

// Repository is the product catalog as used by the ledger.
type Repository interface {
	// GetByID returns an apperror not-found error when the product is missing.
	GetByID(ctx context.Context, id string) (*Product, error)

	// AdjustStock applies delta to warehouse stock in a single statement and
	// returns the product as stored afterwards. Stock may go negative.
	AdjustStock(ctx context.Context, id string, delta int) (*Product, error)
}
