package returns

import (
	"context"

	"salesledger/internal/core/types"
)

// Repository persists return documents.
type Repository interface {
	// Create inserts the header and all items.
	Create(ctx context.Context, t *Transaction) error

	// GetByID returns the document with items.
	GetByID(ctx context.Context, returnID string) (*Transaction, error)

	// ListBySale returns every return of a sale with items, oldest first.
	ListBySale(ctx context.Context, saleID string) ([]Transaction, error)

	// SumRefundsByCustomer sums refundAmount over the customer's returns.
	SumRefundsByCustomer(ctx context.Context, customerID string) (types.Money, error)
}
