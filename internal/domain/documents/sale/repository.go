package sale

import (
	"context"

	"salesledger/internal/core/id"
	"salesledger/internal/core/types"
)

// Repository persists sales and their items.
type Repository interface {
	// Create inserts the sale header and its items.
	Create(ctx context.Context, s *Sale) error

	// GetByID returns the sale with items.
	GetByID(ctx context.Context, saleID string) (*Sale, error)

	// GetForUpdate returns the sale with items and locks the sale row
	// (SELECT ... FOR UPDATE) until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, saleID string) (*Sale, error)

	// Update writes the mutable header fields: payment state, status,
	// cancellation reason and credit used.
	Update(ctx context.Context, s *Sale) error

	// IncrementReturnedQuantity bumps the informational counter of one item.
	IncrementReturnedQuantity(ctx context.Context, itemID id.ID, qty int) error

	// SumCreditUsed sums creditUsed over the customer's sales.
	SumCreditUsed(ctx context.Context, customerID string) (types.Money, error)
}

// PaymentRepository persists payment rows.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	ListBySale(ctx context.Context, saleID string) ([]Payment, error)
	// DeleteBySale removes the payment history of a cancelled sale.
	DeleteBySale(ctx context.Context, saleID string) (int64, error)
}
