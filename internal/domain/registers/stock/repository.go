package stock

import (
	"context"
)

// Repository persists the append-only stock ledger.
type Repository interface {
	// Append inserts entries. There is no update or delete.
	Append(ctx context.Context, entries []Transaction) error

	// VehicleBalance derives the quantity of a product held by a vehicle.
	VehicleBalance(ctx context.Context, vehicleID, productID string) (int, error)

	// List returns entries matching the filter, newest first, and the total count.
	List(ctx context.Context, filter Filter) ([]Transaction, int, error)
}
