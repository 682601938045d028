// Package stock is the stock transaction ledger and the two stock pools
// (warehouse counter and per-vehicle ledger balance).
package stock

import (
	"time"

	"salesledger/internal/core/id"
)

// TransactionType classifies a stock movement.
type TransactionType string

const (
	TypeAddStockInventory     TransactionType = "ADD_STOCK_INVENTORY"
	TypeLoadToVehicle         TransactionType = "LOAD_TO_VEHICLE"
	TypeUnloadFromVehicle     TransactionType = "UNLOAD_FROM_VEHICLE"
	TypeIssueSample           TransactionType = "ISSUE_SAMPLE"
	TypeRemoveStockWastage    TransactionType = "REMOVE_STOCK_WASTAGE"
	TypeStockAdjustmentManual TransactionType = "STOCK_ADJUSTMENT_MANUAL"
)

// IsValid checks if the type is known.
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeAddStockInventory, TypeLoadToVehicle, TypeUnloadFromVehicle,
		TypeIssueSample, TypeRemoveStockWastage, TypeStockAdjustmentManual:
		return true
	}
	return false
}

// VehicleSign is the effect of one unit of this type on a vehicle balance.
// Manual adjustments carry a signed quantity.
func (t TransactionType) VehicleSign() int {
	switch t {
	case TypeLoadToVehicle, TypeStockAdjustmentManual:
		return 1
	case TypeUnloadFromVehicle, TypeIssueSample, TypeRemoveStockWastage:
		return -1
	}
	return 0
}

// Transaction is an immutable ledger entry.
//
// PreviousStock and NewStock are warehouse snapshots and are only set when
// the movement changed warehouse stock. They are informational; vehicle
// balances are always computed from quantities.
type Transaction struct {
	ID              id.ID           `db:"id" json:"id"`
	ProductID       string          `db:"product_id" json:"productId"`
	Type            TransactionType `db:"type" json:"type"`
	Quantity        int             `db:"quantity" json:"quantity"`
	PreviousStock   *int            `db:"previous_stock" json:"previousStock,omitempty"`
	NewStock        *int            `db:"new_stock" json:"newStock,omitempty"`
	TransactionDate time.Time       `db:"transaction_date" json:"transactionDate"`
	VehicleID       *string         `db:"vehicle_id" json:"vehicleId,omitempty"`
	UserID          string          `db:"user_id" json:"userId"`
	StartOdometer   *int            `db:"start_odometer" json:"startOdometer,omitempty"`
	EndOdometer     *int            `db:"end_odometer" json:"endOdometer,omitempty"`
	Notes           string          `db:"notes" json:"notes,omitempty"`
	ReferenceID     *string         `db:"reference_id" json:"referenceId,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}

// VehicleEffect is the signed change this entry makes to its vehicle's balance.
// Entries without a vehicle have no effect.
func (t Transaction) VehicleEffect() int {
	if t.VehicleID == nil {
		return 0
	}
	return t.Type.VehicleSign() * t.Quantity
}

// Filter selects ledger entries for History.
type Filter struct {
	ProductID string
	VehicleID string
	Type      TransactionType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Page is a page of ledger entries.
type Page struct {
	Items      []Transaction `json:"items"`
	TotalCount int           `json:"totalCount"`
}
