package dto

import (
	"time"

	"salesledger/internal/domain/registers/stock"
)

// RecordMovementRequest is a manual stock movement.
type RecordMovementRequest struct {
	ProductID     string `json:"productId" binding:"required"`
	Type          string `json:"type" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required"`
	VehicleID     string `json:"vehicleId,omitempty"`
	StaffID       string `json:"staffId,omitempty"`
	StartOdometer *int   `json:"startOdometer,omitempty"`
	EndOdometer   *int   `json:"endOdometer,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// ToInput maps the request to the service input.
func (r *RecordMovementRequest) ToInput(staffRef string) stock.MovementInput {
	return stock.MovementInput{
		ProductID:     r.ProductID,
		Type:          stock.TransactionType(r.Type),
		Quantity:      r.Quantity,
		VehicleID:     r.VehicleID,
		UserRef:       firstNonEmpty(r.StaffID, staffRef),
		StartOdometer: r.StartOdometer,
		EndOdometer:   r.EndOdometer,
		Notes:         r.Notes,
	}
}

// MovementHistoryQuery filters the ledger history.
type MovementHistoryQuery struct {
	PaginationRequest
	ProductID string     `form:"productId"`
	VehicleID string     `form:"vehicleId"`
	Type      string     `form:"type"`
	From      *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To        *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ToFilter maps the query to the ledger filter.
func (q *MovementHistoryQuery) ToFilter() stock.Filter {
	return stock.Filter{
		ProductID: q.ProductID,
		VehicleID: q.VehicleID,
		Type:      stock.TransactionType(q.Type),
		From:      q.From,
		To:        q.To,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
}

// VehicleBalanceResponse is a derived vehicle stock balance.
type VehicleBalanceResponse struct {
	VehicleID string `json:"vehicleId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}
