package returns

import (
	"fmt"
	"strings"
	"time"

	"salesledger/internal/core/apperror"
	"salesledger/internal/core/types"
	"salesledger/internal/domain/documents/sale"
)

// ItemRequest is one returned or exchanged line.
type ItemRequest struct {
	ProductID    string
	Quantity     int
	AppliedPrice types.Money
	// SaleType defaults to retail.
	SaleType     sale.SaleType
	IsResellable bool

	Name     string
	SKU      string
	Category string
}

// Customer is the optional customer snapshot.
type Customer struct {
	ID    string
	Name  string
	Phone string
}

// PaymentRequest describes money collected as part of an exchange.
type PaymentRequest struct {
	Amount            types.Money
	Method            sale.PaymentMethod
	ChequeNumber      string
	BankName          string
	TransferReference string
	Date              *time.Time
}

// Request is a return/exchange against one sale.
type Request struct {
	SaleID    string
	Returned  []ItemRequest
	Exchanged []ItemRequest
	StaffRef  string
	Customer  *Customer

	// SettleAmount is applied against the sale's outstanding balance.
	SettleAmount *types.Money
	// RefundAmount becomes customer credit.
	RefundAmount *types.Money
	CashPaidOut  *types.Money
	Payment      *PaymentRequest

	// VehicleID routes stock effects to that vehicle instead of the warehouse.
	VehicleID string
	Notes     string
}

func (r *Request) normalize() {
	r.SaleID = strings.TrimSpace(r.SaleID)
	r.StaffRef = strings.TrimSpace(r.StaffRef)
	r.VehicleID = strings.TrimSpace(r.VehicleID)
	for i := range r.Returned {
		if r.Returned[i].SaleType == "" {
			r.Returned[i].SaleType = sale.SaleTypeRetail
		}
	}
	for i := range r.Exchanged {
		if r.Exchanged[i].SaleType == "" {
			r.Exchanged[i].SaleType = sale.SaleTypeRetail
		}
	}
}

// Validate rejects malformed requests before any write.
func (r *Request) Validate() error {
	if r.SaleID == "" {
		return apperror.NewValidation("original sale id is required").WithDetail("field", "saleId")
	}
	if r.StaffRef == "" {
		return apperror.NewValidation("staff reference is required").WithDetail("field", "staffId")
	}

	amounts := map[string]*types.Money{
		"settleAmount": r.SettleAmount,
		"refundAmount": r.RefundAmount,
		"cashPaidOut":  r.CashPaidOut,
	}
	for field, v := range amounts {
		if v != nil && v.IsNegative() {
			return apperror.NewValidation("amount must not be negative").WithDetail("field", field)
		}
	}
	if p := r.Payment; p != nil {
		if p.Amount.IsNegative() {
			return apperror.NewValidation("amount must not be negative").WithDetail("field", "payment.amount")
		}
		if p.Method != "" && !p.Method.IsValid() {
			return apperror.NewValidation("unknown payment method").WithDetail("field", "payment.method")
		}
	}

	if len(r.Returned) == 0 && len(r.Exchanged) == 0 &&
		!types.OptionalPositive(r.SettleAmount) &&
		!types.OptionalPositive(r.RefundAmount) &&
		!types.OptionalPositive(r.CashPaidOut) {
		return apperror.NewValidation("return has no inventory or financial effect")
	}

	if err := validateLines("returned", r.Returned); err != nil {
		return err
	}
	return validateLines("exchanged", r.Exchanged)
}

func validateLines(field string, lines []ItemRequest) error {
	for i, it := range lines {
		if it.ProductID == "" {
			return apperror.NewValidation("product is required").
				WithDetail("field", field).
				WithDetail("lineNo", i+1)
		}
		if it.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", field).
				WithDetail("lineNo", i+1)
		}
		if !it.SaleType.IsValid() {
			return apperror.NewValidation(fmt.Sprintf("unknown sale type %q", it.SaleType)).
				WithDetail("field", field).
				WithDetail("lineNo", i+1)
		}
		if it.AppliedPrice.IsNegative() {
			return apperror.NewValidation("applied price must not be negative").
				WithDetail("field", field).
				WithDetail("lineNo", i+1)
		}
	}
	return nil
}
