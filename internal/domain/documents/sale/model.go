// Package sale provides the Sale document and its payment ledger.
package sale

import (
	"context"
	"time"

	"salesledger/internal/core/apperror"
	"salesledger/internal/core/id"
	"salesledger/internal/core/types"
)

// Status of a sale. Cancellation is terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// SaleType is the price list an item was sold under.
type SaleType string

const (
	SaleTypeRetail    SaleType = "retail"
	SaleTypeWholesale SaleType = "wholesale"
)

// IsValid checks if the sale type is known.
func (t SaleType) IsValid() bool {
	return t == SaleTypeRetail || t == SaleTypeWholesale
}

// PaymentMethod of a payment row.
type PaymentMethod string

const (
	MethodCash             PaymentMethod = "cash"
	MethodCheque           PaymentMethod = "cheque"
	MethodBank             PaymentMethod = "bank"
	MethodCreditFromReturn PaymentMethod = "credit_from_return"
)

// IsValid checks if the method is known.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodCash, MethodCheque, MethodBank, MethodCreditFromReturn:
		return true
	}
	return false
}

// Label is the display name used in payment summaries.
func (m PaymentMethod) Label() string {
	switch m {
	case MethodCash:
		return "Cash"
	case MethodCheque:
		return "Cheque"
	case MethodBank:
		return "Bank Transfer"
	case MethodCreditFromReturn:
		return "Credit from Return"
	}
	return string(m)
}

// SummaryCancelled replaces the payment summary of a cancelled sale.
const SummaryCancelled = "Cancelled"

// Sale is a completed point-of-sale transaction.
type Sale struct {
	ID string `db:"id" json:"id"`

	// Totals are computed by the till and stored as given.
	SubTotal           types.Money `db:"sub_total" json:"subTotal"`
	DiscountPercentage types.Money `db:"discount_percentage" json:"discountPercentage"`
	DiscountAmount     types.Money `db:"discount_amount" json:"discountAmount"`
	TotalAmount        types.Money `db:"total_amount" json:"totalAmount"`

	// Payment state
	TotalAmountPaid           types.Money  `db:"total_amount_paid" json:"totalAmountPaid"`
	OutstandingBalance        types.Money  `db:"outstanding_balance" json:"outstandingBalance"`
	InitialOutstandingBalance *types.Money `db:"initial_outstanding_balance" json:"initialOutstandingBalance,omitempty"`
	PaymentSummary            string       `db:"payment_summary" json:"paymentSummary"`

	Status             Status  `db:"status" json:"status"`
	CancellationReason *string `db:"cancellation_reason" json:"cancellationReason,omitempty"`

	StaffID    string  `db:"staff_id" json:"staffId"`
	CustomerID *string `db:"customer_id" json:"customerId,omitempty"`
	// VehicleID routes stock to a vehicle pool. Nil is a warehouse sale.
	VehicleID *string `db:"vehicle_id" json:"vehicleId,omitempty"`

	// Amounts paid at the till, per method
	CashPaid   *types.Money `db:"cash_paid" json:"cashPaid,omitempty"`
	ChequePaid *types.Money `db:"cheque_paid" json:"chequePaid,omitempty"`
	BankPaid   *types.Money `db:"bank_paid" json:"bankPaid,omitempty"`

	ChequeNumber     *string    `db:"cheque_number" json:"chequeNumber,omitempty"`
	ChequeBank       *string    `db:"cheque_bank" json:"chequeBank,omitempty"`
	ChequeDate       *time.Time `db:"cheque_date" json:"chequeDate,omitempty"`
	BankReference    *string    `db:"bank_reference" json:"bankReference,omitempty"`
	BankName         *string    `db:"bank_name" json:"bankName,omitempty"`
	BankTransferDate *time.Time `db:"bank_transfer_date" json:"bankTransferDate,omitempty"`

	CreditUsed  types.Money `db:"credit_used" json:"creditUsed"`
	ChangeGiven types.Money `db:"change_given" json:"changeGiven"`

	SaleDate  time.Time `db:"sale_date" json:"saleDate"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	Items    []Item    `db:"-" json:"items"`
	Payments []Payment `db:"-" json:"payments"`
}

// Item is a sale line.
type Item struct {
	ID        id.ID  `db:"id" json:"id"`
	SaleID    string `db:"sale_id" json:"saleId"`
	LineNo    int    `db:"line_no" json:"lineNo"`
	ProductID string `db:"product_id" json:"productId"`

	Quantity     int         `db:"quantity" json:"quantity"`
	AppliedPrice types.Money `db:"applied_price" json:"appliedPrice"`
	SaleType     SaleType    `db:"sale_type" json:"saleType"`

	// Product snapshot at the time of sale
	Name     string      `db:"name" json:"name"`
	Category string      `db:"category" json:"category"`
	Price    types.Money `db:"price" json:"price"`
	SKU      string      `db:"sku" json:"sku"`

	IsOfferItem bool `db:"is_offer_item" json:"isOfferItem"`

	// ReturnedQuantity is informational. Prior return documents are
	// authoritative for the returnable quantity.
	ReturnedQuantity int `db:"returned_quantity" json:"returnedQuantity"`
}

// Payment is an insert-only payment row recorded after the sale.
type Payment struct {
	ID          id.ID         `db:"id" json:"id"`
	SaleID      string        `db:"sale_id" json:"saleId"`
	ReceiptNo   string        `db:"receipt_no" json:"receiptNo"`
	Amount      types.Money   `db:"amount" json:"amount"`
	Method      PaymentMethod `db:"method" json:"method"`
	PaymentDate time.Time     `db:"payment_date" json:"paymentDate"`
	StaffID     string        `db:"staff_id" json:"staffId"`

	ChequeNumber      *string    `db:"cheque_number" json:"chequeNumber,omitempty"`
	BankName          *string    `db:"bank_name" json:"bankName,omitempty"`
	TransferReference *string    `db:"transfer_reference" json:"transferReference,omitempty"`
	DetailDate        *time.Time `db:"detail_date" json:"detailDate,omitempty"`

	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// IsCancelled reports whether the sale was cancelled.
func (s *Sale) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// IsVehicleSale reports whether stock came from a vehicle.
func (s *Sale) IsVehicleSale() bool {
	return s.VehicleID != nil && *s.VehicleID != ""
}

// Validate checks a sale before creation.
func (s *Sale) Validate(ctx context.Context) error {
	if len(s.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	amounts := map[string]types.Money{
		"subTotal":           s.SubTotal,
		"discountPercentage": s.DiscountPercentage,
		"discountAmount":     s.DiscountAmount,
		"totalAmount":        s.TotalAmount,
		"totalAmountPaid":    s.TotalAmountPaid,
		"outstandingBalance": s.OutstandingBalance,
		"creditUsed":         s.CreditUsed,
		"changeGiven":        s.ChangeGiven,
	}
	for field, v := range amounts {
		if v.IsNegative() {
			return apperror.NewValidation("amount must not be negative").
				WithDetail("field", field)
		}
	}

	for i, item := range s.Items {
		if item.ProductID == "" {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if !item.SaleType.IsValid() {
			return apperror.NewValidation("unknown sale type").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.AppliedPrice.IsNegative() {
			return apperror.NewValidation("applied price must not be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// SoldQuantity sums the quantity sold for a (product, sale type) pair.
// The bool is false when the sale has no such line.
func (s *Sale) SoldQuantity(productID string, saleType SaleType) (int, bool) {
	total, found := 0, false
	for _, item := range s.Items {
		if item.ProductID == productID && item.SaleType == saleType {
			total += item.Quantity
			found = true
		}
	}
	return total, found
}

// ApplyPayment adds amount to the paid total. Outstanding is floored at zero.
func (s *Sale) ApplyPayment(amount types.Money) {
	s.TotalAmountPaid = s.TotalAmountPaid.Add(amount)
	s.OutstandingBalance = types.FloorZero(s.TotalAmount.Sub(s.TotalAmountPaid))
}

// Settle moves amount from outstanding to paid. The caller checks the
// amount does not exceed the outstanding balance.
func (s *Sale) Settle(amount types.Money) {
	s.OutstandingBalance = types.FloorZero(s.OutstandingBalance.Sub(amount))
	s.TotalAmountPaid = s.TotalAmountPaid.Add(amount)
}

// Cancel moves the sale to its terminal state.
func (s *Sale) Cancel(reason string) error {
	if s.IsCancelled() {
		return apperror.NewBusinessRule(apperror.CodeSaleAlreadyCancelled, "sale is already cancelled").
			WithDetail("sale_id", s.ID)
	}
	s.Status = StatusCancelled
	s.OutstandingBalance = types.Zero()
	s.TotalAmountPaid = types.Zero()
	s.CreditUsed = types.Zero()
	s.PaymentSummary = SummaryCancelled
	s.CancellationReason = &reason
	return nil
}

// EnsureActive rejects operations on a cancelled sale.
func (s *Sale) EnsureActive() error {
	if s.IsCancelled() {
		return apperror.NewBusinessRule(apperror.CodeSaleCancelled, "sale is cancelled").
			WithDetail("sale_id", s.ID)
	}
	return nil
}
