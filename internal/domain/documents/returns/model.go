// Package returns provides the return/exchange document and its processor.
package returns

import (
	"time"

	"salesledger/internal/core/id"
	"salesledger/internal/core/types"
	"salesledger/internal/domain/documents/sale"
)

// LineType tags a return line.
type LineType string

const (
	// LineReturned is given back by the customer.
	LineReturned LineType = "returned"
	// LineExchanged is handed out to the customer instead.
	LineExchanged LineType = "exchanged"
)

// Transaction is a return/exchange document. Immutable after creation.
type Transaction struct {
	// ID has the form RET-YYMMDD-NNNN.
	ID             string    `db:"id" json:"id"`
	OriginalSaleID string    `db:"original_sale_id" json:"originalSaleId"`
	ReturnDate     time.Time `db:"return_date" json:"returnDate"`
	StaffID        string    `db:"staff_id" json:"staffId"`

	CustomerID    *string `db:"customer_id" json:"customerId,omitempty"`
	CustomerName  *string `db:"customer_name" json:"customerName,omitempty"`
	CustomerPhone *string `db:"customer_phone" json:"customerPhone,omitempty"`

	// Money effects
	SettledAmount    *types.Money `db:"settled_amount" json:"settledAmount,omitempty"`
	RefundAmount     *types.Money `db:"refund_amount" json:"refundAmount,omitempty"`
	CashPaidOut      *types.Money `db:"cash_paid_out" json:"cashPaidOut,omitempty"`
	PaymentCollected *types.Money `db:"payment_collected" json:"paymentCollected,omitempty"`
	PaymentMethod    *string      `db:"payment_method" json:"paymentMethod,omitempty"`

	ChequeNumber      *string    `db:"cheque_number" json:"chequeNumber,omitempty"`
	BankName          *string    `db:"bank_name" json:"bankName,omitempty"`
	TransferReference *string    `db:"transfer_reference" json:"transferReference,omitempty"`
	PaymentDate       *time.Time `db:"payment_date" json:"paymentDate,omitempty"`

	VehicleID *string   `db:"vehicle_id" json:"vehicleId,omitempty"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	Items []Item `db:"-" json:"items"`
}

// Item is a return line.
type Item struct {
	ID           id.ID         `db:"id" json:"id"`
	ReturnID     string        `db:"return_id" json:"returnId"`
	LineNo       int           `db:"line_no" json:"lineNo"`
	ProductID    string        `db:"product_id" json:"productId"`
	Quantity     int           `db:"quantity" json:"quantity"`
	AppliedPrice types.Money   `db:"applied_price" json:"appliedPrice"`
	SaleType     sale.SaleType `db:"sale_type" json:"saleType"`
	LineType     LineType      `db:"line_type" json:"lineType"`
	// IsResellable is meaningful for returned lines only.
	IsResellable bool   `db:"is_resellable" json:"isResellable"`
	Name         string `db:"name" json:"name"`
	SKU          string `db:"sku" json:"sku"`
	Category     string `db:"category" json:"category"`
}

// ReturnedQuantity sums the returned quantity of a (product, sale type) pair.
func (t *Transaction) ReturnedQuantity(productID string, saleType sale.SaleType) int {
	total := 0
	for _, it := range t.Items {
		if it.LineType == LineReturned && it.ProductID == productID && it.SaleType == saleType {
			total += it.Quantity
		}
	}
	return total
}

// Lines returns the items of one line type.
func (t *Transaction) Lines(lineType LineType) []Item {
	var out []Item
	for _, it := range t.Items {
		if it.LineType == lineType {
			out = append(out, it)
		}
	}
	return out
}
