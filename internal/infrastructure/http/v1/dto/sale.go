package dto

import (
	"time"

	"salesledger/internal/core/types"
	"salesledger/internal/domain/documents/returns"
	"salesledger/internal/domain/documents/sale"
)

// --- Request DTOs ---

// SaleItemRequest is one sale line.
type SaleItemRequest struct {
	ProductID    string       `json:"productId" binding:"required"`
	Quantity     int          `json:"quantity" binding:"required,gt=0"`
	AppliedPrice types.Money  `json:"appliedPrice"`
	SaleType     string       `json:"saleType" binding:"omitempty,oneof=retail wholesale"`
	IsOfferItem  bool         `json:"isOfferItem,omitempty"`
	Name         string       `json:"name,omitempty"`
	Category     string       `json:"category,omitempty"`
	Price        *types.Money `json:"price,omitempty"`
	SKU          string       `json:"sku,omitempty"`
}

// ChequeDetailsRequest describes a cheque.
type ChequeDetailsRequest struct {
	Number string     `json:"number"`
	Bank   string     `json:"bank"`
	Date   *time.Time `json:"date,omitempty"`
}

// BankTransferDetailsRequest describes a bank transfer.
type BankTransferDetailsRequest struct {
	Reference string     `json:"reference"`
	Bank      string     `json:"bank"`
	Date      *time.Time `json:"date,omitempty"`
}

// CreateSaleRequest is a sale computed by the till.
type CreateSaleRequest struct {
	ID    string            `json:"id,omitempty"`
	Items []SaleItemRequest `json:"items" binding:"required,min=1,dive"`

	SubTotal           types.Money `json:"subTotal"`
	DiscountPercentage types.Money `json:"discountPercentage"`
	DiscountAmount     types.Money `json:"discountAmount"`
	TotalAmount        types.Money `json:"totalAmount"`
	AmountPaid         types.Money `json:"amountPaid"`
	OutstandingBalance types.Money `json:"outstandingBalance"`

	CustomerID string `json:"customerId,omitempty"`
	VehicleID  string `json:"vehicleId,omitempty"`
	StaffID    string `json:"staffId,omitempty"`

	CashPaid            *types.Money                `json:"cashPaid,omitempty"`
	ChequePaid          *types.Money                `json:"chequePaid,omitempty"`
	BankPaid            *types.Money                `json:"bankPaid,omitempty"`
	ChequeDetails       *ChequeDetailsRequest       `json:"chequeDetails,omitempty"`
	BankTransferDetails *BankTransferDetailsRequest `json:"bankTransferDetails,omitempty"`

	CreditUsed  types.Money `json:"creditUsed"`
	ChangeGiven types.Money `json:"changeGiven"`
	SaleDate    *time.Time  `json:"saleDate,omitempty"`
}

// ToInput maps the request to the service input. staffRef is used when
// the body does not name a staff member.
func (r *CreateSaleRequest) ToInput(staffRef string) sale.CreateInput {
	in := sale.CreateInput{
		ID:                 r.ID,
		SubTotal:           r.SubTotal,
		DiscountPercentage: r.DiscountPercentage,
		DiscountAmount:     r.DiscountAmount,
		TotalAmount:        r.TotalAmount,
		AmountPaid:         r.AmountPaid,
		OutstandingBalance: r.OutstandingBalance,
		CustomerID:         r.CustomerID,
		VehicleID:          r.VehicleID,
		StaffRef:           firstNonEmpty(r.StaffID, staffRef),
		CashPaid:           r.CashPaid,
		ChequePaid:         r.ChequePaid,
		BankPaid:           r.BankPaid,
		CreditUsed:         r.CreditUsed,
		ChangeGiven:        r.ChangeGiven,
		SaleDate:           r.SaleDate,
	}

	for _, it := range r.Items {
		saleType := sale.SaleType(it.SaleType)
		if saleType == "" {
			saleType = sale.SaleTypeRetail
		}
		in.Items = append(in.Items, sale.ItemInput{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			AppliedPrice: it.AppliedPrice,
			SaleType:     saleType,
			IsOfferItem:  it.IsOfferItem,
			Name:         it.Name,
			Category:     it.Category,
			Price:        it.Price,
			SKU:          it.SKU,
		})
	}

	if d := r.ChequeDetails; d != nil {
		in.Cheque = &sale.ChequeDetail{Number: d.Number, Bank: d.Bank, Date: d.Date}
	}
	if d := r.BankTransferDetails; d != nil {
		in.BankTransfer = &sale.BankTransferDetail{Reference: d.Reference, Bank: d.Bank, Date: d.Date}
	}
	return in
}

// PaymentDetailsRequest is the optional detail block of a payment.
type PaymentDetailsRequest struct {
	ChequeNumber      string     `json:"chequeNumber,omitempty"`
	BankName          string     `json:"bankName,omitempty"`
	TransferReference string     `json:"transferReference,omitempty"`
	Date              *time.Time `json:"date,omitempty"`
}

// RecordPaymentRequest is an additional payment against a sale.
type RecordPaymentRequest struct {
	Amount      types.Money            `json:"amount"`
	Method      string                 `json:"method" binding:"required,oneof=cash cheque bank"`
	PaymentDate *time.Time             `json:"paymentDate,omitempty"`
	Notes       string                 `json:"notes,omitempty"`
	StaffID     string                 `json:"staffId,omitempty"`
	Details     *PaymentDetailsRequest `json:"details,omitempty"`
}

// ToInput maps the request to the service input.
func (r *RecordPaymentRequest) ToInput(staffRef string) sale.PaymentInput {
	in := sale.PaymentInput{
		Amount:   r.Amount,
		Method:   sale.PaymentMethod(r.Method),
		Date:     r.PaymentDate,
		Notes:    r.Notes,
		StaffRef: firstNonEmpty(r.StaffID, staffRef),
	}
	if d := r.Details; d != nil {
		in.Detail = &sale.PaymentDetail{
			ChequeNumber:      d.ChequeNumber,
			BankName:          d.BankName,
			TransferReference: d.TransferReference,
			Date:              d.Date,
		}
	}
	return in
}

// CancelSaleRequest carries the cancellation reason.
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// --- Response DTOs ---

// SaleResponse is the sale read model: header, items, payments and returns.
type SaleResponse struct {
	*sale.Sale
	Returns []returns.Transaction `json:"returns"`
}

// FromSale builds the read model.
func FromSale(doc *sale.Sale, rets []returns.Transaction) SaleResponse {
	if doc.Items == nil {
		doc.Items = []sale.Item{}
	}
	if doc.Payments == nil {
		doc.Payments = []sale.Payment{}
	}
	if rets == nil {
		rets = []returns.Transaction{}
	}
	return SaleResponse{Sale: doc, Returns: rets}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
