package dto

import (
	"time"

	"salesledger/internal/core/types"
	"salesledger/internal/domain/documents/returns"
	"salesledger/internal/domain/documents/sale"
)

// ReturnItemRequest is one returned or exchanged line.
type ReturnItemRequest struct {
	ProductID    string      `json:"productId" binding:"required"`
	Quantity     int         `json:"quantity" binding:"required,gt=0"`
	AppliedPrice types.Money `json:"appliedPrice"`
	SaleType     string      `json:"saleType" binding:"omitempty,oneof=retail wholesale"`
	IsResellable bool        `json:"isResellable,omitempty"`
	Name         string      `json:"name,omitempty"`
	SKU          string      `json:"sku,omitempty"`
	Category     string      `json:"category,omitempty"`
}

func (r ReturnItemRequest) toItem() returns.ItemRequest {
	return returns.ItemRequest{
		ProductID:    r.ProductID,
		Quantity:     r.Quantity,
		AppliedPrice: r.AppliedPrice,
		SaleType:     sale.SaleType(r.SaleType),
		IsResellable: r.IsResellable,
		Name:         r.Name,
		SKU:          r.SKU,
		Category:     r.Category,
	}
}

// ReturnCustomerRequest is the customer snapshot.
type ReturnCustomerRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ReturnPaymentRequest is money collected during an exchange.
type ReturnPaymentRequest struct {
	Amount            types.Money `json:"amount"`
	Method            string      `json:"method,omitempty"`
	ChequeNumber      string      `json:"chequeNumber,omitempty"`
	BankName          string      `json:"bankName,omitempty"`
	TransferReference string      `json:"transferReference,omitempty"`
	Date              *time.Time  `json:"date,omitempty"`
}

// ProcessReturnRequest is a return/exchange against the sale in the path.
type ProcessReturnRequest struct {
	ReturnedItems  []ReturnItemRequest    `json:"returnedItems" binding:"dive"`
	ExchangedItems []ReturnItemRequest    `json:"exchangedItems" binding:"dive"`
	StaffID        string                 `json:"staffId,omitempty"`
	Customer       *ReturnCustomerRequest `json:"customer,omitempty"`
	SettleAmount   *types.Money           `json:"settleAmount,omitempty"`
	RefundAmount   *types.Money           `json:"refundAmount,omitempty"`
	CashPaidOut    *types.Money           `json:"cashPaidOut,omitempty"`
	Payment        *ReturnPaymentRequest  `json:"payment,omitempty"`
	VehicleID      string                 `json:"vehicleId,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
}

// ToRequest maps the body to the processor request.
func (r *ProcessReturnRequest) ToRequest(saleID, staffRef string) returns.Request {
	req := returns.Request{
		SaleID:       saleID,
		StaffRef:     firstNonEmpty(r.StaffID, staffRef),
		SettleAmount: r.SettleAmount,
		RefundAmount: r.RefundAmount,
		CashPaidOut:  r.CashPaidOut,
		VehicleID:    r.VehicleID,
		Notes:        r.Notes,
	}
	for _, it := range r.ReturnedItems {
		req.Returned = append(req.Returned, it.toItem())
	}
	for _, it := range r.ExchangedItems {
		req.Exchanged = append(req.Exchanged, it.toItem())
	}
	if c := r.Customer; c != nil {
		req.Customer = &returns.Customer{ID: c.ID, Name: c.Name, Phone: c.Phone}
	}
	if p := r.Payment; p != nil {
		req.Payment = &returns.PaymentRequest{
			Amount:            p.Amount,
			Method:            sale.PaymentMethod(p.Method),
			ChequeNumber:      p.ChequeNumber,
			BankName:          p.BankName,
			TransferReference: p.TransferReference,
			Date:              p.Date,
		}
	}
	return req
}
