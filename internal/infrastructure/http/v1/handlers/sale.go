package handlers

import (
	"github.com/gin-gonic/gin"

	"salesledger/internal/domain/cancellation"
	"salesledger/internal/domain/documents/returns"
	"salesledger/internal/domain/documents/sale"
	"salesledger/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles sales, their payments and cancellation.
type SaleHandler struct {
	*BaseHandler
	sales     *sale.Service
	returns   *returns.Processor
	canceller *cancellation.Processor
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, sales *sale.Service, rets *returns.Processor, canceller *cancellation.Processor) *SaleHandler {
	return &SaleHandler{
		BaseHandler: base,
		sales:       sales,
		returns:     rets,
		canceller:   canceller,
	}
}

// Create records a new sale.
// POST /api/v1/sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.sales.CreateSale(c.Request.Context(), req.ToInput(h.GetUserID(c)))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromSale(doc, nil))
}

// Get returns the sale with items, payments and returns.
// GET /api/v1/sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	saleID := c.Param("id")

	doc, err := h.sales.GetSale(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	rets, err := h.returns.ListBySale(ctx, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSale(doc, rets))
}

// RecordPayment adds a payment to a sale.
// POST /api/v1/sales/:id/payments
func (h *SaleHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.sales.RecordPayment(c.Request.Context(), c.Param("id"), req.ToInput(h.GetUserID(c)))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromSale(doc, nil))
}

// Cancel cancels a sale. The acting user comes from X-User-ID.
// POST /api/v1/sales/:id/cancel
func (h *SaleHandler) Cancel(c *gin.Context) {
	var req dto.CancelSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.canceller.CancelSale(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "sale cancelled")
}
