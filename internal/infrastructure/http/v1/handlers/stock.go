package handlers

import (
	"github.com/gin-gonic/gin"

	"salesledger/internal/domain/registers/stock"
	"salesledger/internal/infrastructure/http/v1/dto"
)

// StockHandler handles the stock ledger.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// RecordMovement appends a manual stock movement.
// POST /api/v1/stock/movements
func (h *StockHandler) RecordMovement(c *gin.Context) {
	var req dto.RecordMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.RecordMovement(c.Request.Context(), req.ToInput(h.GetUserID(c)))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, entry)
}

// History lists ledger entries, newest first.
// GET /api/v1/stock/movements
func (h *StockHandler) History(c *gin.Context) {
	var q dto.MovementHistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := q.ToFilter()
	page, err := h.service.History(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      page.Items,
		TotalCount: page.TotalCount,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// VehicleBalance returns a vehicle's derived quantity of a product.
// GET /api/v1/vehicles/:vehicleId/stock/:productId
func (h *StockHandler) VehicleBalance(c *gin.Context) {
	vehicleID := c.Param("vehicleId")
	productID := c.Param("productId")

	qty, err := h.service.VehicleBalance(c.Request.Context(), vehicleID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.VehicleBalanceResponse{VehicleID: vehicleID, ProductID: productID, Quantity: qty})
}
