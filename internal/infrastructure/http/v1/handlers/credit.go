package handlers

import (
	"github.com/gin-gonic/gin"

	"salesledger/internal/domain/credit"
	"salesledger/internal/infrastructure/http/v1/dto"
)

// CreditHandler answers customer credit queries.
type CreditHandler struct {
	*BaseHandler
	service *credit.Service
}

// NewCreditHandler creates a new credit handler.
func NewCreditHandler(base *BaseHandler, service *credit.Service) *CreditHandler {
	return &CreditHandler{BaseHandler: base, service: service}
}

// Get returns the customer's available credit.
// GET /api/v1/customers/:id/credit
func (h *CreditHandler) Get(c *gin.Context) {
	customerID := c.Param("id")
	amount, err := h.service.AvailableCredit(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.CreditResponse{CustomerID: customerID, AvailableCredit: amount})
}
