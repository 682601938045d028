package handlers

import (
	"github.com/gin-gonic/gin"

	"salesledger/internal/domain/documents/returns"
	"salesledger/internal/infrastructure/http/v1/dto"
)

// ReturnHandler handles return/exchange documents.
type ReturnHandler struct {
	*BaseHandler
	processor *returns.Processor
}

// NewReturnHandler creates a new return handler.
func NewReturnHandler(base *BaseHandler, processor *returns.Processor) *ReturnHandler {
	return &ReturnHandler{BaseHandler: base, processor: processor}
}

// Process records a return or exchange against a sale.
// POST /api/v1/sales/:id/returns
func (h *ReturnHandler) Process(c *gin.Context) {
	var req dto.ProcessReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.processor.ProcessReturn(c.Request.Context(), req.ToRequest(c.Param("id"), h.GetUserID(c)))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, doc)
}

// Get returns one return document.
// GET /api/v1/returns/:id
func (h *ReturnHandler) Get(c *gin.Context) {
	doc, err := h.processor.GetReturn(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}
