package handlers

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"salesledger/internal/infrastructure/http/v1/dto"
	"salesledger/internal/infrastructure/storage/postgres"
)

// AuditHistory reads the audit trail of an entity.
type AuditHistory interface {
	History(ctx context.Context, entityType, entityID string, limit int) ([]postgres.AuditEntry, error)
}

// AuditHandler exposes the audit trail of ledger documents.
type AuditHandler struct {
	*BaseHandler
	history AuditHistory
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, history AuditHistory) *AuditHandler {
	return &AuditHandler{BaseHandler: base, history: history}
}

// SaleHistory returns the audit trail of a sale, newest first.
// GET /api/v1/sales/:id/audit
func (h *AuditHandler) SaleHistory(c *gin.Context) {
	h.list(c, "sale", c.Param("id"))
}

func (h *AuditHandler) list(c *gin.Context, entityType, entityID string) {
	limit := h.ParseIntQuery(c, "limit", 50)

	entries, err := h.history.History(c.Request.Context(), entityType, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		item := dto.AuditEntryResponse{
			ID:        e.ID.String(),
			Action:    string(e.Action),
			UserID:    e.UserID,
			RequestID: e.RequestID,
			CreatedAt: e.CreatedAt,
		}
		if len(e.Changes) > 0 {
			_ = json.Unmarshal(e.Changes, &item.Changes)
		}
		items = append(items, item)
	}

	h.OK(c, dto.ListResponse{Items: items, TotalCount: len(items), Limit: limit})
}
