// Package cancellation reverses a sale: stock comes back, payments go away
// and the sale becomes terminally cancelled.
package cancellation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salesledger/internal/core/apperror"
	"salesledger/internal/core/tx"
	"salesledger/internal/domain/audit"
	"salesledger/internal/domain/documents/sale"
	"salesledger/internal/domain/events"
	"salesledger/internal/domain/identity"
	"salesledger/internal/domain/registers/stock"
	"salesledger/pkg/logger"
)

// UserChecker confirms a stored user id still resolves.
type UserChecker interface {
	ResolveExisting(ctx context.Context, userID string) (identity.Resolution, error)
}

// Processor cancels sales.
type Processor struct {
	sales     sale.Repository
	payments  sale.PaymentRepository
	pool      stock.StockPool
	users     UserChecker
	txManager tx.Manager
	audit     audit.Recorder
	events    events.Publisher
	now       func() time.Time
}

// NewProcessor creates a cancellation processor.
func NewProcessor(
	sales sale.Repository,
	payments sale.PaymentRepository,
	pool stock.StockPool,
	users UserChecker,
	txManager tx.Manager,
	recorder audit.Recorder,
	publisher events.Publisher,
) *Processor {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Processor{
		sales:     sales,
		payments:  payments,
		pool:      pool,
		users:     users,
		txManager: txManager,
		audit:     recorder,
		events:    publisher,
		now:       time.Now,
	}
}

// CancelSale cancels an active sale. Warehouse sales put every sold
// quantity back on product stock; vehicle sales log one LOAD_TO_VEHICLE
// entry per item. All payment rows of the sale are deleted.
func (p *Processor) CancelSale(ctx context.Context, saleID, reason string) error {
	saleID = strings.TrimSpace(saleID)
	reason = strings.TrimSpace(reason)
	if saleID == "" {
		return apperror.NewValidation("sale id is required")
	}
	if reason == "" {
		return apperror.NewValidation("cancellation reason is required").
			WithDetail("field", "reason")
	}

	var auditUser string
	err := p.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := p.sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if doc.IsCancelled() {
			return apperror.NewBusinessRule(apperror.CodeSaleAlreadyCancelled, "sale is already cancelled").
				WithDetail("sale_id", doc.ID)
		}

		user, err := p.users.ResolveExisting(ctx, doc.StaffID)
		if err != nil {
			return err
		}
		auditUser = user.UserID

		pool := stock.PoolOf(doc.VehicleID)
		for _, item := range doc.Items {
			if _, err := p.pool.Adjust(ctx, stock.Adjustment{
				ProductID:   item.ProductID,
				Delta:       item.Quantity,
				Pool:        pool,
				UserID:      auditUser,
				ReferenceID: doc.ID,
				Notes:       "cancellation of sale " + doc.ID,
			}); err != nil {
				return err
			}
		}

		deleted, err := p.payments.DeleteBySale(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("delete payments: %w", err)
		}

		previous := map[string]any{
			"status":            doc.Status,
			"total_amount_paid": doc.TotalAmountPaid,
			"outstanding":       doc.OutstandingBalance,
			"credit_used":       doc.CreditUsed,
		}
		if err := doc.Cancel(reason); err != nil {
			return err
		}
		doc.UpdatedAt = p.now().UTC()

		if err := p.sales.Update(ctx, doc); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}

		if err := p.audit.Record(ctx, audit.Entry{
			EntityType: "sale",
			EntityID:   doc.ID,
			Action:     audit.ActionSaleCancelled,
			UserID:     auditUser,
			Changes: map[string]any{
				"reason":           reason,
				"before":           previous,
				"payments_deleted": deleted,
				"pool":             pool.String(),
			},
		}); err != nil {
			return err
		}

		return p.events.Publish(ctx, events.Event{
			AggregateType: "sale",
			AggregateID:   doc.ID,
			Type:          events.SaleCancelled,
			Payload:       map[string]any{"reason": reason, "userId": auditUser},
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale cancelled", "id", saleID, "audit_user", auditUser)
	return nil
}
