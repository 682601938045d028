package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"salesledger/internal/core/apperror"
	"salesledger/internal/core/id"
	"salesledger/internal/core/types"
	"salesledger/internal/domain/documents/sale"
	"salesledger/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "sales"
	saleItemsTable = "sale_items"
	paymentsTable  = "payments"
)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	baseRepo
	headerCols []string
	itemCols   []string
}

var _ sale.Repository = (*SaleRepo)(nil)

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		baseRepo:   newBaseRepo(txm),
		headerCols: postgres.ExtractDBColumns[sale.Sale](),
		itemCols:   postgres.ExtractDBColumns[sale.Item](),
	}
}

// Create inserts the header and copies the items.
func (r *SaleRepo) Create(ctx context.Context, doc *sale.Sale) error {
	if err := r.insert(ctx, salesTable, doc); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("sale", "id", doc.ID)
		}
		return err
	}
	if _, err := postgres.CopyStructs(ctx, r.inserter, saleItemsTable, doc.Items); err != nil {
		return fmt.Errorf("copy sale items: %w", err)
	}
	return nil
}

// GetByID returns the sale with items.
func (r *SaleRepo) GetByID(ctx context.Context, saleID string) (*sale.Sale, error) {
	return r.get(ctx, saleID, "")
}

// GetForUpdate locks the sale row for the rest of the transaction.
func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID string) (*sale.Sale, error) {
	return r.get(ctx, saleID, "FOR UPDATE")
}

func (r *SaleRepo) get(ctx context.Context, saleID, suffix string) (*sale.Sale, error) {
	q := r.builder.
		Select(r.headerCols...).
		From(salesTable).
		Where(squirrel.Eq{"id": saleID})
	if suffix != "" {
		q = q.Suffix(suffix)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var doc sale.Sale
	if err := pgxscan.Get(ctx, querier, &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID)
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	itemsSQL, itemsArgs, err := r.builder.
		Select(r.itemCols...).
		From(saleItemsTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &doc.Items, itemsSQL, itemsArgs...); err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}
	return &doc, nil
}

// Update writes the mutable header fields.
func (r *SaleRepo) Update(ctx context.Context, doc *sale.Sale) error {
	q := r.builder.
		Update(salesTable).
		SetMap(map[string]any{
			"total_amount_paid":   doc.TotalAmountPaid,
			"outstanding_balance": doc.OutstandingBalance,
			"payment_summary":     doc.PaymentSummary,
			"status":              doc.Status,
			"cancellation_reason": doc.CancellationReason,
			"credit_used":         doc.CreditUsed,
			"updated_at":          doc.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": doc.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", doc.ID)
	}
	return nil
}

// IncrementReturnedQuantity bumps one item's informational counter.
func (r *SaleRepo) IncrementReturnedQuantity(ctx context.Context, itemID id.ID, qty int) error {
	sql, args, err := r.builder.
		Update(saleItemsTable).
		Set("returned_quantity", squirrel.Expr("returned_quantity + ?", qty)).
		Where(squirrel.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("increment returned quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale item", itemID.String())
	}
	return nil
}

// SumCreditUsed sums credit used over the customer's sales.
func (r *SaleRepo) SumCreditUsed(ctx context.Context, customerID string) (types.Money, error) {
	return r.sumMoney(ctx, r.builder.
		Select("SUM(credit_used)").
		From(salesTable).
		Where(squirrel.Eq{"customer_id": customerID}))
}
