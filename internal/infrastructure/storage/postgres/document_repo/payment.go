package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"salesledger/internal/domain/documents/sale"
	"salesledger/internal/infrastructure/storage/postgres"
)

// PaymentRepo implements sale.PaymentRepository.
type PaymentRepo struct {
	baseRepo
	selectCols []string
}

var _ sale.PaymentRepository = (*PaymentRepo)(nil)

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txm *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{
		baseRepo:   newBaseRepo(txm),
		selectCols: postgres.ExtractDBColumns[sale.Payment](),
	}
}

// Create inserts a payment row.
func (r *PaymentRepo) Create(ctx context.Context, p *sale.Payment) error {
	return r.insert(ctx, paymentsTable, p)
}

// ListBySale returns the sale's payments, oldest first.
func (r *PaymentRepo) ListBySale(ctx context.Context, saleID string) ([]sale.Payment, error) {
	sql, args, err := r.builder.
		Select(r.selectCols...).
		From(paymentsTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("payment_date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var payments []sale.Payment
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// DeleteBySale removes every payment of the sale.
func (r *PaymentRepo) DeleteBySale(ctx context.Context, saleID string) (int64, error) {
	sql, args, err := r.builder.
		Delete(paymentsTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete payments: %w", err)
	}
	return tag.RowsAffected(), nil
}
