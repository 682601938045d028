package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"salesledger/internal/core/apperror"
	"salesledger/internal/core/types"
	"salesledger/internal/domain/documents/returns"
	"salesledger/internal/infrastructure/storage/postgres"
)

const (
	returnsTable     = "return_transactions"
	returnItemsTable = "return_items"
)

// ReturnRepo implements returns.Repository.
type ReturnRepo struct {
	baseRepo
	headerCols []string
	itemCols   []string
}

var _ returns.Repository = (*ReturnRepo)(nil)

// NewReturnRepo creates a new return repository.
func NewReturnRepo(txm *postgres.TxManager) *ReturnRepo {
	return &ReturnRepo{
		baseRepo:   newBaseRepo(txm),
		headerCols: postgres.ExtractDBColumns[returns.Transaction](),
		itemCols:   postgres.ExtractDBColumns[returns.Item](),
	}
}

// Create inserts the header and copies the items.
func (r *ReturnRepo) Create(ctx context.Context, t *returns.Transaction) error {
	if err := r.insert(ctx, returnsTable, t); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewDuplicate("return", "id", t.ID)
		}
		return err
	}
	if _, err := postgres.CopyStructs(ctx, r.inserter, returnItemsTable, t.Items); err != nil {
		return fmt.Errorf("copy return items: %w", err)
	}
	return nil
}

// GetByID returns the document with items.
func (r *ReturnRepo) GetByID(ctx context.Context, returnID string) (*returns.Transaction, error) {
	docs, err := r.list(ctx, squirrel.Eq{"id": returnID})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, apperror.NewNotFound("return", returnID)
	}
	return &docs[0], nil
}

// ListBySale returns the sale's returns, oldest first.
func (r *ReturnRepo) ListBySale(ctx context.Context, saleID string) ([]returns.Transaction, error) {
	return r.list(ctx, squirrel.Eq{"original_sale_id": saleID})
}

func (r *ReturnRepo) list(ctx context.Context, where squirrel.Sqlizer) ([]returns.Transaction, error) {
	sql, args, err := r.builder.
		Select(r.headerCols...).
		From(returnsTable).
		Where(where).
		OrderBy("return_date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var docs []returns.Transaction
	if err := pgxscan.Select(ctx, querier, &docs, sql, args...); err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	if len(docs) == 0 {
		return docs, nil
	}

	ids := make([]string, len(docs))
	byID := make(map[string]int, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		byID[d.ID] = i
	}

	itemsSQL, itemsArgs, err := r.builder.
		Select(r.itemCols...).
		From(returnItemsTable).
		Where(squirrel.Eq{"return_id": ids}).
		OrderBy("return_id", "line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build items query: %w", err)
	}

	var items []returns.Item
	if err := pgxscan.Select(ctx, querier, &items, itemsSQL, itemsArgs...); err != nil {
		return nil, fmt.Errorf("list return items: %w", err)
	}
	for _, it := range items {
		i := byID[it.ReturnID]
		docs[i].Items = append(docs[i].Items, it)
	}
	return docs, nil
}

// SumRefundsByCustomer sums refund amounts over the customer's returns.
func (r *ReturnRepo) SumRefundsByCustomer(ctx context.Context, customerID string) (types.Money, error) {
	return r.sumMoney(ctx, r.builder.
		Select("SUM(COALESCE(refund_amount, 0))").
		From(returnsTable).
		Where(squirrel.Eq{"customer_id": customerID}))
}
