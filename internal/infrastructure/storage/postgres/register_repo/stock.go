// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"salesledger/internal/domain/registers/stock"
	"salesledger/internal/infrastructure/storage/postgres"
)

const stockTransactionsTable = "stock_transactions"

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm        *postgres.TxManager
	inserter   *postgres.BatchInserter
	builder    squirrel.StatementBuilderType
	selectCols []string
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:        txm,
		inserter:   postgres.NewBatchInserter(txm),
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[stock.Transaction](),
	}
}

// Append inserts ledger entries. Inside a transaction COPY is used.
func (r *StockRepo) Append(ctx context.Context, entries []stock.Transaction) error {
	if len(entries) == 0 {
		return nil
	}

	if r.txm.GetTx(ctx) != nil {
		if _, err := postgres.CopyStructs(ctx, r.inserter, stockTransactionsTable, entries); err != nil {
			return fmt.Errorf("copy stock transactions: %w", err)
		}
		return nil
	}

	// Fallback: multi-row INSERT outside a transaction.
	q := r.builder.Insert(stockTransactionsTable).Columns(r.selectCols...)
	for i := range entries {
		values := postgres.StructToMap(&entries[i])
		row := make([]any, len(r.selectCols))
		for j, col := range r.selectCols {
			row[j] = values[col]
		}
		q = q.Values(row...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock transactions: %w", err)
	}
	return nil
}

// vehicleEffect mirrors stock.TransactionType.VehicleSign in SQL.
var vehicleEffect = fmt.Sprintf(
	"COALESCE(SUM(CASE WHEN type IN ('%s', '%s') THEN quantity WHEN type IN ('%s', '%s', '%s') THEN -quantity ELSE 0 END), 0)",
	stock.TypeLoadToVehicle, stock.TypeStockAdjustmentManual,
	stock.TypeUnloadFromVehicle, stock.TypeIssueSample, stock.TypeRemoveStockWastage,
)

// VehicleBalance derives a vehicle's quantity of a product from the ledger.
func (r *StockRepo) VehicleBalance(ctx context.Context, vehicleID, productID string) (int, error) {
	q := r.builder.
		Select(vehicleEffect).
		From(stockTransactionsTable).
		Where(squirrel.Eq{"vehicle_id": vehicleID, "product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var balance int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		return 0, fmt.Errorf("vehicle balance: %w", err)
	}
	return balance, nil
}

// List returns entries matching the filter, newest first, with the total count.
func (r *StockRepo) List(ctx context.Context, filter stock.Filter) ([]stock.Transaction, int, error) {
	q := r.builder.Select(r.selectCols...).From(stockTransactionsTable)

	if filter.ProductID != "" {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductID})
	}
	if filter.VehicleID != "" {
		q = q.Where(squirrel.Eq{"vehicle_id": filter.VehicleID})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"type": filter.Type})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"transaction_date": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"transaction_date": *filter.To})
	}

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	// UUIDv7 ids break ties between entries of the same instant.
	q = q.OrderBy("transaction_date DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build query: %w", err)
	}

	var items []stock.Transaction
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list stock transactions: %w", err)
	}
	return items, total, nil
}
