// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"salesledger/internal/core/types"
	"salesledger/internal/infrastructure/storage/postgres"
)

// baseRepo holds what every document repository needs.
type baseRepo struct {
	txm      *postgres.TxManager
	inserter *postgres.BatchInserter
	builder  squirrel.StatementBuilderType
}

func newBaseRepo(txm *postgres.TxManager) baseRepo {
	return baseRepo{
		txm:      txm,
		inserter: postgres.NewBatchInserter(txm),
		builder:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// insert writes one row from the entity's db-tagged fields.
func (r baseRepo) insert(ctx context.Context, table string, entity any) error {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	sql, args, err := r.builder.Insert(table).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// sumMoney runs a single-value SUM query; NULL becomes zero.
func (r baseRepo) sumMoney(ctx context.Context, q squirrel.SelectBuilder) (types.Money, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var total decimal.NullDecimal
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return types.Zero(), fmt.Errorf("sum: %w", err)
	}
	if !total.Valid {
		return types.Zero(), nil
	}
	return total.Decimal, nil
}
