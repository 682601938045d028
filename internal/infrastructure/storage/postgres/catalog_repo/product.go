// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"salesledger/internal/core/apperror"
	"salesledger/internal/domain/catalogs/product"
	"salesledger/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txm        *postgres.TxManager
	builder    squirrel.StatementBuilderType
	selectCols []string
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		txm:        txm,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[product.Product](),
	}
}

// GetByID retrieves a product by id.
func (r *ProductRepo) GetByID(ctx context.Context, productID string) (*product.Product, error) {
	q := r.builder.
		Select(r.selectCols...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// AdjustStock applies delta with a single UPDATE so concurrent sales of the
// same product never lose an update.
func (r *ProductRepo) AdjustStock(ctx context.Context, productID string, delta int) (*product.Product, error) {
	q := r.builder.
		Update(productsTable).
		Set("stock", squirrel.Expr("stock + ?", delta)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": productID}).
		Suffix("RETURNING " + strings.Join(r.selectCols, ", "))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	var p product.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	return &p, nil
}
