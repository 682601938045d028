// Package auth_repo provides the PostgreSQL user directory.
package auth_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"salesledger/internal/core/apperror"
	"salesledger/internal/domain/identity"
	"salesledger/internal/infrastructure/storage/postgres"
)

// UserRepo implements identity.Directory.
type UserRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

var _ identity.Directory = (*UserRepo)(nil)

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *UserRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.
		Select("id", "username", "display_name", "is_active").
		From("users")
}

// GetByID retrieves a user by id.
func (r *UserRepo) GetByID(ctx context.Context, userID string) (*identity.User, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": userID}).
		Limit(1)
	return r.getOne(ctx, q, userID)
}

// FindByName matches username first, then display name, ignoring case.
func (r *UserRepo) FindByName(ctx context.Context, name string) (*identity.User, error) {
	q := r.baseSelect().
		Where(squirrel.Or{
			squirrel.Expr("lower(username) = lower(?)", name),
			squirrel.Expr("lower(display_name) = lower(?)", name),
		}).
		OrderByClause("(lower(username) = lower(?)) DESC", name).
		OrderBy("id").
		Limit(1)
	return r.getOne(ctx, q, name)
}

func (r *UserRepo) getOne(ctx context.Context, q squirrel.SelectBuilder, ref string) (*identity.User, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var user identity.User
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &user, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("user", ref)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}
