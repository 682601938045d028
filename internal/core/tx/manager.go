// Package tx defines the unit of work that every ledger mutation runs in.
package tx

import "context"

// Manager runs fn as one atomic unit. A returned error undoes every write
// made through ctx, and the error is passed back unchanged. Calls made with
// a ctx that already carries a unit join it.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Run is RunInTransaction for units that produce a value. The value is only
// returned when the unit commits.
func Run[T any](ctx context.Context, m Manager, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := m.RunInTransaction(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
