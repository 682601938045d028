package tx_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesledger/internal/core/tx"
)

// commitFails runs fn and then reports commitErr, like a failed COMMIT.
type commitFails struct{ commitErr error }

func (m commitFails) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return m.commitErr
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	got, err := tx.Run(ctx, commitFails{}, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	boom := errors.New("boom")
	got, err = tx.Run(ctx, commitFails{}, func(context.Context) (int, error) { return 7, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, got)

	lost := errors.New("commit lost")
	got, err = tx.Run(ctx, commitFails{commitErr: lost}, func(context.Context) (int, error) { return 7, nil })
	assert.ErrorIs(t, err, lost)
	assert.Zero(t, got, "value of an uncommitted unit must not escape")
}
