package credit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesledger/internal/core/apperror"
	"salesledger/internal/core/types"
)

type sums map[string]types.Money

func (s sums) SumRefundsByCustomer(_ context.Context, id string) (types.Money, error) {
	return s[id], nil
}

func (s sums) SumCreditUsed(_ context.Context, id string) (types.Money, error) {
	return s[id], nil
}

type failing struct{ err error }

func (f failing) SumCreditUsed(context.Context, string) (types.Money, error) {
	return types.Zero(), f.err
}

func TestAvailableCredit(t *testing.T) {
	refunds := sums{"c-1": types.MustMoney("1000"), "c-2": types.MustMoney("50")}
	usage := sums{"c-1": types.MustMoney("300"), "c-2": types.MustMoney("80")}
	svc := NewService(refunds, usage)
	ctx := context.Background()

	tests := []struct {
		customer string
		want     string
	}{
		{"c-1", "700"},
		{"c-2", "-30"},
		{"c-new", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.customer, func(t *testing.T) {
			got, err := svc.AvailableCredit(ctx, tt.customer)
			require.NoError(t, err)
			assert.True(t, got.Equal(types.MustMoney(tt.want)), "got %s", got)
		})
	}
}

func TestAvailableCredit_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewService(sums{}, sums{}).AvailableCredit(ctx, " ")
	assert.True(t, apperror.IsValidation(err))

	boom := errors.New("boom")
	_, err = NewService(sums{}, failing{boom}).AvailableCredit(ctx, "c-1")
	assert.ErrorIs(t, err, boom)
}
