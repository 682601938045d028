package sale

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"salesledger/internal/core/types"
)

func TestBuildPaymentSummary(t *testing.T) {
	m := types.MustMoney

	tests := []struct {
		name        string
		totals      MethodTotals
		outstanding string
		want        string
	}{
		{
			name:        "single method paid in full",
			totals:      MethodTotals{MethodCash: m("500")},
			outstanding: "0",
			want:        "Cash",
		},
		{
			name:        "split payment in fixed order",
			totals:      MethodTotals{MethodBank: m("20"), MethodCash: m("100.5"), MethodCheque: m("50")},
			outstanding: "0",
			want:        "Cash (100.50) + Cheque (50.00) + Bank Transfer (20.00)",
		},
		{
			name:        "single method partial",
			totals:      MethodTotals{MethodCheque: m("300")},
			outstanding: "200",
			want:        "Partial (Cheque) - Outstanding: 200.00",
		},
		{
			name:        "split partial with return credit",
			totals:      MethodTotals{MethodCash: m("100"), MethodCreditFromReturn: m("25")},
			outstanding: "75.255",
			want:        "Partial (Cash (100.00) + Credit from Return (25.00)) - Outstanding: 75.26",
		},
		{
			name:        "nothing paid",
			totals:      MethodTotals{},
			outstanding: "1000",
			want:        "Unpaid - Outstanding: 1000.00",
		},
		{
			name:        "zero amounts are ignored",
			totals:      MethodTotals{MethodCash: m("0"), MethodBank: m("10")},
			outstanding: "0",
			want:        "Bank Transfer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPaymentSummary(tt.totals, m(tt.outstanding))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTotalsFor(t *testing.T) {
	cash := types.MustMoney("100")
	bank := types.MustMoney("50")
	s := &Sale{CashPaid: &cash, BankPaid: &bank}

	totals := TotalsFor(s, []Payment{
		{Method: MethodCash, Amount: types.MustMoney("25")},
		{Method: MethodCreditFromReturn, Amount: types.MustMoney("10")},
	})

	assert.True(t, totals[MethodCash].Equal(types.MustMoney("125")))
	assert.True(t, totals[MethodBank].Equal(bank))
	assert.True(t, totals[MethodCreditFromReturn].Equal(types.MustMoney("10")))
	_, hasCheque := totals[MethodCheque]
	assert.False(t, hasCheque)
}

func TestSale_ApplyPaymentFloorsOutstanding(t *testing.T) {
	s := &Sale{TotalAmount: types.MustMoney("100"), TotalAmountPaid: types.MustMoney("60")}

	s.ApplyPayment(types.MustMoney("70"))

	assert.True(t, s.TotalAmountPaid.Equal(types.MustMoney("130")))
	assert.True(t, s.OutstandingBalance.IsZero())
}

func TestSale_Cancel(t *testing.T) {
	s := &Sale{
		ID:                 "s-1",
		Status:             StatusActive,
		TotalAmount:        types.MustMoney("100"),
		TotalAmountPaid:    types.MustMoney("40"),
		OutstandingBalance: types.MustMoney("60"),
		CreditUsed:         types.MustMoney("10"),
	}

	assert.NoError(t, s.Cancel("customer changed mind"))
	assert.Equal(t, StatusCancelled, s.Status)
	assert.Equal(t, SummaryCancelled, s.PaymentSummary)
	assert.True(t, s.OutstandingBalance.IsZero())
	assert.True(t, s.TotalAmountPaid.IsZero())
	assert.True(t, s.CreditUsed.IsZero())
	assert.Equal(t, "customer changed mind", *s.CancellationReason)

	err := s.Cancel("again")
	assert.Error(t, err)
	assert.Equal(t, "customer changed mind", *s.CancellationReason)
}
