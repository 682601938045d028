package sale

import (
	"fmt"
	"strings"

	"salesledger/internal/core/types"
)

// summaryOrder is the fixed rendering order of methods.
var summaryOrder = []PaymentMethod{MethodCash, MethodCheque, MethodBank, MethodCreditFromReturn}

// MethodTotals aggregates paid amounts per method.
type MethodTotals map[PaymentMethod]types.Money

// Add accumulates an amount for a method. Non-positive amounts are ignored.
func (t MethodTotals) Add(method PaymentMethod, amount types.Money) {
	if !amount.IsPositive() {
		return
	}
	t[method] = t[method].Add(amount)
}

// TotalsFor aggregates the amounts paid at the till plus every payment row.
func TotalsFor(s *Sale, payments []Payment) MethodTotals {
	totals := MethodTotals{}
	totals.Add(MethodCash, types.Deref(s.CashPaid))
	totals.Add(MethodCheque, types.Deref(s.ChequePaid))
	totals.Add(MethodBank, types.Deref(s.BankPaid))
	for _, p := range payments {
		totals.Add(p.Method, p.Amount)
	}
	return totals
}

// BuildPaymentSummary renders the display summary, e.g.
// "Cash", "Cash (100.00) + Cheque (50.00)" or
// "Partial (Cash) - Outstanding: 25.00".
func BuildPaymentSummary(totals MethodTotals, outstanding types.Money) string {
	var parts []string
	for _, m := range summaryOrder {
		if amount, ok := totals[m]; ok && amount.IsPositive() {
			parts = append(parts, fmt.Sprintf("%s (%s)", m.Label(), types.FormatAmount(amount)))
		}
	}

	var inner string
	switch len(parts) {
	case 0:
	case 1:
		inner = onlyMethod(totals).Label()
	default:
		inner = strings.Join(parts, " + ")
	}

	if !outstanding.IsPositive() {
		return inner
	}
	if inner == "" {
		return "Unpaid - Outstanding: " + types.FormatAmount(outstanding)
	}
	return fmt.Sprintf("Partial (%s) - Outstanding: %s", inner, types.FormatAmount(outstanding))
}

func onlyMethod(totals MethodTotals) PaymentMethod {
	for _, m := range summaryOrder {
		if amount, ok := totals[m]; ok && amount.IsPositive() {
			return m
		}
	}
	return ""
}

// RefreshSummary regenerates the sale's payment summary from its history.
func (s *Sale) RefreshSummary(payments []Payment) {
	s.PaymentSummary = BuildPaymentSummary(TotalsFor(s, payments), s.OutstandingBalance)
}
