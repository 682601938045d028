// Package credit derives a customer's store credit from return refunds and
// the credit already spent on sales.
package credit

import (
	"context"
	"strings"

	"salesledger/internal/core/apperror"
	"salesledger/internal/core/types"
)

// RefundSource sums refunds granted through returns.
type RefundSource interface {
	SumRefundsByCustomer(ctx context.Context, customerID string) (types.Money, error)
}

// UsageSource sums credit spent on sales.
type UsageSource interface {
	SumCreditUsed(ctx context.Context, customerID string) (types.Money, error)
}

// Service computes available credit. Nothing is stored.
type Service struct {
	refunds RefundSource
	usage   UsageSource
}

// NewService creates a credit service.
func NewService(refunds RefundSource, usage UsageSource) *Service {
	return &Service{refunds: refunds, usage: usage}
}

// AvailableCredit is total refunds minus total credit used. The result
// can be negative when legacy data spent more than was refunded.
func (s *Service) AvailableCredit(ctx context.Context, customerID string) (types.Money, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return types.Zero(), apperror.NewValidation("customer id is required")
	}

	refunded, err := s.refunds.SumRefundsByCustomer(ctx, customerID)
	if err != nil {
		return types.Zero(), err
	}
	used, err := s.usage.SumCreditUsed(ctx, customerID)
	if err != nil {
		return types.Zero(), err
	}
	return refunded.Sub(used), nil
}
