package sale

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salesledger/internal/core/apperror"
	"salesledger/internal/core/id"
	"salesledger/internal/core/numerator"
	"salesledger/internal/core/tx"
	"salesledger/internal/core/types"
	"salesledger/internal/domain/events"
	"salesledger/internal/domain/identity"
	"salesledger/internal/domain/registers/stock"
	"salesledger/pkg/logger"
)

// StaffResolver resolves the acting staff member.
type StaffResolver interface {
	Resolve(ctx context.Context, ref string) (identity.Resolution, error)
}

// ItemInput is a sale line as entered at the till. Empty snapshot fields
// are filled from the product catalog.
type ItemInput struct {
	ProductID    string
	Quantity     int
	AppliedPrice types.Money
	SaleType     SaleType
	IsOfferItem  bool

	Name     string
	Category string
	Price    *types.Money
	SKU      string
}

// ChequeDetail describes a cheque payment.
type ChequeDetail struct {
	Number string
	Bank   string
	Date   *time.Time
}

// BankTransferDetail describes a bank transfer.
type BankTransferDetail struct {
	Reference string
	Bank      string
	Date      *time.Time
}

// CreateInput is a sale as computed by the till. Totals are stored as given.
type CreateInput struct {
	// ID is optional; a UUIDv7 is generated when empty.
	ID    string
	Items []ItemInput

	SubTotal           types.Money
	DiscountPercentage types.Money
	DiscountAmount     types.Money
	TotalAmount        types.Money
	AmountPaid         types.Money
	OutstandingBalance types.Money

	CustomerID string
	VehicleID  string
	StaffRef   string

	CashPaid     *types.Money
	ChequePaid   *types.Money
	BankPaid     *types.Money
	Cheque       *ChequeDetail
	BankTransfer *BankTransferDetail

	CreditUsed  types.Money
	ChangeGiven types.Money
	SaleDate    *time.Time
}

// PaymentDetail is the optional detail block of a payment.
type PaymentDetail struct {
	ChequeNumber      string
	BankName          string
	TransferReference string
	Date              *time.Time
}

// PaymentInput is an additional payment against an existing sale.
type PaymentInput struct {
	Amount   types.Money
	Method   PaymentMethod
	Date     *time.Time
	Notes    string
	Detail   *PaymentDetail
	StaffRef string
}

// Service provides business operations for sales and payments.
type Service struct {
	sales     Repository
	payments  PaymentRepository
	pool      stock.StockPool
	resolver  StaffResolver
	numerator numerator.Generator
	txManager tx.Manager
	events    events.Publisher
	now       func() time.Time
	loc       *time.Location

	receiptRange int64
}

// NewService creates a new sale service.
func NewService(
	sales Repository,
	payments PaymentRepository,
	pool stock.StockPool,
	resolver StaffResolver,
	numerator numerator.Generator,
	txManager tx.Manager,
	publisher events.Publisher,
) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		sales:     sales,
		payments:  payments,
		pool:      pool,
		resolver:  resolver,
		numerator: numerator,
		txManager: txManager,
		events:    publisher,
		now:       time.Now,
		loc:       time.UTC,
	}
}

// WithLocation sets the zone whose calendar dates receipt numbers.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// WithReceiptRangeSize sets how many receipt numbers are reserved per
// numerator round trip. Zero keeps the numerator default.
func (s *Service) WithReceiptRangeSize(n int64) *Service {
	s.receiptRange = n
	return s
}

// CreateSale persists a sale and moves its stock out of the selling pool.
func (s *Service) CreateSale(ctx context.Context, in CreateInput) (*Sale, error) {
	doc := s.buildSale(in)
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		staff, err := s.resolver.Resolve(ctx, in.StaffRef)
		if err != nil {
			return err
		}
		doc.StaffID = staff.UserID

		pool := stock.PoolOf(doc.VehicleID)
		for i := range doc.Items {
			item := &doc.Items[i]
			res, err := s.pool.Adjust(ctx, stock.Adjustment{
				ProductID:   item.ProductID,
				Delta:       -item.Quantity,
				Pool:        pool,
				UserID:      staff.UserID,
				ReferenceID: doc.ID,
				Notes:       "sale " + doc.ID,
			})
			if err != nil {
				return err
			}
			fillSnapshot(item, in.Items[i], res)
		}

		if err := s.sales.Create(ctx, doc); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		return s.events.Publish(ctx, events.Event{
			AggregateType: "sale",
			AggregateID:   doc.ID,
			Type:          events.SaleCreated,
			Payload: map[string]any{
				"totalAmount":        doc.TotalAmount,
				"outstandingBalance": doc.OutstandingBalance,
				"vehicleId":          doc.VehicleID,
				"items":              len(doc.Items),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale created",
		"id", doc.ID,
		"total", doc.TotalAmount,
		"outstanding", doc.OutstandingBalance,
		"pool", stock.PoolOf(doc.VehicleID).String())

	doc.Payments = []Payment{}
	return doc, nil
}

func (s *Service) buildSale(in CreateInput) *Sale {
	now := s.now().UTC()
	doc := &Sale{
		ID:                 strings.TrimSpace(in.ID),
		SubTotal:           in.SubTotal,
		DiscountPercentage: in.DiscountPercentage,
		DiscountAmount:     in.DiscountAmount,
		TotalAmount:        in.TotalAmount,
		TotalAmountPaid:    in.AmountPaid,
		OutstandingBalance: in.OutstandingBalance,
		Status:             StatusActive,
		CustomerID:         optionalString(in.CustomerID),
		VehicleID:          optionalString(in.VehicleID),
		CreditUsed:         in.CreditUsed,
		ChangeGiven:        in.ChangeGiven,
		SaleDate:           now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if doc.ID == "" {
		doc.ID = id.NewString()
	}
	if in.SaleDate != nil {
		doc.SaleDate = in.SaleDate.UTC()
	}

	// Per-method amounts and their detail blocks are kept only when present.
	if types.OptionalPositive(in.CashPaid) {
		doc.CashPaid = in.CashPaid
	}
	if types.OptionalPositive(in.ChequePaid) {
		doc.ChequePaid = in.ChequePaid
		if in.Cheque != nil {
			doc.ChequeNumber = optionalString(in.Cheque.Number)
			doc.ChequeBank = optionalString(in.Cheque.Bank)
			doc.ChequeDate = in.Cheque.Date
		}
	}
	if types.OptionalPositive(in.BankPaid) {
		doc.BankPaid = in.BankPaid
		if in.BankTransfer != nil {
			doc.BankReference = optionalString(in.BankTransfer.Reference)
			doc.BankName = optionalString(in.BankTransfer.Bank)
			doc.BankTransferDate = in.BankTransfer.Date
		}
	}

	if doc.OutstandingBalance.IsPositive() {
		initial := doc.OutstandingBalance
		doc.InitialOutstandingBalance = &initial
	}

	doc.Items = make([]Item, 0, len(in.Items))
	for i, it := range in.Items {
		doc.Items = append(doc.Items, Item{
			ID:           id.New(),
			SaleID:       doc.ID,
			LineNo:       i + 1,
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			AppliedPrice: it.AppliedPrice,
			SaleType:     it.SaleType,
			Name:         it.Name,
			Category:     it.Category,
			SKU:          it.SKU,
			IsOfferItem:  it.IsOfferItem,
		})
	}

	doc.RefreshSummary(nil)
	return doc
}

func fillSnapshot(item *Item, in ItemInput, res *stock.AdjustResult) {
	if in.Price != nil {
		item.Price = *in.Price
	}
	if res == nil || res.Product == nil {
		return
	}
	p := res.Product
	if item.Name == "" {
		item.Name = p.Name
	}
	if item.Category == "" {
		item.Category = p.Category
	}
	if item.SKU == "" {
		item.SKU = p.SKU
	}
	if in.Price == nil {
		item.Price = p.Price
		if item.SaleType == SaleTypeWholesale {
			item.Price = p.WholesalePrice
		}
	}
}

// RecordPayment adds a payment to an active sale and returns the sale with
// its full payment history.
func (s *Service) RecordPayment(ctx context.Context, saleID string, in PaymentInput) (*Sale, error) {
	if saleID == "" {
		return nil, apperror.NewValidation("sale id is required")
	}
	if !in.Amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}
	switch in.Method {
	case MethodCash, MethodCheque, MethodBank:
	default:
		return nil, apperror.NewValidation("unsupported payment method").
			WithDetail("method", in.Method)
	}

	var doc *Sale
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		staff, err := s.resolver.Resolve(ctx, in.StaffRef)
		if err != nil {
			return err
		}

		doc, err = s.sales.GetForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if err := doc.EnsureActive(); err != nil {
			return err
		}

		history, err := s.payments.ListBySale(ctx, saleID)
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}

		p, err := s.newPayment(ctx, doc.ID, in.Amount, in.Method, staff.UserID, in.Date, in.Notes)
		if err != nil {
			return err
		}
		if d := in.Detail; d != nil {
			p.ChequeNumber = optionalString(d.ChequeNumber)
			p.BankName = optionalString(d.BankName)
			p.TransferReference = optionalString(d.TransferReference)
			p.DetailDate = d.Date
		}

		doc.ApplyPayment(p.Amount)
		history = append(history, *p)
		doc.RefreshSummary(history)
		doc.UpdatedAt = s.now().UTC()

		if err := s.payments.Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := s.sales.Update(ctx, doc); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}
		doc.Payments = history

		return s.events.Publish(ctx, events.Event{
			AggregateType: "sale",
			AggregateID:   doc.ID,
			Type:          events.PaymentRecorded,
			Payload:       p,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"sale_id", doc.ID,
		"amount", in.Amount,
		"method", in.Method,
		"outstanding", doc.OutstandingBalance)

	return doc, nil
}

// Settle applies return credit against the outstanding balance of a sale
// already locked by the caller's transaction. It inserts a credit from
// return payment and persists the new payment state.
func (s *Service) Settle(ctx context.Context, doc *Sale, amount types.Money, staffID, notes string) (*Payment, error) {
	if amount.GreaterThan(doc.OutstandingBalance) {
		return nil, apperror.NewSettlementExceedsOutstanding(doc.ID,
			types.FormatAmount(amount), types.FormatAmount(doc.OutstandingBalance))
	}

	history, err := s.payments.ListBySale(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	p, err := s.newPayment(ctx, doc.ID, amount, MethodCreditFromReturn, staffID, nil, notes)
	if err != nil {
		return nil, err
	}

	doc.Settle(amount)
	history = append(history, *p)
	doc.RefreshSummary(history)
	doc.UpdatedAt = s.now().UTC()

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	if err := s.sales.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update sale: %w", err)
	}
	doc.Payments = history
	return p, nil
}

func (s *Service) newPayment(ctx context.Context, saleID string, amount types.Money, method PaymentMethod, staffID string, date *time.Time, notes string) (*Payment, error) {
	now := s.now().UTC()
	receipt, err := s.numerator.GetNextNumber(ctx, numerator.ReceiptConfig(),
		&numerator.Options{Strategy: numerator.StrategyCached, RangeSize: s.receiptRange}, now.In(s.loc))
	if err != nil {
		return nil, fmt.Errorf("generate receipt number: %w", err)
	}

	p := &Payment{
		ID:          id.New(),
		SaleID:      saleID,
		ReceiptNo:   receipt,
		Amount:      amount,
		Method:      method,
		PaymentDate: now,
		StaffID:     staffID,
		Notes:       notes,
		CreatedAt:   now,
	}
	if date != nil {
		p.PaymentDate = date.UTC()
	}
	return p, nil
}

// GetSale returns a sale with items and payment history.
func (s *Service) GetSale(ctx context.Context, saleID string) (*Sale, error) {
	doc, err := s.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.ListBySale(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	doc.Payments = payments

	return doc, nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
