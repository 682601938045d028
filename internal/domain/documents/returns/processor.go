package returns

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
	"salesledger/internal/domain/audit"
	"salesledger/internal/domain/documents/sale"
	"salesledger/internal/domain/events"
	"salesledger/internal/domain/identity"
	"salesledger/internal/domain/registers/stock"
	"salesledger/pkg/logger"
)

// StaffResolver resolves the acting staff member.
type StaffResolver interface {
	Resolve(ctx context.Context, ref string) (identity.Resolution, error)
}

// Settler applies return credit to a locked sale.
type Settler interface {
	Settle(ctx context.Context, doc *sale.Sale, amount types.Money, staffID, notes string) (*sale.Payment, error)
}

// Processor handles returns and exchanges as one atomic unit.
type Processor struct {
	sales     sale.Repository
	settler   Settler
	returns   Repository
	pool      stock.StockPool
	resolver  StaffResolver
	numerator numerator.Generator
	txManager tx.Manager
	audit     audit.Recorder
	events    events.Publisher
	now       func() time.Time
	loc       *time.Location
}

// NewProcessor creates a return processor.
func NewProcessor(
	sales sale.Repository,
	settler Settler,
	returns Repository,
	pool stock.StockPool,
	resolver StaffResolver,
	numerator numerator.Generator,
	txManager tx.Manager,
	recorder audit.Recorder,
	publisher events.Publisher,
) *Processor {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Processor{
		sales:     sales,
		settler:   settler,
		returns:   returns,
		pool:      pool,
		resolver:  resolver,
		numerator: numerator,
		txManager: txManager,
		audit:     recorder,
		events:    publisher,
		now:       time.Now,
		loc:       time.UTC,
	}
}

// WithLocation sets the zone whose calendar day dates return ids.
func (p *Processor) WithLocation(loc *time.Location) *Processor {
	if loc != nil {
		p.loc = loc
	}
	return p
}

// ProcessReturn records a return/exchange against a sale. Any failure rolls
// back every stock and financial effect.
func (p *Processor) ProcessReturn(ctx context.Context, req Request) (*Transaction, error) {
	req.normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := p.now().UTC()

	// Drawn before the transaction: a rolled back return leaves a gap.
	returnID, err := p.numerator.GetNextNumber(ctx, numerator.ReturnConfig(), numerator.DefaultOptions(), now.In(p.loc))
	if err != nil {
		return nil, fmt.Errorf("generate return id: %w", err)
	}

	var doc *Transaction
	err = p.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		staff, err := p.resolver.Resolve(ctx, req.StaffRef)
		if err != nil {
			return err
		}

		original, err := p.sales.GetForUpdate(ctx, req.SaleID)
		if err != nil {
			return err
		}
		if err := original.EnsureActive(); err != nil {
			return err
		}

		prior, err := p.returns.ListBySale(ctx, original.ID)
		if err != nil {
			return fmt.Errorf("list prior returns: %w", err)
		}

		doc = newTransaction(returnID, original.ID, staff.UserID, now, req)
		// Refunds are credited to the sale's customer unless the request names one.
		if doc.CustomerID == nil && original.CustomerID != nil {
			customerID := *original.CustomerID
			doc.CustomerID = &customerID
		}

		if types.OptionalPositive(req.SettleAmount) {
			if _, err := p.settler.Settle(ctx, original, *req.SettleAmount, staff.UserID,
				"settled from return "+returnID); err != nil {
				return err
			}
		}

		pool := stock.PoolOf(doc.VehicleID)
		for _, it := range req.Exchanged {
			res, err := p.pool.Adjust(ctx, stock.Adjustment{
				ProductID:   it.ProductID,
				Delta:       -it.Quantity,
				Pool:        pool,
				UserID:      staff.UserID,
				ReferenceID: returnID,
				Notes:       "exchange " + returnID,
			})
			if err != nil {
				return err
			}
			doc.addLine(it, LineExchanged, res)
		}

		// Accumulates prior returns and earlier lines of this request.
		returned := returnedQuantities(prior)
		for _, it := range req.Returned {
			sold, ok := original.SoldQuantity(it.ProductID, it.SaleType)
			if !ok {
				return apperror.NewNotFound("sale item", it.ProductID).
					WithDetail("sale_id", original.ID).
					WithDetail("sale_type", it.SaleType)
			}

			key := lineKey{productID: it.ProductID, saleType: it.SaleType}
			already := returned[key]
			if already+it.Quantity > sold {
				return apperror.NewReturnQuantityExceeded(it.ProductID, string(it.SaleType), sold, already, it.Quantity)
			}
			returned[key] = already + it.Quantity
			it = withSaleSnapshot(it, original)

			var res *stock.AdjustResult
			if it.IsResellable {
				res, err = p.pool.Adjust(ctx, stock.Adjustment{
					ProductID:   it.ProductID,
					Delta:       it.Quantity,
					Pool:        pool,
					UserID:      staff.UserID,
					ReferenceID: returnID,
					Notes:       "return " + returnID,
				})
				if err != nil {
					return err
				}
			}

			if err := p.bumpReturnedQuantity(ctx, original, it); err != nil {
				return err
			}
			doc.addLine(it, LineReturned, res)
		}

		if err := p.returns.Create(ctx, doc); err != nil {
			return fmt.Errorf("create return: %w", err)
		}

		if err := p.audit.Record(ctx, audit.Entry{
			EntityType: "sale",
			EntityID:   original.ID,
			Action:     audit.ActionReturnProcessed,
			UserID:     staff.UserID,
			Changes: map[string]any{
				"return_id":   returnID,
				"returned":    len(req.Returned),
				"exchanged":   len(req.Exchanged),
				"outstanding": original.OutstandingBalance,
			},
		}); err != nil {
			return err
		}

		return p.events.Publish(ctx, events.Event{
			AggregateType: "return",
			AggregateID:   returnID,
			Type:          events.ReturnProcessed,
			Payload:       doc,
		})
	})
	if err != nil {
		logger.Warn(ctx, "return rejected",
			"return_id", returnID,
			"sale_id", req.SaleID,
			"error", err)
		return nil, err
	}

	logger.Info(ctx, "return processed",
		"id", doc.ID,
		"sale_id", doc.OriginalSaleID,
		"items", len(doc.Items),
		"pool", stock.PoolOf(doc.VehicleID).String())

	return doc, nil
}

// bumpReturnedQuantity spreads qty over the matching sale lines.
func (p *Processor) bumpReturnedQuantity(ctx context.Context, original *sale.Sale, it ItemRequest) error {
	remaining := it.Quantity
	var last *sale.Item
	for i := range original.Items {
		item := &original.Items[i]
		if item.ProductID != it.ProductID || item.SaleType != it.SaleType {
			continue
		}
		last = item
		room := item.Quantity - item.ReturnedQuantity
		if room <= 0 || remaining == 0 {
			continue
		}
		n := min(room, remaining)
		if err := p.sales.IncrementReturnedQuantity(ctx, item.ID, n); err != nil {
			return fmt.Errorf("increment returned quantity: %w", err)
		}
		item.ReturnedQuantity += n
		remaining -= n
	}

	// Counters may lag behind documents written before they existed.
	if remaining > 0 && last != nil {
		if err := p.sales.IncrementReturnedQuantity(ctx, last.ID, remaining); err != nil {
			return fmt.Errorf("increment returned quantity: %w", err)
		}
		last.ReturnedQuantity += remaining
	}
	return nil
}

// GetReturn returns a return document with items.
func (p *Processor) GetReturn(ctx context.Context, returnID string) (*Transaction, error) {
	if strings.TrimSpace(returnID) == "" {
		return nil, apperror.NewValidation("return id is required")
	}
	return p.returns.GetByID(ctx, returnID)
}

// ListBySale returns all returns of a sale.
func (p *Processor) ListBySale(ctx context.Context, saleID string) ([]Transaction, error) {
	return p.returns.ListBySale(ctx, saleID)
}

type lineKey struct {
	productID string
	saleType  sale.SaleType
}

func returnedQuantities(prior []Transaction) map[lineKey]int {
	out := make(map[lineKey]int)
	for _, t := range prior {
		for _, it := range t.Items {
			if it.LineType == LineReturned {
				out[lineKey{productID: it.ProductID, saleType: it.SaleType}] += it.Quantity
			}
		}
	}
	return out
}

func newTransaction(returnID, saleID, staffID string, now time.Time, req Request) *Transaction {
	doc := &Transaction{
		ID:             returnID,
		OriginalSaleID: saleID,
		ReturnDate:     now,
		StaffID:        staffID,
		VehicleID:      optionalString(req.VehicleID),
		Notes:          strings.TrimSpace(req.Notes),
		CreatedAt:      now,
		Items:          make([]Item, 0, len(req.Returned)+len(req.Exchanged)),
	}

	if c := req.Customer; c != nil {
		doc.CustomerID = optionalString(c.ID)
		doc.CustomerName = optionalString(c.Name)
		doc.CustomerPhone = optionalString(c.Phone)
	}

	doc.SettledAmount = positiveOrNil(req.SettleAmount)
	doc.RefundAmount = positiveOrNil(req.RefundAmount)
	doc.CashPaidOut = positiveOrNil(req.CashPaidOut)

	if pay := req.Payment; pay != nil && pay.Amount.IsPositive() {
		amount := pay.Amount
		doc.PaymentCollected = &amount
		doc.PaymentMethod = optionalString(string(pay.Method))
		doc.ChequeNumber = optionalString(pay.ChequeNumber)
		doc.BankName = optionalString(pay.BankName)
		doc.TransferReference = optionalString(pay.TransferReference)
		doc.PaymentDate = pay.Date
	}
	return doc
}

func (t *Transaction) addLine(it ItemRequest, lineType LineType, res *stock.AdjustResult) {
	item := Item{
		ID:           id.New(),
		ReturnID:     t.ID,
		LineNo:       len(t.Items) + 1,
		ProductID:    it.ProductID,
		Quantity:     it.Quantity,
		AppliedPrice: it.AppliedPrice,
		SaleType:     it.SaleType,
		LineType:     lineType,
		IsResellable: lineType == LineReturned && it.IsResellable,
		Name:         it.Name,
		SKU:          it.SKU,
		Category:     it.Category,
	}
	if res != nil && res.Product != nil {
		if item.Name == "" {
			item.Name = res.Product.Name
		}
		if item.SKU == "" {
			item.SKU = res.Product.SKU
		}
		if item.Category == "" {
			item.Category = res.Product.Category
		}
	}
	t.Items = append(t.Items, item)
}

// withSaleSnapshot fills missing product fields from the sold line.
func withSaleSnapshot(it ItemRequest, original *sale.Sale) ItemRequest {
	for _, item := range original.Items {
		if item.ProductID != it.ProductID || item.SaleType != it.SaleType {
			continue
		}
		if it.Name == "" {
			it.Name = item.Name
		}
		if it.SKU == "" {
			it.SKU = item.SKU
		}
		if it.Category == "" {
			it.Category = item.Category
		}
		break
	}
	return it
}

func positiveOrNil(m *types.Money) *types.Money {
	if !types.OptionalPositive(m) {
		return nil
	}
	v := *m
	return &v
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
