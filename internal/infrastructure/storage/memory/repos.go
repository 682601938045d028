package memory

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"strings"
	"time"

	"salesledger/internal/core/apperror"
	appctx "salesledger/internal/core/context"
	"salesledger/internal/core/id"
	"salesledger/internal/core/types"
	"salesledger/internal/domain/audit"
	"salesledger/internal/domain/catalogs/product"
	"salesledger/internal/domain/documents/returns"
	"salesledger/internal/domain/documents/sale"
	"salesledger/internal/domain/events"
	"salesledger/internal/domain/identity"
	"salesledger/internal/domain/registers/stock"
	"salesledger/internal/infrastructure/storage/postgres"
)

var (
	_ identity.Directory      = (*UserDirectory)(nil)
	_ product.Repository      = (*ProductRepo)(nil)
	_ stock.Repository        = (*StockRepo)(nil)
	_ sale.Repository         = (*SaleRepo)(nil)
	_ sale.PaymentRepository  = (*PaymentRepo)(nil)
	_ returns.Repository      = (*ReturnRepo)(nil)
	_ audit.Recorder          = (*AuditRecorder)(nil)
	_ events.Publisher        = (*EventPublisher)(nil)
)

// --- users ---

// UserDirectory implements identity.Directory.
type UserDirectory struct{ s *Store }

func NewUserDirectory(s *Store) *UserDirectory { return &UserDirectory{s: s} }

func (r *UserDirectory) GetByID(_ context.Context, userID string) (*identity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	return &u, nil
}

func (r *UserDirectory) FindByName(_ context.Context, name string) (*identity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := make([]string, 0, len(r.s.users))
	for k := range r.s.users {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	for _, k := range ids {
		u := r.s.users[k]
		if strings.EqualFold(u.Username, name) || strings.EqualFold(u.DisplayName, name) {
			return &u, nil
		}
	}
	return nil, apperror.NewNotFound("user", name)
}

// --- products ---

// ProductRepo implements product.Repository.
type ProductRepo struct{ s *Store }

func NewProductRepo(s *Store) *ProductRepo { return &ProductRepo{s: s} }

func (r *ProductRepo) GetByID(_ context.Context, productID string) (*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	return &p, nil
}

func (r *ProductRepo) AdjustStock(_ context.Context, productID string, delta int) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	p.Stock += delta
	p.UpdatedAt = time.Now().UTC()
	r.s.products[productID] = p
	return &p, nil
}

// --- stock ledger ---

// StockRepo implements stock.Repository.
type StockRepo struct{ s *Store }

func NewStockRepo(s *Store) *StockRepo { return &StockRepo{s: s} }

func (r *StockRepo) Append(_ context.Context, entries []stock.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.ledger = append(r.s.ledger, entries...)
	return nil
}

func (r *StockRepo) VehicleBalance(_ context.Context, vehicleID, productID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := 0
	for _, e := range r.s.ledger {
		if e.ProductID == productID && e.VehicleID != nil && *e.VehicleID == vehicleID {
			total += e.VehicleEffect()
		}
	}
	return total, nil
}

func (r *StockRepo) List(_ context.Context, f stock.Filter) ([]stock.Transaction, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []stock.Transaction
	for _, e := range r.s.ledger {
		if f.ProductID != "" && e.ProductID != f.ProductID {
			continue
		}
		if f.VehicleID != "" && (e.VehicleID == nil || *e.VehicleID != f.VehicleID) {
			continue
		}
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.From != nil && e.TransactionDate.Before(*f.From) {
			continue
		}
		if f.To != nil && !e.TransactionDate.Before(*f.To) {
			continue
		}
		matched = append(matched, e)
	}

	// Newest first; ids are time ordered.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ID.String() > matched[j].ID.String()
	})

	total := len(matched)
	start := min(f.Offset, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return slices.Clone(matched[start:end]), total, nil
}

// --- sales ---

// SaleRepo implements sale.Repository.
type SaleRepo struct{ s *Store }

func NewSaleRepo(s *Store) *SaleRepo { return &SaleRepo{s: s} }

func (r *SaleRepo) Create(_ context.Context, doc *sale.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.sales[doc.ID]; exists {
		return apperror.NewDuplicate("sale", "id", doc.ID)
	}
	header := *doc
	header.Items, header.Payments = nil, nil
	r.s.sales[doc.ID] = header
	r.s.items[doc.ID] = slices.Clone(doc.Items)
	return nil
}

func (r *SaleRepo) GetByID(_ context.Context, saleID string) (*sale.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	doc, ok := r.s.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	doc.Items = slices.Clone(r.s.items[saleID])
	return &doc, nil
}

// GetForUpdate relies on TxManager serializing units of work.
func (r *SaleRepo) GetForUpdate(ctx context.Context, saleID string) (*sale.Sale, error) {
	return r.GetByID(ctx, saleID)
}

func (r *SaleRepo) Update(_ context.Context, doc *sale.Sale) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.sales[doc.ID]
	if !ok {
		return apperror.NewNotFound("sale", doc.ID)
	}
	stored.TotalAmountPaid = doc.TotalAmountPaid
	stored.OutstandingBalance = doc.OutstandingBalance
	stored.PaymentSummary = doc.PaymentSummary
	stored.Status = doc.Status
	stored.CancellationReason = doc.CancellationReason
	stored.CreditUsed = doc.CreditUsed
	stored.UpdatedAt = doc.UpdatedAt
	r.s.sales[doc.ID] = stored
	return nil
}

func (r *SaleRepo) IncrementReturnedQuantity(_ context.Context, itemID id.ID, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for saleID, items := range r.s.items {
		for i := range items {
			if items[i].ID == itemID {
				items[i].ReturnedQuantity += qty
				r.s.items[saleID] = items
				return nil
			}
		}
	}
	return apperror.NewNotFound("sale item", itemID)
}

func (r *SaleRepo) SumCreditUsed(_ context.Context, customerID string) (types.Money, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := types.Zero()
	for _, doc := range r.s.sales {
		if doc.CustomerID != nil && *doc.CustomerID == customerID {
			total = total.Add(doc.CreditUsed)
		}
	}
	return total, nil
}

// --- payments ---

// PaymentRepo implements sale.PaymentRepository.
type PaymentRepo struct{ s *Store }

func NewPaymentRepo(s *Store) *PaymentRepo { return &PaymentRepo{s: s} }

func (r *PaymentRepo) Create(_ context.Context, p *sale.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.payments = append(r.s.payments, *p)
	return nil
}

func (r *PaymentRepo) ListBySale(_ context.Context, saleID string) ([]sale.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []sale.Payment{}
	for _, p := range r.s.payments {
		if p.SaleID == saleID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PaymentRepo) DeleteBySale(_ context.Context, saleID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	before := len(r.s.payments)
	r.s.payments = slices.DeleteFunc(r.s.payments, func(p sale.Payment) bool {
		return p.SaleID == saleID
	})
	return int64(before - len(r.s.payments)), nil
}

// --- returns ---

// ReturnRepo implements returns.Repository.
type ReturnRepo struct{ s *Store }

func NewReturnRepo(s *Store) *ReturnRepo { return &ReturnRepo{s: s} }

func (r *ReturnRepo) Create(_ context.Context, t *returns.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.returns[t.ID]; exists {
		return apperror.NewDuplicate("return", "id", t.ID)
	}
	doc := *t
	doc.Items = slices.Clone(t.Items)
	r.s.returns[t.ID] = doc
	return nil
}

func (r *ReturnRepo) GetByID(_ context.Context, returnID string) (*returns.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	doc, ok := r.s.returns[returnID]
	if !ok {
		return nil, apperror.NewNotFound("return", returnID)
	}
	doc.Items = slices.Clone(doc.Items)
	return &doc, nil
}

func (r *ReturnRepo) ListBySale(_ context.Context, saleID string) ([]returns.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []returns.Transaction{}
	for _, doc := range r.s.returns {
		if doc.OriginalSaleID == saleID {
			doc.Items = slices.Clone(doc.Items)
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ReturnRepo) SumRefundsByCustomer(_ context.Context, customerID string) (types.Money, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	total := types.Zero()
	for _, doc := range r.s.returns {
		if doc.CustomerID != nil && *doc.CustomerID == customerID {
			total = total.Add(types.Deref(doc.RefundAmount))
		}
	}
	return total, nil
}

// --- audit and events ---

// AuditRecorder appends to the store's audit log.
type AuditRecorder struct{ s *Store }

func NewAuditRecorder(s *Store) *AuditRecorder { return &AuditRecorder{s: s} }

func (r *AuditRecorder) Record(ctx context.Context, e audit.Entry) error {
	if e.UserID == "" {
		e.UserID = appctx.GetUserID(ctx)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, e)
	return nil
}

// History mirrors postgres.AuditService.History, newest first.
func (r *AuditRecorder) History(_ context.Context, entityType, entityID string, limit int) ([]postgres.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []postgres.AuditEntry{}
	for i := len(r.s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.s.audit[i]
		if e.EntityType != entityType || e.EntityID != entityID {
			continue
		}
		changes, err := json.Marshal(e.Changes)
		if err != nil {
			return nil, err
		}
		out = append(out, postgres.AuditEntry{
			ID:         id.New(),
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Action:     e.Action,
			UserID:     e.UserID,
			Changes:    changes,
			CreatedAt:  time.Now().UTC(),
		})
	}
	return out, nil
}

// EventPublisher appends to the store's event list.
type EventPublisher struct{ s *Store }

func NewEventPublisher(s *Store) *EventPublisher { return &EventPublisher{s: s} }

func (p *EventPublisher) Publish(_ context.Context, e events.Event) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	p.s.events = append(p.s.events, e)
	return nil
}
