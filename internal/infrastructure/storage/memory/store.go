// Package memory is an in-process implementation of the ledger repositories.
// It backs domain tests and local runs without PostgreSQL.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"salesledger/internal/core/tx"
	"salesledger/internal/domain/audit"
	"salesledger/internal/domain/catalogs/product"
	"salesledger/internal/domain/documents/returns"
	"salesledger/internal/domain/documents/sale"
	"salesledger/internal/domain/events"
	"salesledger/internal/domain/identity"
	"salesledger/internal/domain/registers/stock"
)

// Store holds all tables.
type Store struct {
	mu sync.RWMutex
	state
}

type state struct {
	users    map[string]identity.User
	products map[string]product.Product
	sales    map[string]sale.Sale
	items    map[string][]sale.Item
	payments []sale.Payment
	returns  map[string]returns.Transaction
	ledger   []stock.Transaction
	audit    []audit.Entry
	events   []events.Event
}

// New creates an empty store.
func New() *Store {
	return &Store{state: state{
		users:    make(map[string]identity.User),
		products: make(map[string]product.Product),
		sales:    make(map[string]sale.Sale),
		items:    make(map[string][]sale.Item),
		returns:  make(map[string]returns.Transaction),
	}}
}

func (st state) clone() state {
	c := state{
		users:    maps.Clone(st.users),
		products: maps.Clone(st.products),
		sales:    maps.Clone(st.sales),
		items:    make(map[string][]sale.Item, len(st.items)),
		payments: slices.Clone(st.payments),
		returns:  make(map[string]returns.Transaction, len(st.returns)),
		ledger:   slices.Clone(st.ledger),
		audit:    slices.Clone(st.audit),
		events:   slices.Clone(st.events),
	}
	for k, v := range st.items {
		c.items[k] = slices.Clone(v)
	}
	for k, v := range st.returns {
		v.Items = slices.Clone(v.Items)
		c.returns[k] = v
	}
	return c
}

// AddUser seeds a user.
func (s *Store) AddUser(u identity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// AddProduct seeds a product.
func (s *Store) AddProduct(p product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// Product returns a copy of a stored product.
func (s *Store) Product(productID string) (product.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[productID]
	return p, ok
}

// Ledger returns a copy of all stock ledger entries.
func (s *Store) Ledger() []stock.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ledger)
}

// Payments returns a copy of all payment rows.
func (s *Store) Payments() []sale.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.payments)
}

// AuditEntries returns a copy of the audit log.
func (s *Store) AuditEntries() []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.audit)
}

// Events returns a copy of published events.
func (s *Store) Events() []events.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

type txKey struct{}

// TxManager runs units of work against the store. Transactions are
// serialized, which stands in for row locks, and a failed unit restores
// the snapshot taken when it began.
type TxManager struct {
	store *Store
	txMu  sync.Mutex
}

var _ tx.Manager = (*TxManager)(nil)

// NewTxManager creates a transaction manager over the store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction implements tx.Manager. Nested calls join the outer unit.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.store.mu.RLock()
	snapshot := m.store.state.clone()
	m.store.mu.RUnlock()

	rollback := func() {
		m.store.mu.Lock()
		m.store.state = snapshot
		m.store.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		rollback()
	}
	return err
}
