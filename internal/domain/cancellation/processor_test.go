package cancellation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesledger/internal/core/apperror"
	"salesledger/internal/core/numerator"
	"salesledger/internal/core/types"
	"salesledger/internal/domain/audit"
	"salesledger/internal/domain/cancellation"
	"salesledger/internal/domain/catalogs/product"
	"salesledger/internal/domain/documents/sale"
	"salesledger/internal/domain/identity"
	"salesledger/internal/domain/registers/stock"
	"salesledger/internal/infrastructure/storage/memory"
)

type fixture struct {
	store     *memory.Store
	sales     *sale.Service
	processor *cancellation.Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	st.AddUser(identity.User{ID: "u-admin", Username: "admin", IsActive: true})
	st.AddUser(identity.User{ID: "u-dev", Username: "dev", IsActive: true})
	st.AddProduct(product.Product{ID: "p-1", Name: "Milk", Stock: 10})
	st.AddProduct(product.Product{ID: "p-2", Name: "Bread", Stock: 10})

	txm := memory.NewTxManager(st)
	pool := stock.NewPools(memory.NewProductRepo(st), memory.NewStockRepo(st))
	resolver := identity.NewResolver(memory.NewUserDirectory(st), "u-admin", memory.NewAuditRecorder(st))
	saleRepo := memory.NewSaleRepo(st)
	payments := memory.NewPaymentRepo(st)

	sales := sale.NewService(saleRepo, payments, pool, resolver, &numerator.MockGenerator{}, txm, nil)
	processor := cancellation.NewProcessor(saleRepo, payments, pool, resolver, txm,
		memory.NewAuditRecorder(st), memory.NewEventPublisher(st))
	return &fixture{store: st, sales: sales, processor: processor}
}

func (f *fixture) seed(t *testing.T, vehicleID string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.sales.CreateSale(ctx, sale.CreateInput{
		ID: "S1",
		Items: []sale.ItemInput{
			{ProductID: "p-1", Quantity: 3, SaleType: sale.SaleTypeRetail},
			{ProductID: "p-2", Quantity: 2, SaleType: sale.SaleTypeWholesale},
		},
		TotalAmount:        types.MustMoney("500"),
		OutstandingBalance: types.MustMoney("500"),
		CreditUsed:         types.MustMoney("50"),
		StaffRef:           "dev",
		VehicleID:          vehicleID,
	})
	require.NoError(t, err)

	_, err = f.sales.RecordPayment(ctx, "S1", sale.PaymentInput{Amount: types.MustMoney("100"), Method: sale.MethodCash, StaffRef: "dev"})
	require.NoError(t, err)
}

func (f *fixture) stockOf(id string) int {
	p, _ := f.store.Product(id)
	return p.Stock
}

func TestCancelSale_WarehouseRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "")
	require.Equal(t, 7, f.stockOf("p-1"))

	require.NoError(t, f.processor.CancelSale(ctx, "S1", "wrong customer"))

	assert.Equal(t, 10, f.stockOf("p-1"))
	assert.Equal(t, 10, f.stockOf("p-2"))
	assert.Empty(t, f.store.Ledger())
	assert.Empty(t, f.store.Payments())

	doc, err := f.sales.GetSale(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, sale.StatusCancelled, doc.Status)
	assert.Equal(t, sale.SummaryCancelled, doc.PaymentSummary)
	assert.True(t, doc.OutstandingBalance.IsZero())
	assert.True(t, doc.TotalAmountPaid.IsZero())
	assert.True(t, doc.CreditUsed.IsZero())
	assert.Equal(t, "wrong customer", *doc.CancellationReason)

	var found bool
	for _, e := range f.store.AuditEntries() {
		if e.Action == audit.ActionSaleCancelled {
			found = true
			assert.Equal(t, "u-dev", e.UserID)
		}
	}
	assert.True(t, found)
}

func TestCancelSale_VehicleLogsLoadPerItem(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "van-9")

	require.NoError(t, f.processor.CancelSale(context.Background(), "S1", "returned to depot"))

	assert.Equal(t, 10, f.stockOf("p-1"), "warehouse untouched")

	var loads []stock.Transaction
	for _, e := range f.store.Ledger() {
		if e.Type == stock.TypeLoadToVehicle {
			loads = append(loads, e)
		}
	}
	require.Len(t, loads, 2)
	assert.Equal(t, 3, loads[0].Quantity)
	assert.Equal(t, 2, loads[1].Quantity)
	assert.Equal(t, "S1", *loads[0].ReferenceID)
}

func TestCancelSale_AuditUserFallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The staff account was removed after the sale was written.
	require.NoError(t, memory.NewSaleRepo(f.store).Create(ctx, &sale.Sale{
		ID:      "S2",
		StaffID: "u-gone",
		Status:  sale.StatusActive,
	}))

	require.NoError(t, f.processor.CancelSale(ctx, "S2", "test"))

	var got []string
	for _, e := range f.store.AuditEntries() {
		got = append(got, string(e.Action)+":"+e.UserID)
	}
	assert.Contains(t, got, "identity_fallback:u-admin")
	assert.Contains(t, got, "sale_cancelled:u-admin")
}

func TestCancelSale_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "")

	err := f.processor.CancelSale(ctx, "S1", "  ")
	assert.True(t, apperror.IsValidation(err))

	err = f.processor.CancelSale(ctx, "S404", "gone")
	assert.True(t, apperror.IsNotFound(err))

	require.NoError(t, f.processor.CancelSale(ctx, "S1", "first"))
	err = f.processor.CancelSale(ctx, "S1", "second")
	assert.True(t, apperror.HasCode(err, apperror.CodeSaleAlreadyCancelled))

	doc, err := f.sales.GetSale(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "first", *doc.CancellationReason)
	assert.Equal(t, 10, f.stockOf("p-1"), "stock restored once")
}
