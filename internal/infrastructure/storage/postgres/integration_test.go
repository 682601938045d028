//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"salesledger/internal/core/apperror"
	corenumerator "salesledger/internal/core/numerator"
	"salesledger/internal/core/types"
	"salesledger/internal/domain/cancellation"
	"salesledger/internal/domain/credit"
	"salesledger/internal/domain/documents/returns"
	"salesledger/internal/domain/documents/sale"
	"salesledger/internal/domain/identity"
	"salesledger/internal/domain/registers/stock"
	"salesledger/internal/infrastructure/migration"
	"salesledger/internal/infrastructure/numerator"
	"salesledger/internal/infrastructure/storage/postgres"
	"salesledger/internal/infrastructure/storage/postgres/auth_repo"
	"salesledger/internal/infrastructure/storage/postgres/catalog_repo"
	"salesledger/internal/infrastructure/storage/postgres/document_repo"
	"salesledger/internal/infrastructure/storage/postgres/register_repo"
	"salesledger/pkg/logger"
)

type ledgerDB struct {
	pool  *postgres.Pool
	txm   *postgres.TxManager
	audit *postgres.AuditService

	sales     *sale.Service
	returns   *returns.Processor
	canceller *cancellation.Processor
	credit    *credit.Service
	stock     *stock.Service
	products  *catalog_repo.ProductRepo
}

func newLedgerDB(t *testing.T) *ledgerDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("sales_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migration.NewFromURL(dsn, logger.Default())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	cfg := postgres.DefaultPoolConfig(dsn)
	cfg.MaxConns = 8
	cfg.StatementTimeout = 10 * time.Second
	pool, err := postgres.NewPool(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, username, display_name) VALUES
			('u-admin', 'admin', 'Administrator'),
			('u-sara', 'sara', 'Sara');
		INSERT INTO products (id, name, sku, price, stock) VALUES
			('P', 'Biscuits', 'BIS-1', 100, 100),
			('Q', 'Juice', 'JUI-1', 60, 30);
	`)
	require.NoError(t, err)

	txm := postgres.NewTxManager(pool)
	auditService, err := postgres.NewAuditService(txm, 64)
	require.NoError(t, err)
	outbox := postgres.NewOutboxPublisher(txm)
	numbers := numerator.New(pool)

	products := catalog_repo.NewProductRepo(txm)
	ledger := register_repo.NewStockRepo(txm)
	saleRepo := document_repo.NewSaleRepo(txm)
	payments := document_repo.NewPaymentRepo(txm)
	returnRepo := document_repo.NewReturnRepo(txm)

	resolver := identity.NewResolver(auth_repo.NewUserRepo(txm), "u-admin", auditService)
	stockPool := stock.NewPools(products, ledger)
	sales := sale.NewService(saleRepo, payments, stockPool, resolver, numbers, txm, outbox).WithReceiptRangeSize(10)

	return &ledgerDB{
		pool:      pool,
		txm:       txm,
		audit:     auditService,
		sales:     sales,
		returns:   returns.NewProcessor(saleRepo, sales, returnRepo, stockPool, resolver, numbers, txm, auditService, outbox),
		canceller: cancellation.NewProcessor(saleRepo, payments, stockPool, resolver, txm, auditService, outbox),
		credit:    credit.NewService(returnRepo, saleRepo),
		stock:     stock.NewService(products, ledger, resolver, txm, outbox),
		products:  products,
	}
}

func (db *ledgerDB) stockOf(t *testing.T, productID string) int {
	t.Helper()
	p, err := db.products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func (db *ledgerDB) createSale(t *testing.T, saleID, vehicleID string, qty int) *sale.Sale {
	t.Helper()
	cash := types.MustMoney("200")
	doc, err := db.sales.CreateSale(context.Background(), sale.CreateInput{
		ID: saleID,
		Items: []sale.ItemInput{
			{ProductID: "P", Quantity: qty, AppliedPrice: types.MustMoney("100"), SaleType: sale.SaleTypeRetail},
		},
		SubTotal:           types.NewMoneyFromInt(int64(qty) * 100),
		TotalAmount:        types.NewMoneyFromInt(int64(qty) * 100),
		AmountPaid:         cash,
		OutstandingBalance: types.NewMoneyFromInt(int64(qty)*100 - 200),
		CashPaid:           &cash,
		CreditUsed:         types.MustMoney("25"),
		CustomerID:         "c-1",
		StaffRef:           "Sara",
		VehicleID:          vehicleID,
	})
	require.NoError(t, err)
	return doc
}

func TestIntegration_SaleLifecycle(t *testing.T) {
	db := newLedgerDB(t)
	ctx := context.Background()

	doc := db.createSale(t, "S1", "", 10)
	assert.Equal(t, "u-sara", doc.StaffID)
	assert.Equal(t, 90, db.stockOf(t, "P"))

	doc, err := db.sales.RecordPayment(ctx, "S1", sale.PaymentInput{
		Amount:   types.MustMoney("300"),
		Method:   sale.MethodCheque,
		StaffRef: "sara",
		Detail:   &sale.PaymentDetail{ChequeNumber: "000123", BankName: "City Bank"},
	})
	require.NoError(t, err)
	assert.True(t, doc.OutstandingBalance.Equal(types.MustMoney("500")))
	require.NotEmpty(t, doc.Payments)
	assert.Regexp(t, `^RCP-\d{4}-\d{6}$`, doc.Payments[len(doc.Payments)-1].ReceiptNo)

	// Returning more than was sold rolls back completely.
	_, err = db.returns.ProcessReturn(ctx, returns.Request{
		SaleID:   "S1",
		StaffRef: "sara",
		Returned: []returns.ItemRequest{{ProductID: "P", Quantity: 11, SaleType: sale.SaleTypeRetail, IsResellable: true}},
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeReturnQuantityExceeded))
	assert.Equal(t, 90, db.stockOf(t, "P"))

	refund := types.MustMoney("100")
	ret, err := db.returns.ProcessReturn(ctx, returns.Request{
		SaleID:       "S1",
		StaffRef:     "sara",
		Returned:     []returns.ItemRequest{{ProductID: "P", Quantity: 3, AppliedPrice: types.MustMoney("100"), SaleType: sale.SaleTypeRetail, IsResellable: true}},
		Exchanged:    []returns.ItemRequest{{ProductID: "Q", Quantity: 2, AppliedPrice: types.MustMoney("60"), SaleType: sale.SaleTypeRetail}},
		RefundAmount: &refund,
	})
	require.NoError(t, err)
	assert.Regexp(t, `^RET-\d{6}-\d{4}$`, ret.ID)
	assert.Equal(t, 93, db.stockOf(t, "P"))
	assert.Equal(t, 28, db.stockOf(t, "Q"))

	stored, err := db.returns.GetReturn(ctx, ret.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)

	available, err := db.credit.AvailableCredit(ctx, "c-1")
	require.NoError(t, err)
	assert.True(t, available.Equal(types.MustMoney("75")), available.String())

	// Cancellation restores the originally sold quantity, not the net of returns.
	require.NoError(t, db.canceller.CancelSale(ctx, "S1", "customer changed mind"))
	assert.Equal(t, 103, db.stockOf(t, "P"))

	err = db.canceller.CancelSale(ctx, "S1", "again")
	assert.True(t, apperror.HasCode(err, apperror.CodeSaleAlreadyCancelled))

	cancelled, err := db.sales.GetSale(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, sale.StatusCancelled, cancelled.Status)
	assert.Empty(t, cancelled.Payments)

	history, err := db.audit.History(ctx, "sale", "S1", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, history)
}

func TestIntegration_ReturnNumbersAreSequentialUnderConcurrency(t *testing.T) {
	db := newLedgerDB(t)
	ctx := context.Background()
	numbers := numerator.New(db.pool)
	now := time.Now()

	const workers = 20
	got := make(chan string, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := numbers.GetNextNumber(ctx, corenumerator.ReturnConfig(), corenumerator.DefaultOptions(), now)
			assert.NoError(t, err)
			got <- n
		}()
	}
	wg.Wait()
	close(got)

	seen := make(map[string]bool, workers)
	for n := range got {
		assert.False(t, seen[n], "duplicate %s", n)
		seen[n] = true
	}
	for i := 1; i <= workers; i++ {
		assert.True(t, seen[corenumerator.ReturnConfig().Format(now, int64(i))], "missing counter %d", i)
	}
}

func TestIntegration_VehicleStockAndHistory(t *testing.T) {
	db := newLedgerDB(t)
	ctx := context.Background()

	for _, in := range []stock.MovementInput{
		{ProductID: "P", Type: stock.TypeLoadToVehicle, Quantity: 20, VehicleID: "van-1", UserRef: "sara"},
		{ProductID: "P", Type: stock.TypeIssueSample, Quantity: 2, VehicleID: "van-1", UserRef: "sara"},
		{ProductID: "P", Type: stock.TypeUnloadFromVehicle, Quantity: 5, VehicleID: "van-1", UserRef: "sara"},
	} {
		_, err := db.stock.RecordMovement(ctx, in)
		require.NoError(t, err)
	}
	assert.Equal(t, 85, db.stockOf(t, "P"))

	db.createSale(t, "V1", "van-1", 4)
	assert.Equal(t, 85, db.stockOf(t, "P"), "vehicle sales leave the warehouse alone")

	qty, err := db.stock.VehicleBalance(ctx, "van-1", "P")
	require.NoError(t, err)
	assert.Equal(t, 9, qty)

	_, err = db.stock.RecordMovement(ctx, stock.MovementInput{
		ProductID: "missing", Type: stock.TypeLoadToVehicle, Quantity: 1, VehicleID: "van-1", UserRef: "sara",
	})
	assert.True(t, apperror.IsNotFound(err))

	page, err := db.stock.History(ctx, stock.Filter{VehicleID: "van-1", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.GreaterOrEqual(t, page.TotalCount, 4)
}

func TestIntegration_OutboxAndIdempotency(t *testing.T) {
	db := newLedgerDB(t)
	ctx := context.Background()
	db.createSale(t, "S9", "", 1)

	relay := postgres.NewOutboxRelay(db.txm, 50, postgres.LogHandler{})
	processed, err := relay.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Positive(t, processed)

	again, err := relay.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)

	store := postgres.NewIdempotencyStore(db.txm, time.Hour)
	replay, err := store.AcquireKey(ctx, "k-1", "u-sara", "POST /api/v1/sales", "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)

	_, err = store.AcquireKey(ctx, "k-1", "u-sara", "POST /api/v1/sales", "h1")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))

	require.NoError(t, store.CompleteKey(ctx, "k-1", 201, "application/json", map[string]string{"id": "S9"}))
	replay, err = store.AcquireKey(ctx, "k-1", "u-sara", "POST /api/v1/sales", "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, 201, replay.StatusCode)
	assert.JSONEq(t, `{"id":"S9"}`, string(replay.Body))

	_, err = store.AcquireKey(ctx, "k-1", "u-sara", "POST /api/v1/sales", "other")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))
}
