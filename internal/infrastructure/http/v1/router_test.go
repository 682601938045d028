package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesledger/internal/core/apperror"
	"salesledger/internal/core/numerator"
	"salesledger/internal/domain/cancellation"
	"salesledger/internal/domain/catalogs/product"
	"salesledger/internal/domain/credit"
	"salesledger/internal/domain/documents/returns"
	"salesledger/internal/domain/documents/sale"
	"salesledger/internal/domain/identity"
	"salesledger/internal/domain/registers/stock"
	v1 "salesledger/internal/infrastructure/http/v1"
	"salesledger/internal/infrastructure/storage/memory"
	"salesledger/internal/infrastructure/storage/postgres"
	"salesledger/pkg/logger"
)

type stubDatabase struct{ err error }

func (d stubDatabase) Ping(context.Context) error { return d.err }
func (d stubDatabase) Stats() postgres.PoolStats   { return postgres.PoolStats{MaxConns: 4} }

type apiFixture struct {
	store  *memory.Store
	router *gin.Engine
}

func newAPIFixture(t *testing.T, db stubDatabase) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memory.New()
	st.AddUser(identity.User{ID: "u-admin", Username: "admin", IsActive: true})
	st.AddUser(identity.User{ID: "u-sara", Username: "sara", DisplayName: "Sara", IsActive: true})
	st.AddProduct(product.Product{ID: "P", Name: "Biscuits", SKU: "BIS-1", Stock: 100})

	log, err := logger.New(logger.Config{Level: "error", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)

	ids := &numerator.MockGenerator{}
	txm := memory.NewTxManager(st)
	recorder := memory.NewAuditRecorder(st)
	publisher := memory.NewEventPublisher(st)
	pool := stock.NewPools(memory.NewProductRepo(st), memory.NewStockRepo(st))
	resolver := identity.NewResolver(memory.NewUserDirectory(st), "u-admin", recorder)
	saleRepo := memory.NewSaleRepo(st)
	payments := memory.NewPaymentRepo(st)
	returnRepo := memory.NewReturnRepo(st)

	sales := sale.NewService(saleRepo, payments, pool, resolver, ids, txm, publisher)
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		Database:     db,
		AppName:      "salesledger",
		Version:      "test",
		Sales:        sales,
		Returns:      returns.NewProcessor(saleRepo, sales, returnRepo, pool, resolver, ids, txm, recorder, publisher),
		Cancellation: cancellation.NewProcessor(saleRepo, payments, pool, resolver, txm, recorder, publisher),
		Credit:       credit.NewService(returnRepo, saleRepo),
		Stock:        stock.NewService(memory.NewProductRepo(st), memory.NewStockRepo(st), resolver, txm, publisher),
		Audit:        recorder,
		Idempotency:  memory.NewIdempotencyStore(),
	})
	return &apiFixture{store: st, router: router}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "sara")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (f *apiFixture) stockOf(t *testing.T, productID string) int {
	t.Helper()
	p, ok := f.store.Product(productID)
	require.True(t, ok)
	return p.Stock
}

func saleBody() map[string]any {
	return map[string]any{
		"id": "S1",
		"items": []map[string]any{
			{"productId": "P", "quantity": 10, "appliedPrice": "100", "saleType": "retail"},
		},
		"subTotal":           "1000",
		"totalAmount":        "1000",
		"amountPaid":         "400",
		"outstandingBalance": "600",
		"cashPaid":           "400",
		"customerId":         "c-1",
	}
}

func TestSales_CreateGetAndPay(t *testing.T) {
	f := newAPIFixture(t, stubDatabase{})

	w := f.do(t, http.MethodPost, "/api/v1/sales", saleBody(), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "S1", created["id"])
	assert.Equal(t, "u-sara", created["staffId"])
	assert.Equal(t, 90, f.stockOf(t, "P"))

	w = f.do(t, http.MethodPost, "/api/v1/sales/S1/payments", map[string]any{
		"amount": "200",
		"method": "cash",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	paid := decode(t, w)
	assert.Equal(t, "400", paid["outstandingBalance"])

	w = f.do(t, http.MethodGet, "/api/v1/sales/S1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Len(t, got["items"], 1)
	assert.NotEmpty(t, got["payments"])
	assert.Empty(t, got["returns"])
}

func TestSales_ValidationAndNotFound(t *testing.T) {
	f := newAPIFixture(t, stubDatabase{})

	w := f.do(t, http.MethodPost, "/api/v1/sales", map[string]any{"items": []any{}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperror.CodeValidation, decode(t, w)["code"])

	w = f.do(t, http.MethodGet, "/api/v1/sales/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, decode(t, w)["code"])

	w = f.do(t, http.MethodPost, "/api/v1/sales/S1/payments", map[string]any{"amount": "1", "method": "credit_from_return"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReturns_LimitAndLookup(t *testing.T) {
	f := newAPIFixture(t, stubDatabase{})
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/sales", saleBody(), nil).Code)

	w := f.do(t, http.MethodPost, "/api/v1/sales/S1/returns", map[string]any{
		"returnedItems": []map[string]any{
			{"productId": "P", "quantity": 11, "appliedPrice": "100", "saleType": "retail", "isResellable": true},
		},
	}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, apperror.CodeReturnQuantityExceeded, decode(t, w)["code"])
	assert.Equal(t, 90, f.stockOf(t, "P"))

	w = f.do(t, http.MethodPost, "/api/v1/sales/S1/returns", map[string]any{
		"returnedItems": []map[string]any{
			{"productId": "P", "quantity": 4, "appliedPrice": "100", "saleType": "retail", "isResellable": true},
		},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ret := decode(t, w)
	returnID, _ := ret["id"].(string)
	require.NotEmpty(t, returnID)
	assert.Equal(t, 94, f.stockOf(t, "P"))

	w = f.do(t, http.MethodGet, "/api/v1/returns/"+returnID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S1", decode(t, w)["originalSaleId"])

	w = f.do(t, http.MethodGet, "/api/v1/sales/S1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["returns"], 1)
}

func TestCancel_RestoresStockAndRejectsSecondCancel(t *testing.T) {
	f := newAPIFixture(t, stubDatabase{})
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/sales", saleBody(), nil).Code)

	w := f.do(t, http.MethodPost, "/api/v1/sales/S1/cancel", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/sales/S1/cancel", map[string]any{"reason": "wrong customer"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 100, f.stockOf(t, "P"))

	w = f.do(t, http.MethodPost, "/api/v1/sales/S1/cancel", map[string]any{"reason": "again"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperror.CodeSaleAlreadyCancelled, decode(t, w)["code"])

	w = f.do(t, http.MethodGet, "/api/v1/sales/S1/audit", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	audit := decode(t, w)
	assert.NotZero(t, audit["totalCount"])
}

func TestCredit_ReflectsUsage(t *testing.T) {
	f := newAPIFixture(t, stubDatabase{})
	body := saleBody()
	body["creditUsed"] = "50"
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/sales", body, nil).Code)

	w := f.do(t, http.MethodGet, "/api/v1/customers/c-1/credit", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "c-1", got["customerId"])
	assert.Equal(t, "-50", got["availableCredit"])
}

func TestIdempotency_ReplaysCreate(t *testing.T) {
	f := newAPIFixture(t, stubDatabase{})
	headers := map[string]string{"Idempotency-Key": "till-7-0001"}

	first := f.do(t, http.MethodPost, "/api/v1/sales", saleBody(), headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := f.do(t, http.MethodPost, "/api/v1/sales", saleBody(), headers)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 90, f.stockOf(t, "P"), "replay must not sell twice")

	changed := saleBody()
	changed["totalAmount"] = "999"
	w := f.do(t, http.MethodPost, "/api/v1/sales", changed, headers)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperror.CodeIdempotency, decode(t, w)["code"])
}

func TestStock_MovementsAndVehicleBalance(t *testing.T) {
	f := newAPIFixture(t, stubDatabase{})

	w := f.do(t, http.MethodPost, "/api/v1/stock/movements", map[string]any{
		"productId": "P",
		"type":      "LOAD_TO_VEHICLE",
		"quantity":  12,
		"vehicleId": "van-1",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 88, f.stockOf(t, "P"))

	w = f.do(t, http.MethodGet, "/api/v1/vehicles/van-1/stock/P", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 12, decode(t, w)["quantity"])

	w = f.do(t, http.MethodGet, "/api/v1/stock/movements?vehicleId=van-1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["totalCount"])

	w = f.do(t, http.MethodGet, "/api/v1/stock/movements?type=TELEPORT", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t, stubDatabase{})
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", nil, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/ready", nil, nil).Code)

	down := newAPIFixture(t, stubDatabase{err: errors.New("connection refused")})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(t, http.MethodGet, "/ready", nil, nil).Code)
}
