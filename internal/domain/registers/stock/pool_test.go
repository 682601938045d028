package stock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesledger/internal/core/apperror"
	"salesledger/internal/domain/catalogs/product"
	"salesledger/internal/domain/registers/stock"
	"salesledger/internal/infrastructure/storage/memory"
)

func newPools(t *testing.T) (*stock.Pools, *memory.Store) {
	t.Helper()
	st := memory.New()
	st.AddProduct(product.Product{ID: "p-tea", Name: "Tea 100g", SKU: "TEA-100", Stock: 20, ReorderLevel: 5})
	return stock.NewPools(memory.NewProductRepo(st), memory.NewStockRepo(st)), st
}

func TestPoolOf(t *testing.T) {
	empty := ""
	van := "van-1"

	assert.False(t, stock.PoolOf(nil).IsVehicle())
	assert.False(t, stock.PoolOf(&empty).IsVehicle())
	assert.Equal(t, stock.Vehicle("van-1"), stock.PoolOf(&van))
	assert.Equal(t, "vehicle:van-1", stock.PoolOf(&van).String())
	assert.Equal(t, "warehouse", stock.Warehouse().String())
}

func TestPools_WarehouseAdjustsProductStock(t *testing.T) {
	pools, st := newPools(t)
	ctx := context.Background()

	res, err := pools.Adjust(ctx, stock.Adjustment{ProductID: "p-tea", Delta: -18, Pool: stock.Warehouse()})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Product.Stock)
	assert.Nil(t, res.Entry)

	p, _ := st.Product("p-tea")
	assert.Equal(t, 2, p.Stock)
	assert.Empty(t, st.Ledger(), "warehouse adjustments write no ledger entry")
}

func TestPools_VehicleAppendsLedgerEntry(t *testing.T) {
	pools, st := newPools(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		delta    int
		wantType stock.TransactionType
		wantQty  int
	}{
		{"positive loads", 4, stock.TypeLoadToVehicle, 4},
		{"negative unloads", -3, stock.TypeUnloadFromVehicle, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := pools.Adjust(ctx, stock.Adjustment{
				ProductID:   "p-tea",
				Delta:       tt.delta,
				Pool:        stock.Vehicle("van-1"),
				UserID:      "u-1",
				ReferenceID: "sale-1",
			})
			require.NoError(t, err)
			require.NotNil(t, res.Entry)
			assert.Equal(t, tt.wantType, res.Entry.Type)
			assert.Equal(t, tt.wantQty, res.Entry.Quantity)
			assert.Equal(t, "van-1", *res.Entry.VehicleID)
			assert.Equal(t, "sale-1", *res.Entry.ReferenceID)
			assert.Nil(t, res.Entry.PreviousStock)
			assert.Nil(t, res.Entry.NewStock)
		})
	}

	p, _ := st.Product("p-tea")
	assert.Equal(t, 20, p.Stock, "vehicle adjustments leave the warehouse untouched")

	balance, err := memory.NewStockRepo(st).VehicleBalance(ctx, "van-1", "p-tea")
	require.NoError(t, err)
	assert.Equal(t, 1, balance)
}

func TestPools_Errors(t *testing.T) {
	pools, _ := newPools(t)
	ctx := context.Background()

	_, err := pools.Adjust(ctx, stock.Adjustment{ProductID: "p-tea", Delta: 0})
	assert.True(t, apperror.IsValidation(err))

	for _, pool := range []stock.PoolRef{stock.Warehouse(), stock.Vehicle("van-1")} {
		_, err := pools.Adjust(ctx, stock.Adjustment{ProductID: "missing", Delta: 1, Pool: pool})
		assert.True(t, apperror.IsNotFound(err), pool.String())
	}
}
