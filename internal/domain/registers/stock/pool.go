package stock

import (
	"context"
	"time"

	"salesledger/internal/core/apperror"
	"salesledger/internal/core/id"
	"salesledger/internal/domain/catalogs/product"
	"salesledger/pkg/logger"
)

// PoolRef identifies a stock pool: the warehouse, or one vehicle.
type PoolRef struct {
	VehicleID string
}

// Warehouse is the central warehouse pool.
func Warehouse() PoolRef { return PoolRef{} }

// Vehicle is the pool carried by one vehicle.
func Vehicle(vehicleID string) PoolRef { return PoolRef{VehicleID: vehicleID} }

// PoolOf maps an optional vehicle id to its pool; absent means warehouse.
func PoolOf(vehicleID *string) PoolRef {
	if vehicleID == nil || *vehicleID == "" {
		return Warehouse()
	}
	return Vehicle(*vehicleID)
}

// IsVehicle reports whether the pool is a vehicle.
func (p PoolRef) IsVehicle() bool { return p.VehicleID != "" }

func (p PoolRef) String() string {
	if p.IsVehicle() {
		return "vehicle:" + p.VehicleID
	}
	return "warehouse"
}

// Adjustment is a signed change of a product's quantity in one pool.
type Adjustment struct {
	ProductID   string
	Delta       int
	Pool        PoolRef
	UserID      string
	ReferenceID string
	Notes       string
}

// AdjustResult describes what an adjustment touched.
type AdjustResult struct {
	// Product as stored after the adjustment (warehouse) or as looked up (vehicle).
	Product *product.Product
	// Entry is the ledger entry written for vehicle pools; nil for the warehouse.
	Entry *Transaction
}

// StockPool adjusts quantities without callers branching on pool type.
type StockPool interface {
	Adjust(ctx context.Context, adj Adjustment) (*AdjustResult, error)
}

// Pools routes adjustments to the warehouse counter or the vehicle ledger.
type Pools struct {
	products product.Repository
	ledger   Repository
	now      func() time.Time
}

var _ StockPool = (*Pools)(nil)

// NewPools creates the pool router.
func NewPools(products product.Repository, ledger Repository) *Pools {
	return &Pools{products: products, ledger: ledger, now: time.Now}
}

// Adjust applies adj. Warehouse pools mutate product stock directly; vehicle
// pools append a LOAD_TO_VEHICLE (delta > 0) or UNLOAD_FROM_VEHICLE (delta < 0)
// entry and leave the warehouse untouched. A missing product fails either way.
func (p *Pools) Adjust(ctx context.Context, adj Adjustment) (*AdjustResult, error) {
	if adj.ProductID == "" {
		return nil, apperror.NewValidation("product id is required")
	}
	if adj.Delta == 0 {
		return nil, apperror.NewValidation("stock adjustment must be non-zero").
			WithDetail("product_id", adj.ProductID)
	}

	if adj.Pool.IsVehicle() {
		return p.adjustVehicle(ctx, adj)
	}
	return p.adjustWarehouse(ctx, adj)
}

func (p *Pools) adjustWarehouse(ctx context.Context, adj Adjustment) (*AdjustResult, error) {
	prod, err := p.products.AdjustStock(ctx, adj.ProductID, adj.Delta)
	if err != nil {
		return nil, err
	}

	if adj.Delta < 0 && prod.BelowReorderLevel() {
		logger.Warn(ctx, "warehouse stock at or below reorder level",
			"product_id", prod.ID, "stock", prod.Stock, "reorder_level", prod.ReorderLevel)
	}
	return &AdjustResult{Product: prod}, nil
}

func (p *Pools) adjustVehicle(ctx context.Context, adj Adjustment) (*AdjustResult, error) {
	prod, err := p.products.GetByID(ctx, adj.ProductID)
	if err != nil {
		return nil, err
	}

	txType := TypeLoadToVehicle
	qty := adj.Delta
	if adj.Delta < 0 {
		txType = TypeUnloadFromVehicle
		qty = -adj.Delta
	}

	now := p.now().UTC()
	vehicleID := adj.Pool.VehicleID
	entry := Transaction{
		ID:              id.New(),
		ProductID:       adj.ProductID,
		Type:            txType,
		Quantity:        qty,
		TransactionDate: now,
		VehicleID:       &vehicleID,
		UserID:          adj.UserID,
		Notes:           adj.Notes,
		CreatedAt:       now,
	}
	if adj.ReferenceID != "" {
		ref := adj.ReferenceID
		entry.ReferenceID = &ref
	}

	if err := p.ledger.Append(ctx, []Transaction{entry}); err != nil {
		return nil, err
	}
	return &AdjustResult{Product: prod, Entry: &entry}, nil
}
