package stock

import (
	"context"
	"fmt"
	"time"

	"salesledger/internal/core/apperror"
	"salesledger/internal/core/id"
	"salesledger/internal/core/tx"
	"salesledger/internal/domain/catalogs/product"
	"salesledger/internal/domain/events"
	"salesledger/internal/domain/identity"
	"salesledger/pkg/logger"
)

// StaffResolver resolves the acting staff member.
type StaffResolver interface {
	Resolve(ctx context.Context, ref string) (identity.Resolution, error)
}

// MovementInput is a manual ledger operation.
type MovementInput struct {
	ProductID string
	Type      TransactionType
	// Quantity is positive, except for manual adjustments where it is signed.
	Quantity      int
	VehicleID     string
	UserRef       string
	StartOdometer *int
	EndOdometer   *int
	Notes         string
}

// Service records manual stock movements and answers balance queries.
type Service struct {
	products product.Repository
	ledger   Repository
	resolver StaffResolver
	txm      tx.Manager
	events   events.Publisher
	now      func() time.Time
}

// NewService creates a new stock ledger service.
func NewService(products product.Repository, ledger Repository, resolver StaffResolver, txm tx.Manager, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		products: products,
		ledger:   ledger,
		resolver: resolver,
		txm:      txm,
		events:   publisher,
		now:      time.Now,
	}
}

func (in MovementInput) validate() error {
	if in.ProductID == "" {
		return apperror.NewValidation("product id is required")
	}
	if !in.Type.IsValid() {
		return apperror.NewValidation("unknown stock transaction type").WithDetail("type", in.Type)
	}
	if in.Type == TypeStockAdjustmentManual {
		if in.Quantity == 0 {
			return apperror.NewValidation("adjustment quantity must be non-zero")
		}
	} else if in.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").WithDetail("quantity", in.Quantity)
	}

	switch in.Type {
	case TypeLoadToVehicle, TypeUnloadFromVehicle:
		if in.VehicleID == "" {
			return apperror.NewValidation("vehicle id is required").WithDetail("type", in.Type)
		}
	case TypeAddStockInventory:
		if in.VehicleID != "" {
			return apperror.NewValidation("inventory additions go to the warehouse only")
		}
	}

	if in.StartOdometer != nil && in.EndOdometer != nil && *in.EndOdometer < *in.StartOdometer {
		return apperror.NewValidation("end odometer is below start odometer")
	}
	return nil
}

// warehouseDelta is the change a movement makes to warehouse stock.
func (in MovementInput) warehouseDelta() int {
	switch in.Type {
	case TypeAddStockInventory, TypeUnloadFromVehicle:
		return in.Quantity
	case TypeLoadToVehicle:
		return -in.Quantity
	case TypeIssueSample, TypeRemoveStockWastage:
		if in.VehicleID == "" {
			return -in.Quantity
		}
	case TypeStockAdjustmentManual:
		if in.VehicleID == "" {
			return in.Quantity
		}
	}
	return 0
}

// RecordMovement appends a manual movement and applies its warehouse effect
// in one transaction. Loading moves stock from the warehouse to the vehicle;
// unloading moves it back.
func (s *Service) RecordMovement(ctx context.Context, in MovementInput) (*Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	entry, err := tx.Run(ctx, s.txm, func(ctx context.Context) (Transaction, error) {
		var entry Transaction
		staff, err := s.resolver.Resolve(ctx, in.UserRef)
		if err != nil {
			return entry, err
		}

		now := s.now().UTC()
		entry = Transaction{
			ID:              id.New(),
			ProductID:       in.ProductID,
			Type:            in.Type,
			Quantity:        in.Quantity,
			TransactionDate: now,
			UserID:          staff.UserID,
			StartOdometer:   in.StartOdometer,
			EndOdometer:     in.EndOdometer,
			Notes:           in.Notes,
			CreatedAt:       now,
		}
		if in.VehicleID != "" {
			vehicleID := in.VehicleID
			entry.VehicleID = &vehicleID
		}

		if delta := in.warehouseDelta(); delta != 0 {
			prod, err := s.products.AdjustStock(ctx, in.ProductID, delta)
			if err != nil {
				return entry, err
			}
			previous, current := prod.Stock-delta, prod.Stock
			entry.PreviousStock = &previous
			entry.NewStock = &current
		} else if _, err := s.products.GetByID(ctx, in.ProductID); err != nil {
			return entry, err
		}

		if err := s.ledger.Append(ctx, []Transaction{entry}); err != nil {
			return entry, fmt.Errorf("append stock transaction: %w", err)
		}

		return entry, s.events.Publish(ctx, events.Event{
			AggregateType: "product",
			AggregateID:   in.ProductID,
			Type:          events.StockMoved,
			Payload:       entry,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "recorded stock movement",
		"product_id", entry.ProductID,
		"type", entry.Type,
		"quantity", entry.Quantity,
		"vehicle_id", in.VehicleID,
	)
	return &entry, nil
}

// VehicleBalance returns the derived quantity of a product on a vehicle.
func (s *Service) VehicleBalance(ctx context.Context, vehicleID, productID string) (int, error) {
	if vehicleID == "" || productID == "" {
		return 0, apperror.NewValidation("vehicle id and product id are required")
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return 0, err
	}
	return s.ledger.VehicleBalance(ctx, vehicleID, productID)
}

// History lists ledger entries.
func (s *Service) History(ctx context.Context, filter Filter) (*Page, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, apperror.NewValidation("unknown stock transaction type").WithDetail("type", filter.Type)
	}

	items, total, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, TotalCount: total}, nil
}
