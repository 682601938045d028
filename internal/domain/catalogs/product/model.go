// Package product exposes the slice of the product catalog the ledger needs:
// lookup and warehouse stock mutation. Catalog CRUD lives elsewhere.
package product

import (
	"time"

	"salesledger/internal/core/types"
)

// Product is a catalog item. Stock is the warehouse pool only; vehicle
// quantities are derived from the stock ledger.
type Product struct {
	ID             string      `db:"id" json:"id"`
	Name           string      `db:"name" json:"name"`
	SKU            string      `db:"sku" json:"sku"`
	Category       string      `db:"category" json:"category"`
	Price          types.Money `db:"price" json:"price"`
	WholesalePrice types.Money `db:"wholesale_price" json:"wholesalePrice"`
	Stock          int         `db:"stock" json:"stock"`
	ReorderLevel   int         `db:"reorder_level" json:"reorderLevel"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}

// BelowReorderLevel reports whether warehouse stock needs replenishing.
func (p *Product) BelowReorderLevel() bool {
	return p.ReorderLevel > 0 && p.Stock <= p.ReorderLevel
}
