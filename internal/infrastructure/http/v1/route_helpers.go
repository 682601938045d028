package v1

import (
	"github.com/gin-gonic/gin"
)

// SaleRouteHandler defines the sale endpoints.
type SaleRouteHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	RecordPayment(c *gin.Context)
	Cancel(c *gin.Context)
}

// ReturnRouteHandler defines the nested return endpoint of a sale.
type ReturnRouteHandler interface {
	Process(c *gin.Context)
}

// AuditRouteHandler is an optional audit trail endpoint of a sale.
type AuditRouteHandler interface {
	SaleHistory(c *gin.Context)
}

// StockRouteHandler defines the stock ledger endpoints.
type StockRouteHandler interface {
	RecordMovement(c *gin.Context)
	History(c *gin.Context)
	VehicleBalance(c *gin.Context)
}

// RegisterSaleRoutes registers sale routes and the actions nested under a sale.
// The audit route is registered only when audit is non-nil.
//
// Usage:
//
//	RegisterSaleRoutes(api.Group("/sales"), saleHandler, returnHandler, auditHandler)
func RegisterSaleRoutes(group *gin.RouterGroup, sales SaleRouteHandler, rets ReturnRouteHandler, audit AuditRouteHandler) {
	group.POST("", sales.Create)
	group.GET("/:id", sales.Get)
	group.POST("/:id/payments", sales.RecordPayment)
	group.POST("/:id/returns", rets.Process)
	group.POST("/:id/cancel", sales.Cancel)

	if audit != nil {
		group.GET("/:id/audit", audit.SaleHistory)
	}
}

// RegisterStockRoutes registers stock movement and vehicle balance routes.
func RegisterStockRoutes(group *gin.RouterGroup, handler StockRouteHandler) {
	group.POST("/stock/movements", handler.RecordMovement)
	group.GET("/stock/movements", handler.History)
	group.GET("/vehicles/:vehicleId/stock/:productId", handler.VehicleBalance)
}
