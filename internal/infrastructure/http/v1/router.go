// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"salesledger/internal/domain/cancellation"
	"salesledger/internal/domain/credit"
	"salesledger/internal/domain/documents/returns"
	"salesledger/internal/domain/documents/sale"
	"salesledger/internal/domain/registers/stock"
	"salesledger/internal/infrastructure/http/v1/handlers"
	"salesledger/internal/infrastructure/http/v1/middleware"
	"salesledger/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Database backs the readiness probe
	Database handlers.Database

	// AppName and Version are reported by /health/info
	AppName string
	Version string

	Sales        *sale.Service
	Returns      *returns.Processor
	Cancellation *cancellation.Processor
	Credit       *credit.Service
	Stock        *stock.Service
	Audit        handlers.AuditHistory

	// Idempotency enables replay of mutating requests when set
	Idempotency middleware.IdempotencyStore

	// Development switches Gin to debug mode
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (order matters!). ErrorHandler wraps Recovery so
	// that a recovered panic still gets a JSON body.
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.Database, cfg.AppName, cfg.Version)
	router.GET("/health", healthHandler.Live)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/health/info", healthHandler.Info)

	api := router.Group("/api/v1")
	api.Use(middleware.UserContext())
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	returnHandler := handlers.NewReturnHandler(base, cfg.Returns)

	var auditHandler AuditRouteHandler
	if cfg.Audit != nil {
		auditHandler = handlers.NewAuditHandler(base, cfg.Audit)
	}

	RegisterSaleRoutes(api.Group("/sales"),
		handlers.NewSaleHandler(base, cfg.Sales, cfg.Returns, cfg.Cancellation),
		returnHandler,
		auditHandler,
	)
	api.GET("/returns/:id", returnHandler.Get)
	api.GET("/customers/:id/credit", handlers.NewCreditHandler(base, cfg.Credit).Get)
	RegisterStockRoutes(api, handlers.NewStockHandler(base, cfg.Stock))

	return router
}
