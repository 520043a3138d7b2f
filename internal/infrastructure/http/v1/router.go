// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"backoffice/internal/core/security"
	"backoffice/internal/domain/auth"
	"backoffice/internal/domain/files"
	"backoffice/internal/domain/grupos"
	"backoffice/internal/domain/ledger"
	"backoffice/internal/domain/receipts"
	"backoffice/internal/domain/services"
	"backoffice/internal/infrastructure/http/v1/handlers"
	"backoffice/internal/infrastructure/http/v1/middleware"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/logger"
)

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	// Pool is the database pool, used by readiness checks.
	Pool *postgres.Pool

	// Logger for request logging.
	Logger *logger.Logger

	// JWTValidator for token validation.
	JWTValidator middleware.JWTValidator

	// PolicyFlags grants per-agency capability overrides. May be nil.
	PolicyFlags security.PolicyFlags

	AuthService    *auth.Service
	LedgerService  *ledger.Service
	PlanService    *grupos.PlanService
	CollectService *grupos.CollectService
	SummaryService *services.SummaryService
	ReceiptService *receipts.Service
	FileService    *files.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()

	api := router.Group("/api/v1")
	{
		// Auth: public login/refresh, protected logout/me
		authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
		publicAuth := api.Group("/auth")
		protectedAuth := api.Group("/auth")
		protectedAuth.Use(middleware.Auth(cfg.JWTValidator))
		authHandler.RegisterRoutes(publicAuth, protectedAuth)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerLedgerRoutes(protected, base, cfg)
		registerGroupRoutes(protected, base, cfg)
		registerBookingRoutes(protected, base, cfg)
		registerFileRoutes(protected, base, cfg)
	}

	return router
}

func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewLedgerHandler(base, cfg.LedgerService)

	read := middleware.RequireAction(security.ActionLedgerRead, cfg.PolicyFlags)
	write := middleware.RequireAction(security.ActionLedgerWrite, cfg.PolicyFlags)
	remove := middleware.RequireAction(security.ActionLedgerDelete, cfg.PolicyFlags)

	accounts := rg.Group("/credit/accounts")
	{
		accounts.POST("", write, handler.CreateAccount)
		accounts.GET("/:id", read, handler.GetAccount)
		accounts.POST("/:id/entries", write, handler.CreateEntry)
		accounts.GET("/:id/entries", read, handler.ListEntries)
	}

	entries := rg.Group("/credit/entry")
	{
		entries.GET("/:id", read, handler.GetEntry)
		entries.PUT("/:id", write, handler.UpdateEntry)
		entries.DELETE("/:id", remove, handler.DeleteEntry)
	}
}

func registerGroupRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewGruposHandler(base, cfg.PlanService, cfg.CollectService)

	groups := rg.Group("/groups")
	{
		groups.POST("/:id/bulk/payment-plans",
			middleware.RequireAction(security.ActionPlanGenerate, cfg.PolicyFlags),
			handler.GeneratePlans)
		groups.POST("/:id/bulk/collect",
			middleware.RequireAction(security.ActionCollect, cfg.PolicyFlags),
			handler.Collect)
	}
}

func registerBookingRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	earnings := handlers.NewEarningsHandler(base, cfg.SummaryService)
	receiptHandler := handlers.NewReceiptsHandler(base, cfg.ReceiptService)

	earningsRead := middleware.RequireAction(security.ActionEarningsRead, cfg.PolicyFlags)

	bookings := rg.Group("/bookings")
	{
		bookings.GET("/:id/earnings", earningsRead, earnings.Earnings)
		bookings.GET("/:id/receipts", earningsRead, receiptHandler.ListByBooking)
	}

	config := rg.Group("/config")
	{
		config.GET("/fees", earningsRead, earnings.GetFees)
		config.PUT("/fees",
			middleware.RequireAction(security.ActionLedgerWrite, cfg.PolicyFlags),
			earnings.SaveFees)
	}

	receiptGroup := rg.Group("/receipts")
	{
		receiptGroup.GET("/:id", earningsRead, receiptHandler.Get)
		receiptGroup.DELETE("/:id",
			middleware.RequireAction(security.ActionCollect, cfg.PolicyFlags),
			receiptHandler.Delete)
	}
}

func registerFileRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	handler := handlers.NewFilesHandler(base, cfg.FileService)

	read := middleware.RequireAction(security.ActionFilesRead, cfg.PolicyFlags)
	write := middleware.RequireAction(security.ActionFilesWrite, cfg.PolicyFlags)

	filesGroup := rg.Group("/files")
	{
		filesGroup.POST("/sign", write, handler.Sign)
		filesGroup.POST("/complete", write, handler.Complete)
		filesGroup.GET("/:id", read, handler.Get)
		filesGroup.DELETE("/:id", write, handler.Delete)
	}
}
