// Package main is the entry point for the back-office API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gstorage "cloud.google.com/go/storage"

	"backoffice/internal/core/security"
	"backoffice/internal/domain/auth"
	"backoffice/internal/domain/files"
	"backoffice/internal/domain/grupos"
	"backoffice/internal/domain/ledger"
	"backoffice/internal/domain/receipts"
	"backoffice/internal/domain/services"
	v1 "backoffice/internal/infrastructure/http/v1"
	"backoffice/internal/infrastructure/storage/gcs"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting backoffice server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Audit trail ---
	auditTrail, err := postgres.NewAuditTrail(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit trail", "error", err)
	}

	// --- Object storage ---
	gcsClient, err := gstorage.NewClient(ctx)
	if err != nil {
		log.Fatalw("failed to create storage client", "error", err)
	}
	defer gcsClient.Close()
	objectStore := gcs.NewStore(gcsClient, mustEnv("GCS_BUCKET"))

	// --- Repositories ---
	userRepo := postgres.NewUserRepo(txManager)
	tokenRepo := postgres.NewTokenRepo(txManager)
	ledgerRepo := postgres.NewLedgerRepo(txManager)
	groupRepo := postgres.NewGroupRepo(txManager)
	paymentRepo := postgres.NewPaymentRepo(txManager)
	templateRepo := postgres.NewTemplateRepo(txManager)
	receiptRepo := postgres.NewReceiptRepo(txManager)
	serviceRepo := postgres.NewServiceRepo(txManager)
	configRepo := postgres.NewConfigRepo(txManager)
	fileRepo := postgres.NewFileRepo(txManager)

	// --- JWT and auth ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))
	authService := auth.NewService(userRepo, tokenRepo, jwtService, auth.DefaultServiceConfig())

	// --- Policy flags ---
	policyFlags, err := buildPolicyFlags()
	if err != nil {
		log.Fatalw("failed to compile policy rules", "error", err)
	}

	// --- Domain services ---
	ledgerService := ledger.NewService(ledgerRepo, txManager, auditTrail)
	receiptService := receipts.NewService(receiptRepo, txManager)
	planService := grupos.NewPlanService(groupRepo, paymentRepo, templateRepo, txManager)
	collectService := grupos.NewCollectService(groupRepo, paymentRepo, receiptService, ledgerService, txManager)
	summaryService := services.NewSummaryService(serviceRepo, configRepo)
	fileService := files.NewService(fileRepo, objectStore, configRepo)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		JWTValidator:   jwtService,
		PolicyFlags:    policyFlags,
		AuthService:    authService,
		LedgerService:  ledgerService,
		PlanService:    planService,
		CollectService: collectService,
		SummaryService: summaryService,
		ReceiptService: receiptService,
		FileService:    fileService,
	})

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// buildPolicyFlags compiles the per-agency policy rules from environment
// variables, e.g. POLICY_VENDEDOR_CAN_COLLECT='role == "vendedor"'.
func buildPolicyFlags() (security.PolicyFlags, error) {
	policy, err := security.NewCELPolicy(security.NewStaticFlags())
	if err != nil {
		return nil, err
	}
	rules := map[string]string{
		security.FlagVendedorCanCollect: os.Getenv("POLICY_VENDEDOR_CAN_COLLECT"),
		security.FlagLiderCanPlan:       os.Getenv("POLICY_LIDER_CAN_PLAN"),
	}
	for flag, expr := range rules {
		if expr == "" {
			continue
		}
		if err := policy.SetRule(flag, expr); err != nil {
			return nil, err
		}
	}
	return policy, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
