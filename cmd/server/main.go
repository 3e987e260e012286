package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/debitflow/sdd-reconciler/internal/adapters/postgres"
	"github.com/debitflow/sdd-reconciler/internal/config"
	cronHandler "github.com/debitflow/sdd-reconciler/internal/handlers/cron"
	webhookHandler "github.com/debitflow/sdd-reconciler/internal/handlers/webhook"
	"github.com/debitflow/sdd-reconciler/internal/services/reconcile"
	"github.com/debitflow/sdd-reconciler/internal/signature"
	"github.com/debitflow/sdd-reconciler/pkg/middleware"
	"github.com/debitflow/sdd-reconciler/pkg/observability"
)

func main() {
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting SDD reconciler",
		zap.String("version", "0.1.0"),
	)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Resolve the gateway shared secret and the cron secret. Inline env values
	// win; otherwise they come from the configured secret source.
	gatewaySecret, err := resolveGatewaySecret(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to resolve gateway shared secret", zap.Error(err))
	}
	if cfg.Cron.Secret == "" {
		logger.Warn("CRON_SECRET is not set; the replay endpoint will reject all requests")
	}

	// Initialize persistence
	storeCfg := postgres.DefaultConfig(cfg.Database.ConnectionString())
	storeCfg.MaxConns = cfg.Database.MaxConns
	storeCfg.MinConns = cfg.Database.MinConns

	store, err := postgres.NewBillingAttemptStore(ctx, storeCfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize billing attempt store", zap.Error(err))
	}
	defer store.Close()

	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	// Wire the reconciliation core and handlers
	verifier := signature.NewVerifier(gatewaySecret)
	reconciler := reconcile.NewService(store, logger)

	webhookHdlr := webhookHandler.NewHandler(verifier, reconciler, logger)
	replayHdlr := cronHandler.NewChargebackReplayHandler(reconciler, logger, cfg.Cron.Secret)

	// Rate limit webhook deliveries per source IP (10 rps, burst of 20)
	rateLimiter := middleware.NewRateLimiter(10, 20, logger)
	defer rateLimiter.Shutdown()

	mux := http.NewServeMux()
	mux.HandleFunc("/webhooks/gateway", rateLimiter.HandlerFunc(webhookHdlr.HandleNotification))
	mux.HandleFunc("/cron/replay-chargebacks", replayHdlr.ReplayChargebacks)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Metrics and health on a separate port
	healthChecker := observability.NewHealthChecker(store.Pool())
	metricsServer := observability.StartMetricsServer(
		fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker, logger)
	logger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	go func() {
		logger.Info("HTTP server listening",
			zap.String("address", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("Metrics server shutdown error", zap.Error(err))
	}

	logger.Info("Servers stopped")
}

// initLogger initializes the logger
func initLogger() *zap.Logger {
	env := os.Getenv("ENVIRONMENT")

	if env == "production" {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		logger, _ := zapCfg.Build()
		return logger
	}

	logger, _ := zap.NewDevelopment()
	return logger
}
