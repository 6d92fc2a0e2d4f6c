package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fictshop/payment-webhooks/internal/application/services"
	"github.com/fictshop/payment-webhooks/internal/config"
	"github.com/fictshop/payment-webhooks/internal/infrastructure/notifier"
	"github.com/fictshop/payment-webhooks/internal/infrastructure/persistence/postgres"
	"github.com/fictshop/payment-webhooks/internal/interfaces/rest/handlers"
	"github.com/fictshop/payment-webhooks/internal/interfaces/rest/middleware"
	"github.com/fictshop/payment-webhooks/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payment webhooks service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	orderRepo := postgres.NewOrderRepository(db)
	quoteRepo := postgres.NewQuoteRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	coordinator := postgres.NewTransactionCoordinator(db)

	mailNotifier := notifier.NewHTTPNotifier(cfg.Notifier)

	locator := services.NewOrderLocator(orderRepo)
	materializer := services.NewOrderMaterializer(orderRepo, quoteRepo, mailNotifier, logger)
	reconciler := services.NewPaymentReconciler(coordinator, logger)

	h := handlers.NewHandlers(
		locator,
		materializer,
		reconciler,
		auditRepo,
		cfg.Security,
		cfg.Shop,
		logger,
	)

	mux := http.NewServeMux()
	h.Register(mux)

	handler := middleware.Recovery(logger)(mux)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	auditPruner := worker.NewAuditPruner(
		auditRepo,
		cfg.Worker.Interval,
		cfg.Worker.AuditRetention,
		logger,
	)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go auditPruner.Start(workerCtx)

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
