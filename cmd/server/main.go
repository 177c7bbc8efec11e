package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	handlers "github.com/vihaglobalsystems-prog/selt-backend/internal/adapter/handler/http"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/config"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/infrastructure/database"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/infrastructure/email"
	grpcServer "github.com/vihaglobalsystems-prog/selt-backend/internal/infrastructure/grpc"
	httpServer "github.com/vihaglobalsystems-prog/selt-backend/internal/infrastructure/http"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/infrastructure/provider/stripe"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/usecase"
	"github.com/vihaglobalsystems-prog/selt-backend/pkg/logger"
	"github.com/vihaglobalsystems-prog/selt-backend/pkg/messaging"
)

const (
	startupTimeout  = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting billing service",
		zap.String("name", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment),
		zap.String("version", cfg.Service.Version))

	// Money amounts go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Initialize database connection
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	db, err := database.NewConnection(startupCtx, &cfg.Database, zapLogger)
	cancelStartup()
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)

	// External services
	processor := stripe.NewProcessor(stripe.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}, zapLogger)

	publisher, err := messaging.NewPublisher(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("Failed to initialize event publisher", zap.Error(err))
	}
	defer publisher.Close()

	transport, err := email.NewTransport(cfg.Email)
	if err != nil {
		zapLogger.Fatal("Failed to initialize email transport", zap.Error(err))
	}
	accountURL := strings.TrimRight(cfg.Service.ClientURL, "/") + "/account"
	notifier, err := email.NewDispatcher(transport, repos.EmailLog, accountURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize email dispatcher", zap.Error(err))
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := usecase.NewMetrics(registry)

	// Use cases
	webhookService := usecase.NewWebhookService(processor, repos, publisher, notifier, metrics, zapLogger)
	subscriptionService := usecase.NewSubscriptionService(processor, repos, publisher, notifier, zapLogger)
	refundService := usecase.NewRefundService(processor, repos, publisher, notifier, metrics, zapLogger)
	checkoutService := usecase.NewCheckoutService(processor, repos.User, usecase.CheckoutConfig{
		PriceID:   cfg.Stripe.PriceID,
		ClientURL: cfg.Service.ClientURL,
	}, zapLogger)
	reminderService := usecase.NewReminderService(repos, notifier, usecase.ReminderConfig{
		AmountMinor:   cfg.Email.ReminderAmountMinor,
		Currency:      cfg.Email.ReminderCurrency,
		RatePerSecond: cfg.Email.RatePerSecond,
	}, metrics, zapLogger)
	adminService := usecase.NewAdminService(cfg.Service, repos, zapLogger)
	syncService := usecase.NewSyncService(repos, zapLogger)

	// Initialize servers
	httpSrv := httpServer.NewServer(cfg, httpServer.Handlers{
		Webhook:      handlers.NewWebhookHandler(webhookService, zapLogger),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService, zapLogger),
		Refund:       handlers.NewRefundHandler(refundService, zapLogger),
		Checkout:     handlers.NewCheckoutHandler(checkoutService, zapLogger),
		Cron:         handlers.NewCronHandler(reminderService, zapLogger),
		Admin:        handlers.NewAdminHandler(adminService, subscriptionService, refundService, zapLogger),
		Sync:         handlers.NewSyncHandler(syncService, zapLogger),
		Health: handlers.NewHealthHandler(func(ctx context.Context) error {
			return database.Ping(ctx, db)
		}, zapLogger),
	}, registry, zapLogger)
	grpcSrv := grpcServer.NewServer(cfg, zapLogger)

	// Start servers
	go func() {
		if err := grpcSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start gRPC server", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down servers...")
	grpcSrv.SetServing(false)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	if err := grpcSrv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}

	zapLogger.Info("Servers shut down successfully")
}
