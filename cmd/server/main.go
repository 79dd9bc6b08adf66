package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/eshiroflex/pkg/account"
	"github.com/example/eshiroflex/pkg/cart"
	"github.com/example/eshiroflex/pkg/catalog"
	"github.com/example/eshiroflex/pkg/config"
	"github.com/example/eshiroflex/pkg/discovery"
	"github.com/example/eshiroflex/pkg/notify"
	"github.com/example/eshiroflex/pkg/order"
	"github.com/example/eshiroflex/pkg/payment"
	"github.com/example/eshiroflex/pkg/repository"
	"github.com/example/eshiroflex/pkg/server"
	"github.com/example/eshiroflex/pkg/wishlist"
)

func main() {
	// Load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := buildLogger(&cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting storefront",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	ctx := context.Background()

	// Redis cache
	cache := repository.NewCache(&cfg.Redis)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	// MySQL store
	store, err := repository.NewStore(&cfg.MySQL, cache, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}
	defer store.Close()

	// MongoDB audit log
	auditor, err := repository.NewAuditLogger(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer auditor.Close(ctx)
	if err := auditor.Ping(ctx); err != nil {
		logger.Warn("MongoDB connection failed", zap.Error(err))
	}

	// Confirmation actor
	notifier, err := notify.NewNotifier(logger)
	if err != nil {
		logger.Fatal("Failed to start notifier", zap.Error(err))
	}
	defer notifier.Close()

	// Services
	accounts := account.NewService(store, cache, logger)
	cat := catalog.NewService(store, cache, logger)
	carts := cart.NewService(store, cat, logger)
	wishlists := wishlist.NewService(store, cat)
	orders := order.NewWorkflow(store, auditor, notifier, logger)
	payments := payment.NewLedger(store, auditor, logger)

	srv := server.New(cfg, logger, accounts, cat, carts, wishlists, orders, payments, notifier)

	// Register in etcd; the server still works without it.
	instance := &discovery.Instance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	registry, err := discovery.NewRegistry(&cfg.Etcd)
	if err != nil {
		logger.Warn("Failed to connect to etcd, skipping registration", zap.Error(err))
		registry = nil
	} else {
		defer registry.Close()
		// Register keeps the lease alive on ctx, so no timeout here.
		if err := registry.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register in etcd", zap.Error(err))
		} else {
			logger.Info("Service registered in etcd",
				zap.String("name", cfg.Server.Name),
				zap.String("address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)))
		}
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	if registry != nil {
		if err := registry.Deregister(ctx, instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
	}

	logger.Info("Service stopped")
}

func buildLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zapCfg.Level = level
	}
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}
	return zapCfg.Build()
}
