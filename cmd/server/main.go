package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/opticstore/pkg/auth"
	"github.com/example/opticstore/pkg/config"
	"github.com/example/opticstore/pkg/discovery"
	"github.com/example/opticstore/pkg/notify"
	"github.com/example/opticstore/pkg/outbox"
	"github.com/example/opticstore/pkg/payments"
	"github.com/example/opticstore/pkg/repository"
	"github.com/example/opticstore/pkg/server"
	"github.com/example/opticstore/pkg/service"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting store service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	ctx := context.Background()

	// Connect to MongoDB
	mongo, err := repository.NewMongo(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongo.Close(ctx)

	if err := mongo.Ping(ctx); err != nil {
		logger.Fatal("MongoDB ping failed", zap.Error(err))
	}
	if err := mongo.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to ensure indexes", zap.Error(err))
	}
	logger.Info("MongoDB connected successfully")

	// Redis is a cache; a failed ping degrades reads, it does not stop the
	// service.
	cache := repository.NewRedisCache(&cfg.Redis)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	// Notification outbox in MySQL plus the actor-backed senders behind it
	queue, err := outbox.NewQueue(&cfg.MySQL)
	if err != nil {
		logger.Fatal("Failed to open notification outbox", zap.Error(err))
	}
	defer queue.Close()

	sender, err := notify.NewDispatcher(
		&notify.LogEmailSender{Logger: logger},
		&notify.LogSMSSender{Logger: logger},
		cfg.Outbox.SendTimeout,
		logger,
	)
	if err != nil {
		logger.Fatal("Failed to start notification actors", zap.Error(err))
	}
	defer sender.Shutdown()

	outboxCtx, stopOutbox := context.WithCancel(ctx)
	defer stopOutbox()
	go outbox.NewDispatcher(queue, sender, cfg.Outbox, logger).Run(outboxCtx)

	// Services
	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	products := service.NewProductService(mongo.Products())
	inventory := service.NewInventoryService(mongo.Products(), logger)
	coupons := service.NewCouponService(mongo.Coupons())
	store := service.NewStoreService(mongo.Store(), cache, logger)
	users := service.NewUserService(mongo.Users(), tokens, queue, logger)
	orders := service.NewOrderService(mongo.Orders(), mongo.Users(), store, coupons, inventory, queue, logger)

	srv := server.New(cfg, logger, server.Deps{
		Tokens:    tokens,
		Verifier:  payments.NewVerifier(cfg.Payment.WebhookSecret, cfg.Payment.WebhookTolerance),
		Provider:  &payments.DevProvider{Logger: logger.Named("payments")},
		Products:  products,
		Orders:    orders,
		Coupons:   coupons,
		Inventory: inventory,
		Store:     store,
		Users:     users,
	})

	// Register in etcd; discovery is optional in single-node setups
	registry, err := discovery.NewRegistry(&cfg.Etcd)
	if err != nil {
		logger.Warn("Failed to connect to etcd, skipping registration", zap.Error(err))
		registry = nil
	} else {
		defer registry.Close()
		instance := &discovery.Instance{
			Name: cfg.Server.Name,
			Host: cfg.Server.Host,
			Port: cfg.Server.Port,
		}
		if err := registry.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register service", zap.Error(err))
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

	stopOutbox()
	if registry != nil {
		if err := registry.Deregister(ctx); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Service stopped")
}
