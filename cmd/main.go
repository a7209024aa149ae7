package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/cache"
	"github.com/fjod/go_cart/settlement-service/internal/config"
	h "github.com/fjod/go_cart/settlement-service/internal/http"
	"github.com/fjod/go_cart/settlement-service/internal/metrics"
	"github.com/fjod/go_cart/settlement-service/internal/publisher"
	"github.com/fjod/go_cart/settlement-service/internal/repository"
	"github.com/fjod/go_cart/settlement-service/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("invalid configuration: " + err.Error())
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger, err := zapCfg.Build()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	logger.Info("settlement-service starting", zap.String("http_port", cfg.HTTPPort))

	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}

	repo, err := repository.NewRepository(creds, repository.TxOptions{
		LockTimeout: cfg.DBLockTimeout,
		MaxRetries:  cfg.DBMaxRetries,
	})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations completed")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient, cfg.CartCacheTTL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	cartService := service.NewCartService(repo, cartCache, m, logger)
	checkoutService := service.NewCheckoutService(repo, cartService, m, logger)
	queryService := service.NewQueryService(repo, logger)
	paymentService := service.NewPaymentService(repo, queryService, m, logger)

	opts := publisher.DefaultOptions
	opts.Tick = cfg.OutboxPollInterval
	poller := publisher.NewOutboxPoller(repo, publisher.NewKafkaWriter(cfg.KafkaTopic, cfg.KafkaBrokers...), opts, logger)

	var wg sync.WaitGroup
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(pollerCtx)
	}()

	router := h.NewRouter(h.RouterConfig{
		Carts:    cartService,
		Checkout: checkoutService,
		Payments: paymentService,
		Queries:  queryService,
		Health: map[string]h.Pinger{
			"postgres": repo,
			"redis":    cartCache,
		},
		Metrics:        m,
		Gatherer:       reg,
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	pollerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		logger.Info("outbox poller stopped cleanly")
	case <-ctx.Done():
		logger.Warn("outbox poller shutdown timed out")
	}

	if err := poller.Close(); err != nil {
		logger.Warn("failed to close kafka writer", zap.Error(err))
	}
	logger.Info("server exited")
}
