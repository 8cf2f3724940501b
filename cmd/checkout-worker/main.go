package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/stockcheckout/internal/checkout"
	"github.com/nikolayk812/stockcheckout/internal/config"
	"github.com/nikolayk812/stockcheckout/internal/migrations"
	"github.com/nikolayk812/stockcheckout/internal/mongostore"
	"github.com/nikolayk812/stockcheckout/internal/payment"
	"github.com/nikolayk812/stockcheckout/internal/port"
	"github.com/nikolayk812/stockcheckout/internal/repository"
	"github.com/nikolayk812/stockcheckout/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("checkout-worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	stripeGateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:        cfg.StripeSecretKey,
		Timeout:          cfg.GatewayTimeout,
		WebhookTolerance: cfg.WebhookTolerance,
	}, logger)
	gateway := payment.NewBreakerGateway(stripeGateway, payment.DefaultBreakerConfig(), logger)

	reconciler := checkout.NewReconciler(store, gateway, checkout.Config{
		Currency:      cfg.Currency,
		WebhookSecret: cfg.WebhookSecret,
	}, logger, checkout.NewMetrics(reg))

	workerMetrics := worker.NewMetrics(reg)

	var wg sync.WaitGroup

	if cfg.Backend == config.BackendPostgres {
		sweeper := worker.NewCartSweeper(store.Carts(), worker.SweeperConfig{
			Interval: cfg.CartSweepInterval,
			TTL:      cfg.CartTTL,
		}, logger, workerMetrics)

		wg.Go(func() { sweeper.Run(ctx) })
	}

	if len(cfg.KafkaBrokers) > 0 {
		writer := worker.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Warn("writer.Close", slog.Any("error", err))
			}
		}()

		relay := worker.NewOutboxRelay(store.Outbox(), writer, worker.RelayConfig{
			Interval:  cfg.OutboxInterval,
			BatchSize: cfg.OutboxBatch,
		}, logger, workerMetrics)

		wg.Go(func() { relay.Run(ctx) })
	} else {
		logger.Warn("KAFKA_BROKERS is empty, outbox relay disabled")
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("POST /webhooks/stripe", webhookHandler(reconciler, logger))

	server := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.MetricsAddr), slog.String("backend", string(cfg.Backend)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("server.Shutdown", slog.Any("error", shutdownErr))
	}

	wg.Wait()

	if err != nil {
		return fmt.Errorf("server.ListenAndServe: %w", err)
	}
	return nil
}

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg config.Config) (port.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendMongo:
		db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("mongostore.Connect: %w", err)
		}

		closeFn := func() {
			_ = db.Client().Disconnect(context.Background())
		}

		if err := mongostore.EnsureIndexes(ctx, db, cfg.CartTTL); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("mongostore.EnsureIndexes: %w", err)
		}

		return mongostore.NewStore(db), closeFn, nil

	default:
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			return nil, nil, fmt.Errorf("migrations.Up: %w", err)
		}

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pool.Ping: %w", err)
		}

		return repository.NewStore(pool), pool.Close, nil
	}
}
