// Package app wires the storefront services.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/rigforge/internal/domain/build"
	"github.com/xenking/rigforge/internal/domain/cart"
	"github.com/xenking/rigforge/internal/domain/catalog"
	"github.com/xenking/rigforge/internal/domain/identity"
	"github.com/xenking/rigforge/internal/domain/order"
	"github.com/xenking/rigforge/internal/handler"
	"github.com/xenking/rigforge/internal/relay"
	"github.com/xenking/rigforge/internal/storage/postgres"
	"github.com/xenking/rigforge/pkg/health"
	"github.com/xenking/rigforge/pkg/httpmiddleware"
)

const serviceName = "rigforge-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the API server.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))
	if cfg.Auth.Secret == "" {
		lg.Warn("Auth secret not set, every request is anonymous")
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	catalogRepo := postgres.NewCatalogRepository(pool)
	buildRepo := postgres.NewBuildRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)

	// Domain services.
	builds := build.NewService(catalogRepo, buildRepo)
	carts := cart.NewService(cartRepo, catalogRepo, catalogRepo, buildRepo)

	h, err := handler.New(
		handler.Config{ImageBaseURL: cfg.ImageBaseURL, MeterProvider: m.MeterProvider()},
		handler.Services{
			Catalog: catalog.NewQuery(catalogRepo, catalogRepo, catalogRepo),
			Builds:  builds,
			Carts:   carts,
			Orders:  order.NewService(carts, orderRepo),
		},
	)
	if err != nil {
		return errors.Wrap(err, "create handler")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	limitKey := httpmiddleware.UserOrIP(func(ctx context.Context) string {
		return identity.FromContext(ctx).String()
	})

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				Origins:          cfg.CORS.Origins,
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			handler.Authenticate(handler.AuthConfig{
				Secret:   cfg.Auth.Secret,
				Issuer:   cfg.Auth.Issuer,
				Audience: cfg.Auth.Audience,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:     cfg.RateLimit.Max,
				Window:  cfg.RateLimit.Window,
				KeyFunc: limitKey,
			}),
			httpmiddleware.Instrument(serviceName, m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
		),
	}

	return serve(ctx, lg, server, healthSvc, cfg.Graceful)
}

// serve runs server until ctx is done, then flips readiness, waits for load
// balancers to notice, and drains in-flight requests.
func serve(ctx context.Context, lg *zap.Logger, server *http.Server, healthSvc *health.Health, g GracefulConfig) error {
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", g.ReadinessDelay))
		time.Sleep(g.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), g.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", g.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// RunRelay forwards order events from the outbox to Kafka and serves health
// endpoints until ctx is done.
func RunRelay(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *RelayConfig) error {
	lg.Info("Initializing relay",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.Int("batch_size", cfg.BatchSize),
	)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	store := postgres.NewOutboxStore(pool)
	writer := relay.NewWriter(cfg.Kafka.Brokers)
	defer func() {
		if err := writer.Close(); err != nil {
			lg.Error("Close kafka writer", zap.Error(err))
		}
	}()

	r, err := relay.New(store, writer, relay.Options{
		BatchSize:     cfg.BatchSize,
		Interval:      cfg.Interval,
		Topic:         cfg.Kafka.Topic,
		Logger:        lg.Named("relay"),
		MeterProvider: m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create relay")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddReadinessCheck("kafka", 5*time.Second, health.KafkaCheck(cfg.Kafka.Brokers))
	healthSvc.AddReadinessCheck("outbox_backlog", 5*time.Second, health.BacklogCheck(store.Pending, cfg.MaxBacklog))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(1000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		Addr:              cfg.Addr,
		Handler:           httpmiddleware.Wrap(mux, httpmiddleware.Recovery()),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.Run(gctx)
	})
	g.Go(func() error {
		return serve(gctx, lg, server, healthSvc, GracefulConfig{ShutdownTimeout: 5 * time.Second})
	})
	return g.Wait()
}
