// Package app wires the POS server together.
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

	"github.com/xenking/kas-cafe/internal/domain/catalog"
	"github.com/xenking/kas-cafe/internal/domain/discount"
	"github.com/xenking/kas-cafe/internal/domain/order"
	"github.com/xenking/kas-cafe/internal/handler"
	"github.com/xenking/kas-cafe/pkg/health"
	"github.com/xenking/kas-cafe/pkg/httpmiddleware"
)

const serviceName = "kas-cafe"

// Run builds every dependency, serves HTTP and shuts down gracefully once
// ctx is cancelled.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	store, closeStore, err := OpenStorage(zctx.Base(ctx, lg), cfg.Storage)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer closeStore()

	srv, err := newAPI(lg, m, cfg, store)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Handler:           srv.handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	srv.health.Start(gctx, 10*time.Second)
	defer srv.health.Stop()
	srv.health.SetReady(true)

	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		srv.health.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()
		lg.Info("Shutting down", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		return errors.Wrap(server.Shutdown(shutdownCtx), "shutdown")
	})
	return g.Wait()
}

type api struct {
	handler http.Handler
	health  *health.Health
}

// newAPI assembles the domain service, routes and middleware on top of store.
func newAPI(lg *zap.Logger, t httpmiddleware.Telemetry, cfg *Config, store Storage) (*api, error) {
	format, err := cfg.Shop.DisplayFormat()
	if err != nil {
		return nil, err
	}
	engine := order.NewEngine(catalog.Default(), discount.Default(), format)
	orders, err := order.NewService(engine, store,
		order.WithMeterProvider(t.MeterProvider()),
		order.WithTracerProvider(t.TracerProvider()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	checks := health.New()
	checks.AddReadinessCheck("storage", 5*time.Second, health.PingCheck(store))
	checks.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	mux := http.NewServeMux()
	handler.New(handler.Config{ShopName: cfg.Shop.Name}, orders, store).Register(mux)
	mux.HandleFunc("GET /livez", checks.LiveEndpoint)
	mux.HandleFunc("GET /readyz", checks.ReadyEndpoint)

	routes := httpmiddleware.MakeRouteFinder(mux)
	h := httpmiddleware.Wrap(mux,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			Origins: cfg.CORS.Origins,
			MaxAge:  cfg.CORS.MaxAge,
		}),
		httpmiddleware.Instrument(serviceName, routes, t),
		httpmiddleware.LogRequests(routes),
		httpmiddleware.Labeler(routes),
	)
	return &api{handler: h, health: checks}, nil
}
