package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/urbanshoes/storefront/api/routes"
	"github.com/urbanshoes/storefront/internal/cart"
	"github.com/urbanshoes/storefront/internal/catalog"
	"github.com/urbanshoes/storefront/internal/checkout"
	"github.com/urbanshoes/storefront/pkg/config"
	"github.com/urbanshoes/storefront/pkg/logger"
	"github.com/urbanshoes/storefront/pkg/metrics"
	"github.com/urbanshoes/storefront/pkg/razorpay"
	"github.com/urbanshoes/storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	storeMetrics := metrics.NewStorefrontMetrics(registry)

	catalogService, err := buildCatalog(cfg, logg, redisClient, storeMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build catalog service", err)
		os.Exit(1)
	}
	if err := catalogService.Start(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to start catalog feed", err)
		os.Exit(1)
	}

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build cart store", err)
		os.Exit(1)
	}
	cartManager, err := cart.NewManager(cartStore, logg, storeMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build cart manager", err)
		os.Exit(1)
	}

	checkoutService, err := buildCheckout(cfg, logg, redisClient, cartManager, storeMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to build checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, registry, catalogService, cartManager, checkoutService),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, catalogService.Close())
	closeErr = multierr.Append(closeErr, redisClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "shutdown complete")
}

func buildCatalog(cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, m *metrics.StorefrontMetrics) (catalog.Service, error) {
	source, err := catalog.NewRedisSource(redisClient)
	if err != nil {
		return nil, err
	}
	feed, err := catalog.NewFeed(source, logg)
	if err != nil {
		return nil, err
	}
	view, err := catalog.NewView(cfg.Catalog.PageSize)
	if err != nil {
		return nil, err
	}
	return catalog.NewService(feed, view, logg, m)
}

func buildCheckout(cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, cartManager *cart.Manager, m *metrics.StorefrontMetrics) (checkout.Service, error) {
	pricing, err := checkout.PricingFromConfig(cfg.Checkout)
	if err != nil {
		return nil, err
	}

	sessionStore, err := checkout.NewRedisStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		return nil, err
	}

	var gateway checkout.Gateway
	if cfg.Razorpay.Enabled() {
		client, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
		if err != nil {
			return nil, err
		}
		gateway = client
	}

	return checkout.NewService(cartManager, gateway, sessionStore, pricing, cfg.Checkout.SimulatedDelay, logg, m)
}
