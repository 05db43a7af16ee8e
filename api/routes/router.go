package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/urbanshoes/storefront/api/controllers"
	"github.com/urbanshoes/storefront/api/middleware"
	"github.com/urbanshoes/storefront/internal/cart"
	"github.com/urbanshoes/storefront/internal/catalog"
	checkoutsvc "github.com/urbanshoes/storefront/internal/checkout"
	"github.com/urbanshoes/storefront/pkg/config"
	"github.com/urbanshoes/storefront/pkg/logger"
	"github.com/urbanshoes/storefront/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	catalogService catalog.Service,
	cartManager *cart.Manager,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisPinger interface {
		Ping(ctx context.Context) error
	}
	if redisClient != nil {
		redisPinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisPinger))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.Auth, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(catalogService, logg))
			r.Get("/{productId}", controllers.GetProduct(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(cartManager, logg))
			r.Delete("/", controllers.ClearCart(cartManager, logg))
			r.Post("/items", controllers.AddCartItem(cartManager, catalogService, logg))
			r.Patch("/items/{productId}", controllers.UpdateCartItem(cartManager, logg))
			r.Delete("/items/{productId}", controllers.RemoveCartItem(cartManager, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutStatus(checkoutService, logg))
			r.Post("/", controllers.SubmitCheckout(checkoutService, logg))
			r.Post("/confirm", controllers.ConfirmCheckout(checkoutService, logg))
		})
	})

	return r
}
