package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/multifolks/multifolks-backend/api/controllers"
	"github.com/multifolks/multifolks-backend/api/middleware"
	"github.com/multifolks/multifolks-backend/internal/cart"
	"github.com/multifolks/multifolks-backend/internal/orders"
	"github.com/multifolks/multifolks-backend/pkg/config"
	"github.com/multifolks/multifolks-backend/pkg/db"
	"github.com/multifolks/multifolks-backend/pkg/logger"
	"github.com/multifolks/multifolks-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	cartService cart.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins...),
	)

	r.Get("/healthz", controllers.Healthz(cfg, logg, dbP, redisP))

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/public", func(r chi.Router) {
		r.Get("/orders/{orderID}", controllers.OrderGetPublic(ordersService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Owner(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartSummary(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))

			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Route("/items/{lineID}", func(r chi.Router) {
				r.Delete("/", controllers.CartRemoveItem(cartService, logg))
				r.Put("/quantity", controllers.CartUpdateQuantity(cartService, logg))
				r.Put("/lens", controllers.CartUpdateLens(cartService, logg))
				r.Put("/prescription", controllers.CartUpdatePrescription(cartService, logg))
			})

			r.Post("/coupon", controllers.CartApplyCoupon(cartService, logg))
			r.Delete("/coupon", controllers.CartRemoveCoupon(cartService, logg))
			r.Put("/shipping-method", controllers.CartUpdateShipping(cartService, logg))

			r.With(middleware.RequireAuthenticated(logg)).
				Post("/merge-guest-cart", controllers.CartMergeGuest(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(ordersService, logg))
			r.Get("/", controllers.OrderList(ordersService, logg))
			r.Get("/{orderID}", controllers.OrderGet(ordersService, logg))
			r.Patch("/{orderID}/status", controllers.OrderUpdateStatus(ordersService, logg))
			r.Patch("/{orderID}/payment-status", controllers.OrderUpdatePaymentStatus(ordersService, logg))
		})
	})

	return r
}
