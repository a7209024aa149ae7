package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Pinger is a dependency the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Carts          CartService
	Checkout       CheckoutService
	Payments       PaymentService
	Queries        QueryService
	Health         map[string]Pinger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	cartHandler := NewCartHandler(cfg.Carts, cfg.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout, cfg.RequestTimeout)
	paymentHandler := NewPaymentHandler(cfg.Payments, cfg.RequestTimeout)
	accountHandler := NewAccountHandler(cfg.Queries, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware(cfg.Metrics))

	r.Get("/health", healthHandler(cfg.Health, cfg.RequestTimeout))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Gatherer))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ClientIdentityMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Get("/total", cartHandler.GetTotal)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", checkoutHandler.PlaceOrder)
			r.Route("/{order_id}", func(r chi.Router) {
				r.Post("/payments", paymentHandler.RegisterPayment)
				r.Get("/payments", paymentHandler.ListPayments)
				r.Get("/debt", paymentHandler.GetDebt)
				r.Get("/receipt", accountHandler.Receipt)
			})
		})

		r.Route("/account", func(r chi.Router) {
			r.Get("/orders/outstanding", accountHandler.OutstandingOrders)
			r.Get("/purchases", accountHandler.SettledPurchases)
		})
	})

	return otelhttp.NewHandler(r, "settlement-service")
}

func healthHandler(deps map[string]Pinger, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				zap.L().Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				checks[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		respondJSON(w, status, map[string]interface{}{"status": overall, "checks": checks})
	}
}
