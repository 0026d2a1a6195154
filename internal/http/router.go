package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/macaicedo13/Ecommerce-api-test/internal/metrics"
	"github.com/macaicedo13/Ecommerce-api-test/internal/service"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	Metrics        *metrics.ServerMetrics
}

// NewRouter assembles the API surface. Product reads are public, product
// writes require the admin role, and everything under /api/orders requires
// an authenticated customer.
func NewRouter(products *service.ProductService, orders *service.OrderService,
	checkout *service.CheckoutService, cfg RouterConfig) chi.Router {

	productHandler := NewProductHandler(products, cfg.RequestTimeout)
	orderHandler := NewOrderHandler(orders, checkout, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/{id}", productHandler.Get)
			r.Post("/", productHandler.Create)
			r.Put("/{id}", productHandler.Update)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(AuthMiddleware)
			r.Get("/", orderHandler.List)
			r.Post("/", orderHandler.Create)
			r.Get("/{id}", orderHandler.Get)
			r.Post("/{id}/checkout", orderHandler.Checkout)
		})
	})

	return r
}
