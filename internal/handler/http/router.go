package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/service"
	"github.com/storefront-labs/orderengine/pkg/health"
	"github.com/storefront-labs/orderengine/pkg/middleware"
)

const serviceName = "orderengine"

// Services groups the application services the router exposes.
type Services struct {
	Orders    *service.OrderService
	Inventory *service.InventoryService
	Reviews   *service.ReviewService
	Analytics *service.AnalyticsService
	Products  *service.ProductService
	Payments  *service.PaymentService
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	svcs Services,
	validateToken middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	orderHandler := NewOrderHandler(svcs.Orders, svcs.Analytics, logger)
	reviewHandler := NewReviewHandler(svcs.Reviews, logger)
	productHandler := NewProductHandler(svcs.Products, svcs.Inventory, logger)
	paymentHandler := NewPaymentHandler(svcs.Payments, logger)

	admin := middleware.RequireRole(domain.RoleAdmin)
	adminOrSeller := middleware.RequireRole(domain.RoleAdmin, domain.RoleSeller)
	adminOrCustomer := middleware.RequireRole(domain.RoleAdmin, domain.RoleCustomer)
	customer := middleware.RequireRole(domain.RoleCustomer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public catalog reads
		r.Get("/product/{id}", productHandler.GetProduct)
		r.Get("/product/{id}/reviews", reviewHandler.ListReviews)
		r.Get("/rentals", productHandler.ListRentalProducts)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken))
			r.Use(middleware.RequestLogger(logger))

			// Orders
			r.Post("/order/new", orderHandler.CreateOrder)
			r.Get("/order/{id}", orderHandler.GetOrder)
			r.Put("/order/{id}", orderHandler.UpdateOrderStatus)
			r.Get("/orders/me", orderHandler.MyOrders)

			// Reviews
			r.With(customer).Post("/product/{id}/review", reviewHandler.UpsertReview)
			r.With(adminOrCustomer).Put("/product/{id}/review", reviewHandler.UpsertReview)
			r.With(adminOrCustomer).Delete("/product/{id}/reviews", reviewHandler.DeleteReview)

			// Rentals
			r.With(customer).Post("/rental/order/new", productHandler.CreateRentalOrder)
			r.With(adminOrSeller).Get("/rental/orders", productHandler.ListRentalOrders)

			// Payment
			r.Post("/payment/process", paymentHandler.ProcessPayment)
			r.Get("/payment/key", paymentHandler.PublishableKey)

			r.Route("/admin", func(r chi.Router) {
				r.With(adminOrSeller).Get("/orders", orderHandler.ListOrders)
				r.With(admin).Get("/orders/analytics", orderHandler.Analytics)
				r.With(admin).Put("/order/{id}", orderHandler.UpdateOrderStatus)
				r.With(admin).Delete("/order/{id}", orderHandler.DeleteOrder)

				r.With(adminOrSeller).Post("/product/new", productHandler.CreateProduct)
				r.With(admin).Put("/product/{id}/stock", productHandler.DecrementStock)

				r.With(adminOrSeller).Post("/rental/new", productHandler.CreateRentalProduct)
				r.With(adminOrSeller).Put("/rental/{id}", productHandler.UpdateRentalStatus)
			})
		})
	})

	return r
}
