package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/indikaara/storefront/internal/service"
	"github.com/indikaara/storefront/pkg/health"
	"github.com/indikaara/storefront/pkg/middleware"
)

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	paymentService *service.PaymentService,
	orderService *service.OrderService,
	healthHandler *health.Handler,
	baseURL string,
	jwtSecret string,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(UserIdentity(jwtSecret))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(cartService, logger)
	checkoutHandler := NewCheckoutHandler(checkoutService, baseURL, logger)
	paymentHandler := NewPaymentHandler(paymentService, logger)
	orderHandler := NewOrderHandler(orderService, checkoutService, baseURL, logger)

	// JSON API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateItemQuantity)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/create-pending", checkoutHandler.CreatePendingOrder)
			r.Get("/my", orderHandler.ListMyOrders)
			r.Get("/{txnid}", orderHandler.GetOrder)
			r.Post("/{txnid}/retry", orderHandler.RetryPayment)
		})

		r.Post("/payu/initiate", checkoutHandler.InitiatePayment)
	})

	// Browser-facing pages. The gateway posts its returns here with
	// form-encoded bodies, so these stay outside the JSON guard.
	r.Get("/payu/checkout/{txnid}", checkoutHandler.CheckoutPage)
	r.Get("/payment/success", paymentHandler.Return)
	r.Post("/payment/success", paymentHandler.Return)
	r.Get("/payment/failure", paymentHandler.Return)
	r.Post("/payment/failure", paymentHandler.Return)
	r.Get("/payment/result", paymentHandler.Result)

	return r
}
