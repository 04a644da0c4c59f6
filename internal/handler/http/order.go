package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/indikaara/storefront/internal/service"
	"github.com/indikaara/storefront/pkg/httputil"
	"github.com/indikaara/storefront/pkg/pagination"
)

// OrderHandler handles HTTP requests for the order history endpoints.
type OrderHandler struct {
	orders   *service.OrderService
	checkout *service.CheckoutService
	baseURL  string
	logger   *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(orders *service.OrderService, checkout *service.CheckoutService, baseURL string, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		checkout: checkout,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// ListMyOrders handles GET /api/v1/orders/my
func (h *OrderHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.orders.ListMyOrders(r.Context(), UserIDFromRequest(r), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetOrder handles GET /api/v1/orders/{txnid}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	detail, err := h.orders.GetOrder(r.Context(), UserIDFromRequest(r), chi.URLParam(r, "txnid"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: detail})
}

// RetryPayment handles POST /api/v1/orders/{txnid}/retry
//
// A retry is a fresh handoff for the same unpaid order: the original txnid
// and the server-recorded total are reused unchanged.
func (h *OrderHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	instruction, err := h.checkout.InitiatePayment(
		r.Context(),
		UserIDFromRequest(r),
		chi.URLParam(r, "txnid"),
		h.baseURL+"/payment/success",
		h.baseURL+"/payment/failure",
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: instruction})
}
