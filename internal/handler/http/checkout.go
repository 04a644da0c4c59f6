package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/indikaara/storefront/internal/service"
	"github.com/indikaara/storefront/pkg/httputil"
	"github.com/indikaara/storefront/pkg/validator"
)

// CheckoutHandler handles HTTP requests for checkout and payment-handoff
// endpoints. baseURL is the public origin of this service; the gateway's
// return URLs are derived from it.
type CheckoutHandler struct {
	service *service.CheckoutService
	baseURL string
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, baseURL string, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// --- Request DTOs ---

// InitiatePaymentRequest is the JSON request body for starting a payment
// attempt for an existing pending order. txnid is the handle; orderId is
// accepted for compatibility but the order is always resolved by txnid.
// Caller-supplied return URLs are honored only when they share this
// service's origin, otherwise the configured defaults are used.
type InitiatePaymentRequest struct {
	OrderID    string `json:"orderId"`
	TxnID      string `json:"txnid" validate:"required"`
	SuccessURL string `json:"successUrl" validate:"omitempty,url"`
	FailureURL string `json:"failureUrl" validate:"omitempty,url"`
}

// --- Handlers ---

// CreatePendingOrder handles POST /api/v1/orders/create-pending
func (h *CheckoutHandler) CreatePendingOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req service.CreatePendingOrderInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.service.CreatePendingOrder(r.Context(), UserIDFromRequest(r), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// InitiatePayment handles POST /api/v1/payu/initiate
//
// The response is an opaque redirect instruction: form fields plus the
// gateway URL to POST them to. Callers submit it as-is and must not depend
// on individual field names.
func (h *CheckoutHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	surl := h.callbackURL(req.SuccessURL, h.successURL())
	furl := h.callbackURL(req.FailureURL, h.failureURL())

	instruction, err := h.service.InitiatePayment(r.Context(), UserIDFromRequest(r), req.TxnID, surl, furl)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: instruction})
}

// callbackURL returns the requested return URL if it stays on this
// service's origin; anything else falls back to the default. The gateway
// redirects the shopper's browser to whatever we sign here, so an arbitrary
// caller-supplied URL would be an open redirect.
func (h *CheckoutHandler) callbackURL(requested, fallback string) string {
	if requested != "" && strings.HasPrefix(requested, h.baseURL+"/") {
		return requested
	}
	return fallback
}

// CheckoutPage handles GET /payu/checkout/{txnid}
//
// It serves a self-submitting HTML form carrying the signed gateway fields,
// so the hosted flow works without any client-side app: the browser lands
// here, the form posts itself to the gateway, and the gateway redirects back
// to the return URLs.
func (h *CheckoutHandler) CheckoutPage(w http.ResponseWriter, r *http.Request) {
	instruction, err := h.service.InitiatePayment(r.Context(), UserIDFromRequest(r), chi.URLParam(r, "txnid"), h.successURL(), h.failureURL())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := checkoutTmpl.Execute(w, instruction); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render checkout page",
			slog.String("error", err.Error()),
		)
	}
}

func (h *CheckoutHandler) successURL() string { return h.baseURL + "/payment/success" }
func (h *CheckoutHandler) failureURL() string { return h.baseURL + "/payment/failure" }
