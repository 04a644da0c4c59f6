package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/indikaara/storefront/internal/gateway"
	"github.com/indikaara/storefront/internal/service"
	"github.com/indikaara/storefront/pkg/httputil"
)

// PaymentHandler terminates the gateway's browser returns. The raw return
// parameters never reach the shopper: each return is reconciled once, then
// answered with a redirect to a clean result URL carrying only the resolved
// outcome (a POST-redirect-GET, so a reload of the result page replays
// nothing).
type PaymentHandler struct {
	service *service.PaymentService
	logger  *slog.Logger
}

// NewPaymentHandler creates a new payment HTTP handler.
func NewPaymentHandler(svc *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: svc,
		logger:  logger,
	}
}

// Return handles GET and POST on /payment/success and /payment/failure.
//
// Which of the two URLs the gateway hit carries no authority; the posted
// parameters are resolved fail-closed by the reconciler, which also checks
// the gateway checksum before honoring a success.
func (h *PaymentHandler) Return(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "malformed return parameters"},
		})
		return
	}

	result, err := h.service.Reconcile(r.Context(), UserIDFromRequest(r), r.Form)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	q := url.Values{}
	q.Set("outcome", result.Outcome)
	if result.TxnID != "" {
		q.Set("txnid", result.TxnID)
	}
	if result.ErrorCode != "" {
		q.Set("code", result.ErrorCode)
	}
	if result.Reason != "" {
		q.Set("reason", result.Reason)
	}

	http.Redirect(w, r, "/payment/result?"+q.Encode(), http.StatusSeeOther)
}

// Result handles GET /payment/result
//
// The query parameters are display-only: they were written by Return after
// reconciliation and re-requesting this page changes nothing server-side.
func (h *PaymentHandler) Result(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	data := resultPageData{
		Success: q.Get("outcome") == gateway.OutcomeSuccess,
		TxnID:   q.Get("txnid"),
		Code:    q.Get("code"),
		Reason:  q.Get("reason"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := resultTmpl.Execute(w, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render result page",
			slog.String("error", err.Error()),
		)
	}
}

type resultPageData struct {
	Success bool
	TxnID   string
	Code    string
	Reason  string
}
