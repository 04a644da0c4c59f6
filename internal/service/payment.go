package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	apperrors "github.com/indikaara/storefront/pkg/errors"

	"github.com/indikaara/storefront/internal/event"
	"github.com/indikaara/storefront/internal/gateway"
	"github.com/indikaara/storefront/internal/repository"
)

// ReconcileResult is the resolved outcome of a gateway return, handed to the
// result page.
type ReconcileResult struct {
	Outcome     string `json:"outcome"`
	TxnID       string `json:"txnid,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
	Reason      string `json:"reason,omitempty"`
	AlreadyPaid bool   `json:"-"`
}

// PaymentService resolves gateway return outcomes. It is the only caller of
// CartService.ClearCart and the only writer of the paid flag.
type PaymentService struct {
	orders      repository.OrderRepository
	pendingRefs repository.PendingRefRepository
	carts       *CartService
	gateway     gateway.Gateway
	producer    *event.Producer
	logger      *slog.Logger
}

// NewPaymentService creates a new payment reconciliation service.
func NewPaymentService(
	orders repository.OrderRepository,
	pendingRefs repository.PendingRefRepository,
	carts *CartService,
	gw gateway.Gateway,
	producer *event.Producer,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		orders:      orders,
		pendingRefs: pendingRefs,
		carts:       carts,
		gateway:     gw,
		producer:    producer,
		logger:      logger,
	}
}

// Reconcile resolves a gateway return from its raw parameters. Success marks
// the order paid, clears the cart, and consumes the pending reference — all
// idempotently, so a replayed return URL resolves the same way with no error.
// Anything other than an explicit success (including a success signal for an
// unknown order) resolves as failure and leaves the cart and the pending
// order untouched.
//
// The return arrives from the shopper's browser, so a success signal alone
// proves nothing; it must also carry the gateway's checksum. A success whose
// checksum does not authenticate resolves as failure without touching the
// paid flag.
func (s *PaymentService) Reconcile(ctx context.Context, userID string, params url.Values) (*ReconcileResult, error) {
	out := gateway.ParseReturnOutcome(params)
	if !out.Success() {
		return s.resolveFailure(ctx, userID, out), nil
	}

	if err := s.gateway.AuthenticateReturn(params); err != nil {
		s.logger.WarnContext(ctx, "rejecting unauthenticated success return",
			slog.String("txnid", out.TxnID),
			slog.String("error", err.Error()),
		)
		out.Outcome = gateway.OutcomeFailure
		out.Reason = "unverified gateway signature"
		return s.resolveFailure(ctx, userID, out), nil
	}

	alreadyPaid, err := s.orders.MarkPaid(ctx, out.TxnID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// A success signal naming an order we never created is
			// ambiguous. Fail closed rather than clear the cart.
			s.logger.WarnContext(ctx, "success return for unknown transaction",
				slog.String("txnid", out.TxnID),
			)
			out.Outcome = gateway.OutcomeFailure
			out.Reason = "unknown transaction"
			return s.resolveFailure(ctx, userID, out), nil
		}
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	if userID != "" {
		if err := s.carts.ClearCart(ctx, userID); err != nil {
			// The order is paid; a cart-clear failure must not turn the
			// confirmation into an error page.
			s.logger.ErrorContext(ctx, "failed to clear cart after payment",
				slog.String("user_id", userID),
				slog.String("txnid", out.TxnID),
				slog.String("error", err.Error()),
			)
		}
		if err := s.pendingRefs.Delete(ctx, userID); err != nil {
			s.logger.ErrorContext(ctx, "failed to delete pending order reference",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	if !alreadyPaid {
		order, err := s.orders.GetByTxnID(ctx, out.TxnID)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to load order for captured event",
				slog.String("txnid", out.TxnID),
				slog.String("error", err.Error()),
			)
		} else if err := s.producer.PublishPaymentCaptured(ctx, out.TxnID, order.UserID, order.TotalPrice); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish payment.captured event",
				slog.String("txnid", out.TxnID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "payment reconciled as success",
		slog.String("txnid", out.TxnID),
		slog.Bool("already_paid", alreadyPaid),
	)

	return &ReconcileResult{
		Outcome:     gateway.OutcomeSuccess,
		TxnID:       out.TxnID,
		AlreadyPaid: alreadyPaid,
	}, nil
}

// resolveFailure records a failed return. Cart and pending order stay
// untouched; the caller offers a retry with the same txnid.
func (s *PaymentService) resolveFailure(ctx context.Context, userID string, out gateway.ReturnOutcome) *ReconcileResult {
	if out.TxnID != "" {
		if err := s.producer.PublishPaymentFailed(ctx, out.TxnID, userID, out.ErrorCode, out.Reason); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish payment.failed event",
				slog.String("txnid", out.TxnID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "payment reconciled as failure",
		slog.String("txnid", out.TxnID),
		slog.String("error_code", out.ErrorCode),
		slog.String("reason", out.Reason),
	)

	return &ReconcileResult{
		Outcome:   gateway.OutcomeFailure,
		TxnID:     out.TxnID,
		ErrorCode: out.ErrorCode,
		Reason:    out.Reason,
	}
}
