package service

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/indikaara/storefront/pkg/errors"
	"github.com/indikaara/storefront/pkg/pagination"

	"github.com/indikaara/storefront/internal/domain"
	"github.com/indikaara/storefront/internal/gateway"
	"github.com/indikaara/storefront/internal/repository"
)

// OrderDetail is an order plus the gateway's live status for unpaid orders.
type OrderDetail struct {
	Order         *domain.Order `json:"order"`
	GatewayStatus string        `json:"gateway_status,omitempty"`
}

// OrderService serves the order history view.
type OrderService struct {
	orders  repository.OrderRepository
	gateway gateway.Gateway
	logger  *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, gw gateway.Gateway, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:  orders,
		gateway: gw,
		logger:  logger,
	}
}

// ListMyOrders returns the user's orders, most recent first. An
// unauthenticated caller gets an empty page rather than an error: order
// history is a non-critical read.
func (s *OrderService) ListMyOrders(ctx context.Context, userID string, params pagination.Params) (pagination.Result[domain.Order], error) {
	if userID == "" {
		return pagination.NewResult([]domain.Order{}, 0, params), nil
	}

	orders, total, err := s.orders.ListByUser(ctx, userID, params.Page, params.PerPage)
	if err != nil {
		return pagination.Result[domain.Order]{}, fmt.Errorf("list orders: %w", err)
	}

	return pagination.NewResult(orders, total, params), nil
}

// GetOrder returns one of the user's orders by transaction id, with line
// items, shipping address, and the server-confirmed total. Another user's
// order is reported as not found, not as forbidden.
func (s *OrderService) GetOrder(ctx context.Context, userID, txnid string) (*OrderDetail, error) {
	if txnid == "" {
		return nil, apperrors.InvalidInput("transaction id is required")
	}

	order, err := s.orders.GetByTxnID(ctx, txnid)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if userID == "" || order.UserID != userID {
		return nil, apperrors.NotFound("order", txnid)
	}

	detail := &OrderDetail{Order: order}

	// For unpaid orders, report the gateway's view as advisory display
	// data. A verification failure (or an open breaker) degrades to no
	// status; it never blocks the read and never flips the paid flag.
	if !order.Paid {
		v, err := s.gateway.Verify(ctx, txnid)
		if err != nil {
			s.logger.WarnContext(ctx, "gateway verification unavailable",
				slog.String("txnid", txnid),
				slog.String("error", err.Error()),
			)
		} else {
			detail.GatewayStatus = v.Status
		}
	}

	return detail, nil
}
