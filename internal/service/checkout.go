package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/indikaara/storefront/pkg/errors"

	"github.com/indikaara/storefront/internal/domain"
	"github.com/indikaara/storefront/internal/event"
	"github.com/indikaara/storefront/internal/gateway"
	"github.com/indikaara/storefront/internal/repository"
)

// CreatePendingOrderInput is the checkout request: the products to order and
// a validated shipping address.
type CreatePendingOrderInput struct {
	Products []ProductInput `json:"products" validate:"required,min=1,dive"`
	Address  AddressInput   `json:"shippingAddress" validate:"required"`
}

// ProductInput is one ordered product reference.
type ProductInput struct {
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

// AddressInput is the shipping address as submitted.
type AddressInput struct {
	FullName    string `json:"full_name" validate:"required"`
	AddressLine string `json:"address_line" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
	PostalCode  string `json:"postal_code" validate:"required"`
	Country     string `json:"country" validate:"required"`
	Phone       string `json:"phone"`
	Email       string `json:"email" validate:"omitempty,email"`
}

// CreatePendingOrderResult mirrors the create-pending response: the assigned
// transaction id plus the created order with its server-computed total.
type CreatePendingOrderResult struct {
	TxnID string        `json:"txnid"`
	Order *domain.Order `json:"order"`
}

// CheckoutService converts cart contents plus a shipping address into an
// unpaid pending order and hands unpaid orders off to the payment gateway.
type CheckoutService struct {
	orders      repository.OrderRepository
	pendingRefs repository.PendingRefRepository
	carts       repository.CartRepository
	gateway     gateway.Gateway
	producer    *event.Producer
	logger      *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	orders repository.OrderRepository,
	pendingRefs repository.PendingRefRepository,
	carts repository.CartRepository,
	gw gateway.Gateway,
	producer *event.Producer,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		orders:      orders,
		pendingRefs: pendingRefs,
		carts:       carts,
		gateway:     gw,
		producer:    producer,
		logger:      logger,
	}
}

// CreatePendingOrder creates an unpaid order from the user's cart and the
// submitted product list, assigns a fresh txnid, and durably persists the
// {txnid, totalPrice} reference under its own key. Unit prices and titles
// come from the cart snapshot, never from the request. On any failure the
// cart is untouched and nothing user-visible is persisted.
func (s *CheckoutService) CreatePendingOrder(ctx context.Context, userID string, input CreatePendingOrderInput) (*CreatePendingOrderResult, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("sign in to place an order")
	}
	if len(input.Products) == 0 {
		return nil, apperrors.InvalidInput("order must contain at least one product")
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidInput("cart is empty")
		}
		return nil, fmt.Errorf("load cart for checkout: %w", err)
	}
	if cart.IsEmpty() {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	lines, total, err := buildLines(cart, input.Products)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:         uuid.New().String(),
		TxnID:      newTxnID(),
		UserID:     userID,
		Lines:      lines,
		TotalPrice: total,
		Currency:   cart.Currency,
		ShippingAddress: domain.Address{
			FullName:    input.Address.FullName,
			AddressLine: input.Address.AddressLine,
			City:        input.Address.City,
			State:       input.Address.State,
			PostalCode:  input.Address.PostalCode,
			Country:     input.Address.Country,
			Phone:       input.Address.Phone,
			Email:       input.Address.Email,
		},
		Paid:      false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create pending order: %w", err)
	}

	if err := s.pendingRefs.Save(ctx, userID, &domain.PendingOrderRef{
		TxnID:      order.TxnID,
		TotalPrice: order.TotalPrice,
	}); err != nil {
		return nil, fmt.Errorf("persist pending order reference: %w", err)
	}

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("txnid", order.TxnID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "pending order created",
		slog.String("user_id", userID),
		slog.String("txnid", order.TxnID),
		slog.Int64("total_price", order.TotalPrice),
		slog.Int("line_count", len(order.Lines)),
	)

	return &CreatePendingOrderResult{TxnID: order.TxnID, Order: order}, nil
}

// InitiatePayment produces the opaque redirect instruction for an existing
// unpaid order. A retry re-enters here with the original txnid; a new
// pending order is never synthesized for a retry. If initiation fails, no
// instruction is produced and the order stays unpaid and retryable.
func (s *CheckoutService) InitiatePayment(ctx context.Context, userID, txnid, successURL, failureURL string) (*gateway.RedirectInstruction, error) {
	if txnid == "" {
		return nil, apperrors.InvalidInput("transaction id is required")
	}

	order, err := s.orders.GetByTxnID(ctx, txnid)
	if err != nil {
		return nil, fmt.Errorf("load order for payment: %w", err)
	}
	if userID != "" && order.UserID != userID {
		return nil, apperrors.NotFound("order", txnid)
	}
	if order.Paid {
		return nil, apperrors.Conflict("order is already paid")
	}

	instr, err := s.gateway.Initiate(ctx, gateway.InitiateInput{
		Order:      order,
		SuccessURL: successURL,
		FailureURL: failureURL,
	})
	if err != nil {
		return nil, fmt.Errorf("initiate gateway payment: %w", err)
	}

	s.logger.InfoContext(ctx, "payment initiated",
		slog.String("txnid", txnid),
		slog.String("user_id", order.UserID),
		slog.Int64("total_price", order.TotalPrice),
	)

	return instr, nil
}

// buildLines resolves the requested products against the cart snapshot and
// computes the server-side total. Quantities come from the request (already
// MOQ-floored when they entered the cart); prices always come from the cart.
func buildLines(cart *domain.Cart, products []ProductInput) ([]domain.ProductLine, int64, error) {
	byID := make(map[string]domain.CartItem, len(cart.Items))
	for _, item := range cart.Items {
		byID[item.ProductID] = item
	}

	lines := make([]domain.ProductLine, 0, len(products))
	seen := make(map[string]bool, len(products))
	var total int64
	for _, p := range products {
		if seen[p.Product] {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("product %s is listed more than once", p.Product))
		}
		seen[p.Product] = true
		item, ok := byID[p.Product]
		if !ok {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("product %s is not in the cart", p.Product))
		}
		qty := domain.ClampQuantity(p.Quantity)
		lines = append(lines, domain.ProductLine{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  qty,
		})
		total += item.UnitPrice * int64(qty)
	}

	return lines, total, nil
}

// newTxnID generates a gateway-safe transaction identifier. PayU limits
// txnid length, so the UUID is compacted.
func newTxnID() string {
	id := uuid.New()
	return fmt.Sprintf("TXN%x", id[:12])
}
