package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/indikaara/storefront/pkg/errors"

	"github.com/indikaara/storefront/internal/domain"
	"github.com/indikaara/storefront/internal/event"
	"github.com/indikaara/storefront/internal/notify"
	"github.com/indikaara/storefront/internal/repository"
)

// AddItemInput holds the parameters for adding an item to the cart. The
// requested quantity may be anything positive; the MOQ floor is applied by
// the domain, not rejected here.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	UnitPrice int64  `json:"unit_price" validate:"required,gte=0"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
	Category  string `json:"category"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Material  string `json:"material"`
}

// UpdateQuantityInput holds the parameters for updating an item quantity.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity"`
}

// CartService implements the business logic for cart operations. Every
// successful mutation synchronously re-persists the serialized cart, then
// publishes a Kafka event and an in-process notification; publish failures
// are logged but never fail the mutation.
type CartService struct {
	repo        repository.CartRepository
	producer    *event.Producer
	broadcaster *notify.Broadcaster
	logger      *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(repo repository.CartRepository, producer *event.Producer, broadcaster *notify.Broadcaster, logger *slog.Logger) *CartService {
	return &CartService{
		repo:        repo,
		producer:    producer,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// GetCart retrieves the cart for a user. If no cart has been persisted yet,
// returns an empty cart.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewCart(userID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return cart, nil
}

// AddItem adds an item to the user's cart with quantity max(MOQ, requested).
// If a line for the same product exists, quantities merge additively and are
// re-floored at the MOQ.
func (s *CartService) AddItem(ctx context.Context, userID string, input AddItemInput) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.UnitPrice < 0 {
		return nil, apperrors.InvalidInput("unit price must not be negative")
	}

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.AddItem(domain.CartItem{
		ProductID: input.ProductID,
		Title:     input.Title,
		UnitPrice: input.UnitPrice,
		Category:  input.Category,
		Variant: domain.Variant{
			Size:     input.Size,
			Color:    input.Color,
			Material: input.Material,
		},
	}, input.Quantity)

	if err := s.persistAndNotify(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.String("product_id", input.ProductID),
		slog.Int("requested_quantity", input.Quantity),
		slog.Int("item_count", cart.ItemCount()),
	)

	return cart, nil
}

// UpdateItemQuantity sets an item's quantity, floored at the MOQ.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("cart item", productID)
		}
		return nil, fmt.Errorf("get cart for update: %w", err)
	}

	if !cart.SetQuantity(productID, quantity) {
		return nil, apperrors.NotFound("cart item", productID)
	}

	if err := s.persistAndNotify(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("requested_quantity", quantity),
	)

	return cart, nil
}

// RemoveItem deletes a line from the cart unconditionally.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	cart, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("cart item", productID)
		}
		return nil, fmt.Errorf("get cart for remove: %w", err)
	}

	if !cart.RemoveItem(productID) {
		return nil, apperrors.NotFound("cart item", productID)
	}

	if err := s.persistAndNotify(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)

	return cart, nil
}

// ClearCart removes the user's cart entirely. Clearing an absent cart is not
// an error, so the operation is safe to replay.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	if err := s.producer.PublishCartCleared(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.broadcaster.Publish(notify.CartChange{
		UserID:  userID,
		Cleared: true,
	})

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("user_id", userID),
	)

	return nil
}

// persistAndNotify re-persists the cart and fires the change broadcasts.
// Persistence failure aborts the mutation; broadcast failures do not.
func (s *CartService) persistAndNotify(ctx context.Context, cart *domain.Cart) error {
	if err := s.repo.Save(ctx, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}

	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", cart.UserID),
			slog.String("error", err.Error()),
		)
	}

	s.broadcaster.Publish(notify.CartChange{
		UserID:    cart.UserID,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
	})

	return nil
}
