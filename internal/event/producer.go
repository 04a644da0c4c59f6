package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/indikaara/storefront/pkg/kafka"

	"github.com/indikaara/storefront/internal/domain"
)

// Kafka topics for storefront domain events.
const (
	TopicCartUpdated     = "storefront.cart.updated"
	TopicCartCleared     = "storefront.cart.cleared"
	TopicOrderCreated    = "storefront.order.created"
	TopicPaymentCaptured = "storefront.payment.captured"
	TopicPaymentFailed   = "storefront.payment.failed"
)

// Aggregate type constants.
const (
	AggregateTypeCart  = "cart"
	AggregateTypeOrder = "order"
)

// Source identifier for events originating from this service.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID    string         `json:"user_id"`
	Items     []CartItemData `json:"items"`
	ItemCount int            `json:"item_count"`
	Subtotal  int64          `json:"subtotal"`
	Currency  string         `json:"currency"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	UserID string `json:"user_id"`
}

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	TxnID      string `json:"txnid"`
	UserID     string `json:"user_id"`
	TotalPrice int64  `json:"total_price"`
	Currency   string `json:"currency"`
	LineCount  int    `json:"line_count"`
}

// PaymentCapturedData is the payload for a payment.captured event.
type PaymentCapturedData struct {
	TxnID  string `json:"txnid"`
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

// PaymentFailedData is the payload for a payment.failed event.
type PaymentFailedData struct {
	TxnID     string `json:"txnid"`
	UserID    string `json:"user_id"`
	ErrorCode string `json:"error_code,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}

	data := CartUpdatedData{
		UserID:    cart.UserID,
		Items:     items,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
		Currency:  cart.Currency,
	}

	event, err := pkgkafka.NewEvent(TopicCartUpdated, cart.UserID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, event); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("user_id", cart.UserID),
		slog.Int("item_count", cart.ItemCount()),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, userID string) error {
	data := CartClearedData{UserID: userID}

	event, err := pkgkafka.NewEvent(TopicCartCleared, userID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, event); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	return nil
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	data := OrderCreatedData{
		TxnID:      order.TxnID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		Currency:   order.Currency,
		LineCount:  len(order.Lines),
	}

	event, err := pkgkafka.NewEvent(TopicOrderCreated, order.TxnID, AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	return nil
}

// PublishPaymentCaptured publishes a payment.captured event. Published only
// on the first unpaid-to-paid transition, never on replayed returns.
func (p *Producer) PublishPaymentCaptured(ctx context.Context, txnid, userID string, amount int64) error {
	data := PaymentCapturedData{TxnID: txnid, UserID: userID, Amount: amount}

	event, err := pkgkafka.NewEvent(TopicPaymentCaptured, txnid, AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create payment.captured event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentCaptured, event); err != nil {
		return fmt.Errorf("publish payment.captured event: %w", err)
	}

	return nil
}

// PublishPaymentFailed publishes a payment.failed event.
func (p *Producer) PublishPaymentFailed(ctx context.Context, txnid, userID, errorCode, reason string) error {
	data := PaymentFailedData{TxnID: txnid, UserID: userID, ErrorCode: errorCode, Reason: reason}

	event, err := pkgkafka.NewEvent(TopicPaymentFailed, txnid, AggregateTypeOrder, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create payment.failed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentFailed, event); err != nil {
		return fmt.Errorf("publish payment.failed event: %w", err)
	}

	return nil
}
