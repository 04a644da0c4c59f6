package service

import (
	"context"
	"log/slog"
	"net/url"
	"os"

	"github.com/stretchr/testify/mock"

	pkgkafka "github.com/indikaara/storefront/pkg/kafka"

	"github.com/indikaara/storefront/internal/domain"
	"github.com/indikaara/storefront/internal/event"
	"github.com/indikaara/storefront/internal/gateway"
	"github.com/indikaara/storefront/internal/notify"
)

// --- Mock Repositories ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockPendingRefRepository struct {
	mock.Mock
}

func (m *mockPendingRefRepository) Get(ctx context.Context, userID string) (*domain.PendingOrderRef, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PendingOrderRef), args.Error(1)
}

func (m *mockPendingRefRepository) Save(ctx context.Context, userID string, ref *domain.PendingOrderRef) error {
	args := m.Called(ctx, userID, ref)
	return args.Error(0)
}

func (m *mockPendingRefRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByTxnID(ctx context.Context, txnid string) (*domain.Order, error) {
	args := m.Called(ctx, txnid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) MarkPaid(ctx context.Context, txnid string) (bool, error) {
	args := m.Called(ctx, txnid)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]domain.Order, int, error) {
	args := m.Called(ctx, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Initiate(ctx context.Context, in gateway.InitiateInput) (*gateway.RedirectInstruction, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.RedirectInstruction), args.Error(1)
}

func (m *mockGateway) AuthenticateReturn(params url.Values) error {
	args := m.Called(params)
	return args.Error(0)
}

func (m *mockGateway) Verify(ctx context.Context, txnid string) (*gateway.Verification, error) {
	args := m.Called(ctx, txnid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Verification), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestProducer returns an event producer backed by a Kafka writer with no
// reachable broker; publish errors are logged by the services, never
// surfaced, so tests exercise the log-but-do-not-fail path for free.
func newTestProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func newTestCartService(repo *mockCartRepository, broadcaster *notify.Broadcaster) *CartService {
	if broadcaster == nil {
		broadcaster = notify.NewBroadcaster()
	}
	return NewCartService(repo, newTestProducer(), broadcaster, newTestLogger())
}
