package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/indikaara/storefront/internal/domain"
	"github.com/indikaara/storefront/internal/event"
	"github.com/indikaara/storefront/internal/gateway"
	"github.com/indikaara/storefront/internal/notify"
	redisrepo "github.com/indikaara/storefront/internal/repository/redis"
	"github.com/indikaara/storefront/internal/service"
	"github.com/indikaara/storefront/pkg/health"
	"github.com/indikaara/storefront/pkg/httputil"
	pkgkafka "github.com/indikaara/storefront/pkg/kafka"
)

const (
	testBaseURL   = "http://shop.test"
	testJWTSecret = "test-secret"
)

// --- Mock OrderRepository ---

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

// --- Mock Gateway ---

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

// --- Test Environment ---

// testEnv wires the production router against miniredis-backed cart state, a
// mocked order store, and a mocked gateway, so tests can assert on both HTTP
// responses and the surviving Redis state.
type testEnv struct {
	router http.Handler
	redis  *miniredis.Miniredis
	orders *mockOrderRepository
	gw     *mockGateway
	carts  *redisrepo.CartRepository
	refs   *redisrepo.PendingRefRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := testLogger()
	producer := testEventProducer()
	broadcaster := notify.NewBroadcaster()

	carts := redisrepo.NewCartRepository(client, 0)
	refs := redisrepo.NewPendingRefRepository(client, 0)
	orders := new(mockOrderRepository)
	gw := new(mockGateway)

	cartService := service.NewCartService(carts, producer, broadcaster, logger)
	checkoutService := service.NewCheckoutService(orders, refs, carts, gw, producer, logger)
	paymentService := service.NewPaymentService(orders, refs, cartService, gw, producer, logger)
	orderService := service.NewOrderService(orders, gw, logger)

	router := NewRouter(cartService, checkoutService, paymentService, orderService, health.NewHandler(), testBaseURL, testJWTSecret, logger)

	return &testEnv{
		router: router,
		redis:  mr,
		orders: orders,
		gw:     gw,
		carts:  carts,
		refs:   refs,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// seedCart persists a cart for the user directly through the repository.
func (e *testEnv) seedCart(t *testing.T, cart *domain.Cart) {
	t.Helper()
	require.NoError(t, e.carts.Save(context.Background(), cart))
}

func (e *testEnv) seedPendingRef(t *testing.T, userID string, ref *domain.PendingOrderRef) {
	t.Helper()
	require.NoError(t, e.refs.Save(context.Background(), userID, ref))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEventProducer points at an unreachable broker; services log publish
// failures and carry on.
func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:19092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

// decodeResponse reads the response body into the httputil.Response struct.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

// sampleCart returns a cart holding one rug line at the bulk minimum.
func sampleCart(userID string) *domain.Cart {
	cart := domain.NewCart(userID)
	cart.AddItem(domain.CartItem{
		ProductID: "rug-heriz-01",
		Title:     "Heriz Wool Rug",
		UnitPrice: 150000,
		Category:  "rugs",
		Variant:   domain.Variant{Size: "8x10", Color: "rust", Material: "wool"},
	}, 25)
	return cart
}
