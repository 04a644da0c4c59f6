package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/indikaara/storefront/internal/domain"
	"github.com/indikaara/storefront/internal/gateway"
	apperrors "github.com/indikaara/storefront/pkg/errors"
	"github.com/indikaara/storefront/pkg/pagination"
)

func TestListMyOrders_ReturnsDescendingPage(t *testing.T) {
	env := newTestEnv(t)

	now := time.Now().UTC()
	env.orders.On("ListByUser", mock.Anything, "user-001", 1, 20).Return([]domain.Order{
		{TxnID: "TXN2", UserID: "user-001", CreatedAt: now},
		{TxnID: "TXN1", UserID: "user-001", CreatedAt: now.Add(-time.Hour)},
	}, 2, nil).Once()

	rec := env.do(t, jsonRequest(t, http.MethodGet, "/api/v1/orders/my", "user-001", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var result pagination.Result[domain.Order]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 2, result.TotalCount)
	require.Len(t, result.Data, 2)
	assert.Equal(t, "TXN2", result.Data[0].TxnID)
}

func TestListMyOrders_ForwardsPaginationParams(t *testing.T) {
	env := newTestEnv(t)

	env.orders.On("ListByUser", mock.Anything, "user-001", 3, 5).Return([]domain.Order{}, 12, nil).Once()

	rec := env.do(t, jsonRequest(t, http.MethodGet, "/api/v1/orders/my?page=3&per_page=5", "user-001", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	env.orders.AssertExpectations(t)
}

func TestListMyOrders_UnauthenticatedGetsEmptyPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, jsonRequest(t, http.MethodGet, "/api/v1/orders/my", "", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var result pagination.Result[domain.Order]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 0, result.TotalCount)
	assert.Empty(t, result.Data)

	env.orders.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetOrder_ReturnsDetailWithGatewayStatus(t *testing.T) {
	env := newTestEnv(t)

	env.orders.On("GetByTxnID", mock.Anything, "TXN123").
		Return(&domain.Order{TxnID: "TXN123", UserID: "user-001", TotalPrice: 3750000}, nil).Once()
	env.gw.On("Verify", mock.Anything, "TXN123").
		Return(&gateway.Verification{TxnID: "TXN123", Status: "pending"}, nil).Once()

	rec := env.do(t, jsonRequest(t, http.MethodGet, "/api/v1/orders/TXN123", "user-001", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "pending", data["gateway_status"])
	order := data["order"].(map[string]any)
	assert.Equal(t, "TXN123", order["txnid"])
}

func TestGetOrder_OtherUsersOrderIs404(t *testing.T) {
	env := newTestEnv(t)

	env.orders.On("GetByTxnID", mock.Anything, "TXN123").
		Return(&domain.Order{TxnID: "TXN123", UserID: "user-002"}, nil).Once()

	rec := env.do(t, jsonRequest(t, http.MethodGet, "/api/v1/orders/TXN123", "user-001", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRetryPayment_ReusesOriginalTxnID(t *testing.T) {
	env := newTestEnv(t)

	order := &domain.Order{TxnID: "TXN123", UserID: "user-001", TotalPrice: 3750000}
	env.orders.On("GetByTxnID", mock.Anything, "TXN123").Return(order, nil).Once()
	env.gw.On("Initiate", mock.Anything, mock.MatchedBy(func(in gateway.InitiateInput) bool {
		return in.Order.TxnID == "TXN123"
	})).Return(&gateway.RedirectInstruction{
		FormData:   map[string]string{"txnid": "TXN123"},
		PaymentURL: "https://secure.payu.in/_payment",
	}, nil).Once()

	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/v1/orders/TXN123/retry", "user-001", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	form := resp.Data.(map[string]any)["formData"].(map[string]any)
	assert.Equal(t, "TXN123", form["txnid"])

	env.gw.AssertExpectations(t)
}

func TestRetryPayment_UnknownOrderIs404(t *testing.T) {
	env := newTestEnv(t)

	env.orders.On("GetByTxnID", mock.Anything, "TXN999").
		Return(nil, apperrors.NotFound("order", "TXN999")).Once()

	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/v1/orders/TXN999/retry", "user-001", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
