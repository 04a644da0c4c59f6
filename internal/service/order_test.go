package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/indikaara/storefront/pkg/errors"
	"github.com/indikaara/storefront/pkg/pagination"

	"github.com/indikaara/storefront/internal/domain"
	"github.com/indikaara/storefront/internal/gateway"
)

func newTestOrderService(orders *mockOrderRepository, gw *mockGateway) *OrderService {
	return NewOrderService(orders, gw, newTestLogger())
}

func TestListMyOrders_ReturnsPage(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newTestOrderService(orders, new(mockGateway))
	ctx := context.Background()

	now := time.Now().UTC()
	list := []domain.Order{
		{TxnID: "T2", UserID: "user-1", CreatedAt: now},
		{TxnID: "T1", UserID: "user-1", CreatedAt: now.Add(-time.Hour)},
	}
	orders.On("ListByUser", ctx, "user-1", 1, 20).Return(list, 2, nil)

	result, err := svc.ListMyOrders(ctx, "user-1", pagination.DefaultParams())

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalCount)
	require.Len(t, result.Data, 2)
	assert.Equal(t, "T2", result.Data[0].TxnID)

	orders.AssertExpectations(t)
}

func TestListMyOrders_UnauthenticatedDegradesToEmpty(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newTestOrderService(orders, new(mockGateway))

	result, err := svc.ListMyOrders(context.Background(), "", pagination.DefaultParams())

	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalCount)
	assert.Empty(t, result.Data)

	orders.AssertNotCalled(t, "ListByUser", context.Background(), "", 1, 20)
}

func TestGetOrder_PaidOrderSkipsVerification(t *testing.T) {
	orders := new(mockOrderRepository)
	gw := new(mockGateway)
	svc := newTestOrderService(orders, gw)
	ctx := context.Background()

	order := &domain.Order{TxnID: "T1", UserID: "user-1", Paid: true, TotalPrice: 6000000}
	orders.On("GetByTxnID", ctx, "T1").Return(order, nil)

	detail, err := svc.GetOrder(ctx, "user-1", "T1")

	require.NoError(t, err)
	assert.Equal(t, order, detail.Order)
	assert.Empty(t, detail.GatewayStatus)

	gw.AssertNotCalled(t, "Verify", ctx, "T1")
}

func TestGetOrder_UnpaidOrderReportsGatewayStatus(t *testing.T) {
	orders := new(mockOrderRepository)
	gw := new(mockGateway)
	svc := newTestOrderService(orders, gw)
	ctx := context.Background()

	orders.On("GetByTxnID", ctx, "T1").Return(&domain.Order{TxnID: "T1", UserID: "user-1"}, nil)
	gw.On("Verify", ctx, "T1").Return(&gateway.Verification{TxnID: "T1", Status: "pending"}, nil)

	detail, err := svc.GetOrder(ctx, "user-1", "T1")

	require.NoError(t, err)
	assert.Equal(t, "pending", detail.GatewayStatus)
}

func TestGetOrder_VerificationFailureDegrades(t *testing.T) {
	orders := new(mockOrderRepository)
	gw := new(mockGateway)
	svc := newTestOrderService(orders, gw)
	ctx := context.Background()

	orders.On("GetByTxnID", ctx, "T1").Return(&domain.Order{TxnID: "T1", UserID: "user-1"}, nil)
	gw.On("Verify", ctx, "T1").Return(nil, apperrors.ServiceUnavailable("breaker open"))

	detail, err := svc.GetOrder(ctx, "user-1", "T1")

	require.NoError(t, err)
	assert.Empty(t, detail.GatewayStatus)
}

func TestGetOrder_OtherUsersOrderNotFound(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newTestOrderService(orders, new(mockGateway))
	ctx := context.Background()

	orders.On("GetByTxnID", ctx, "T1").Return(&domain.Order{TxnID: "T1", UserID: "user-2"}, nil)

	_, err := svc.GetOrder(ctx, "user-1", "T1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
