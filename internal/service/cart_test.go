package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/indikaara/storefront/pkg/errors"

	"github.com/indikaara/storefront/internal/domain"
	"github.com/indikaara/storefront/internal/notify"
)

func cartWithItem(userID string) *domain.Cart {
	cart := domain.NewCart(userID)
	cart.Items = []domain.CartItem{
		{ProductID: "rug-1", Title: "Jute Rug", UnitPrice: 150000, Quantity: 25},
	}
	return cart
}

// --- GetCart ---

func TestGetCart_NoPersistedCart(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo, nil)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))

	cart, err := svc.GetCart(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", cart.UserID)
	assert.Empty(t, cart.Items)
	assert.Equal(t, "INR", cart.Currency)

	repo.AssertExpectations(t)
}

func TestGetCart_Existing(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo, nil)
	ctx := context.Background()

	expected := cartWithItem("user-1")
	repo.On("Get", ctx, "user-1").Return(expected, nil)

	cart, err := svc.GetCart(ctx, "user-1")

	require.NoError(t, err)
	assert.Equal(t, expected, cart)

	repo.AssertExpectations(t)
}

func TestGetCart_MissingUserID(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo, nil)

	_, err := svc.GetCart(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- AddItem ---

func TestAddItem_NewCartFloorsQuantity(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo, nil)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.AddItem(ctx, "user-1", AddItemInput{
		ProductID: "rug-1",
		Title:     "Jute Rug",
		UnitPrice: 150000,
		Quantity:  1,
	})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 25, cart.Items[0].Quantity)

	repo.AssertExpectations(t)
}

func TestAddItem_MergeRefloors(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo, nil)
	ctx := context.Background()

	existing := cartWithItem("user-1")
	repo.On("Get", ctx, "user-1").Return(existing, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.AddItem(ctx, "user-1", AddItemInput{
		ProductID: "rug-1",
		Title:     "Jute Rug",
		UnitPrice: 150000,
		Quantity:  10,
	})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	// 25 existing + max(25, 10) = 50.
	assert.Equal(t, 50, cart.Items[0].Quantity)

	repo.AssertExpectations(t)
}

func TestAddItem_PersistsSynchronously(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo, nil)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))
	repo.On("Save", ctx, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 1 && c.Items[0].Quantity == 25
	})).Return(nil)

	_, err := svc.AddItem(ctx, "user-1", AddItemInput{
		ProductID: "rug-1", Title: "Jute Rug", UnitPrice: 150000, Quantity: 5,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAddItem_SaveFailureSurfaced(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo, nil)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(assert.AnError)

	_, err := svc.AddItem(ctx, "user-1", AddItemInput{
		ProductID: "rug-1", Title: "Jute Rug", UnitPrice: 150000, Quantity: 25,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save cart")
}

func TestAddItem_Validation(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		userID string
		input  AddItemInput
	}{
		{"missing user", "", AddItemInput{ProductID: "rug-1", Quantity: 25}},
		{"missing product", "user-1", AddItemInput{Quantity: 25}},
		{"zero quantity", "user-1", AddItemInput{ProductID: "rug-1", Quantity: 0}},
		{"negative price", "user-1", AddItemInput{ProductID: "rug-1", Quantity: 25, UnitPrice: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, tt.userID, tt.input)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

// --- Notifications ---

func TestAddItem_BroadcastsChange(t *testing.T) {
	repo := new(mockCartRepository)
	broadcaster := notify.NewBroadcaster()
	svc := newTestCartService(repo, broadcaster)
	ctx := context.Background()

	var changes []notify.CartChange
	broadcaster.Subscribe(func(c notify.CartChange) { changes = append(changes, c) })

	repo.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	_, err := svc.AddItem(ctx, "user-1", AddItemInput{
		ProductID: "rug-1", Title: "Jute Rug", UnitPrice: 150000, Quantity: 25,
	})

	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "user-1", changes[0].UserID)
	assert.Equal(t, 25, changes[0].ItemCount)
	assert.Equal(t, int64(150000*25), changes[0].Subtotal)
	assert.False(t, changes[0].Cleared)
}

func TestClearCart_BroadcastsCleared(t *testing.T) {
	repo := new(mockCartRepository)
	broadcaster := notify.NewBroadcaster()
	svc := newTestCartService(repo, broadcaster)
	ctx := context.Background()

	var changes []notify.CartChange
	broadcaster.Subscribe(func(c notify.CartChange) { changes = append(changes, c) })

	repo.On("Delete", ctx, "user-1").Return(nil)

	require.NoError(t, svc.ClearCart(ctx, "user-1"))

	require.Len(t, changes, 1)
	assert.True(t, changes[0].Cleared)
	assert.Equal(t, 0, changes[0].ItemCount)
}

// --- UpdateItemQuantity ---

func TestUpdateItemQuantity_Clamped(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo, nil)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(cartWithItem("user-1"), nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.UpdateItemQuantity(ctx, "user-1", "rug-1", 3)

	require.NoError(t, err)
	assert.Equal(t, 25, cart.Items[0].Quantity)

	repo.AssertExpectations(t)
}

func TestUpdateItemQuantity_UnknownItem(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo, nil)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(cartWithItem("user-1"), nil)

	_, err := svc.UpdateItemQuantity(ctx, "user-1", "vase-404", 30)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- RemoveItem ---

func TestRemoveItem_Success(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo, nil)
	ctx := context.Background()

	repo.On("Get", ctx, "user-1").Return(cartWithItem("user-1"), nil)
	repo.On("Save", ctx, mock.AnythingOfType("*domain.Cart")).Return(nil)

	cart, err := svc.RemoveItem(ctx, "user-1", "rug-1")

	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

// --- ClearCart ---

func TestClearCart_DeleteForwarded(t *testing.T) {
	repo := new(mockCartRepository)
	svc := newTestCartService(repo, nil)
	ctx := context.Background()

	repo.On("Delete", ctx, "user-1").Return(nil)

	assert.NoError(t, svc.ClearCart(ctx, "user-1"))
	repo.AssertExpectations(t)
}
