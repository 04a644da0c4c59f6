package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRequest(t *testing.T, method, path, userID string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	return req
}

func TestAddItem_FloorsQuantityToBulkMinimum(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/v1/cart/items", "user-001", AddItemRequest{
		ProductID: "rug-heriz-01",
		Title:     "Heriz Wool Rug",
		UnitPrice: 150000,
		Quantity:  1,
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	cart := resp.Data.(map[string]any)
	items := cart["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(25), items[0].(map[string]any)["quantity"])
}

func TestAddItem_MergeRefloorsCombinedQuantity(t *testing.T) {
	env := newTestEnv(t)

	first := env.do(t, jsonRequest(t, http.MethodPost, "/api/v1/cart/items", "user-001", AddItemRequest{
		ProductID: "rug-heriz-01",
		Title:     "Heriz Wool Rug",
		UnitPrice: 150000,
		Quantity:  1,
	}))
	require.Equal(t, http.StatusOK, first.Code)

	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/v1/cart/items", "user-001", AddItemRequest{
		ProductID: "rug-heriz-01",
		Title:     "Heriz Wool Rug",
		UnitPrice: 150000,
		Quantity:  10,
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	items := resp.Data.(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(50), items[0].(map[string]any)["quantity"])
}

func TestAddItem_RejectsMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, jsonRequest(t, http.MethodPost, "/api/v1/cart/items", "user-001", AddItemRequest{
		ProductID: "rug-heriz-01",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestGetCart_ReturnsEmptyCartForNewUser(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, jsonRequest(t, http.MethodGet, "/api/v1/cart", "user-001", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	cart := resp.Data.(map[string]any)
	assert.Equal(t, "user-001", cart["user_id"])
	assert.Empty(t, cart["items"])
}

func TestGetCart_UnauthenticatedIsRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, jsonRequest(t, http.MethodGet, "/api/v1/cart", "", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateItemQuantity_ClampsBelowMinimum(t *testing.T) {
	env := newTestEnv(t)
	env.seedCart(t, sampleCart("user-001"))

	rec := env.do(t, jsonRequest(t, http.MethodPut, "/api/v1/cart/items/rug-heriz-01", "user-001", UpdateQuantityRequest{
		Quantity: 3,
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	items := resp.Data.(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(25), items[0].(map[string]any)["quantity"])
}

func TestUpdateItemQuantity_UnknownProductIs404(t *testing.T) {
	env := newTestEnv(t)
	env.seedCart(t, sampleCart("user-001"))

	rec := env.do(t, jsonRequest(t, http.MethodPut, "/api/v1/cart/items/no-such-product", "user-001", UpdateQuantityRequest{
		Quantity: 30,
	}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveItem_DeletesLine(t *testing.T) {
	env := newTestEnv(t)
	env.seedCart(t, sampleCart("user-001"))

	rec := env.do(t, jsonRequest(t, http.MethodDelete, "/api/v1/cart/items/rug-heriz-01", "user-001", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Empty(t, resp.Data.(map[string]any)["items"])
}

func TestClearCart_RemovesPersistedCart(t *testing.T) {
	env := newTestEnv(t)
	env.seedCart(t, sampleCart("user-001"))

	rec := env.do(t, jsonRequest(t, http.MethodDelete, "/api/v1/cart", "user-001", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, env.redis.Exists("cart:user-001"))
}
