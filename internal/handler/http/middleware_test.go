package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func identityProbe(t *testing.T, secret string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var seen string
	h := UserIdentity(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromRequest(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	decorate(req)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		rec.Header().Set("X-Seen-User", seen)
	}
	return rec
}

func TestUserIdentity_BearerTokenWins(t *testing.T) {
	token := signToken(t, testJWTSecret, jwt.MapClaims{
		"user_id": "user-jwt",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec := identityProbe(t, testJWTSecret, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
		r.Header.Set("X-User-ID", "user-header")
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-jwt", rec.Header().Get("X-Seen-User"))
}

func TestUserIdentity_SubClaimFallback(t *testing.T) {
	token := signToken(t, testJWTSecret, jwt.MapClaims{
		"sub": "user-sub",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	rec := identityProbe(t, testJWTSecret, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-sub", rec.Header().Get("X-Seen-User"))
}

func TestUserIdentity_InvalidTokenIsRejected(t *testing.T) {
	token := signToken(t, "wrong-secret", jwt.MapClaims{
		"user_id": "user-jwt",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec := identityProbe(t, testJWTSecret, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserIdentity_ExpiredTokenIsRejected(t *testing.T) {
	token := signToken(t, testJWTSecret, jwt.MapClaims{
		"user_id": "user-jwt",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	rec := identityProbe(t, testJWTSecret, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserIdentity_MalformedAuthorizationHeaderIsRejected(t *testing.T) {
	rec := identityProbe(t, testJWTSecret, func(r *http.Request) {
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserIdentity_HeaderFallback(t *testing.T) {
	rec := identityProbe(t, testJWTSecret, func(r *http.Request) {
		r.Header.Set("X-User-ID", "user-header")
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-header", rec.Header().Get("X-Seen-User"))
}

func TestUserIdentity_AnonymousPassesThrough(t *testing.T) {
	rec := identityProbe(t, testJWTSecret, func(*http.Request) {})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Seen-User"))
}

func TestUserIdentity_NoSecretIgnoresBearer(t *testing.T) {
	rec := identityProbe(t, "", func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-even-a-token")
		r.Header.Set("X-User-ID", "user-header")
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-header", rec.Header().Get("X-Seen-User"))
}
