package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare-connect/pkg/security"
)

func authProbe(t *testing.T) (http.HandlerFunc, *string) {
	t.Helper()
	var gotUserID string
	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	})
	return handler, &gotUserID
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestAuthMiddlewareCookieToken(t *testing.T) {
	token, err := security.GenerateJWT("65f1b2c3d4e5f67890123456", time.Hour)
	require.NoError(t, err)

	handler, gotUserID := authProbe(t)

	r := httptest.NewRequest(http.MethodGet, "/user/logout", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()
	handler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "65f1b2c3d4e5f67890123456", *gotUserID)
}

func TestAuthMiddlewareBearerToken(t *testing.T) {
	token, err := security.GenerateJWT("65f1b2c3d4e5f67890123456", time.Hour)
	require.NoError(t, err)

	handler, gotUserID := authProbe(t)

	r := httptest.NewRequest(http.MethodGet, "/user/logout", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "65f1b2c3d4e5f67890123456", *gotUserID)
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler, _ := authProbe(t)

	r := httptest.NewRequest(http.MethodGet, "/user/logout", nil)
	w := httptest.NewRecorder()
	handler(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
}

func TestAuthMiddlewareForgedToken(t *testing.T) {
	handler, _ := authProbe(t)

	r := httptest.NewRequest(http.MethodGet, "/user/logout", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: "forged.token.value"})
	w := httptest.NewRecorder()
	handler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Json Web Token is Invalid, Try Again", body["message"])
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	token, err := security.GenerateJWT("65f1b2c3d4e5f67890123456", -time.Minute)
	require.NoError(t, err)

	handler, _ := authProbe(t)

	r := httptest.NewRequest(http.MethodGet, "/user/logout", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()
	handler(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Json Web Token is Expired, Try Again", body["message"])
}
