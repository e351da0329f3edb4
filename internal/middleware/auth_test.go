package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestRequireUser(t *testing.T) {
	auth := NewAuthenticator(testSecret, "seller@example.com", zerolog.Nop())
	valid := signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	tests := []struct {
		name           string
		prepare        func(r *http.Request)
		expectedStatus int
		expectedUser   string
	}{
		{
			name:           "Cookie token",
			prepare:        func(r *http.Request) { r.AddCookie(&http.Cookie{Name: UserCookie, Value: valid}) },
			expectedStatus: http.StatusOK,
			expectedUser:   "user-1",
		},
		{
			name:           "Bearer token",
			prepare:        func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) },
			expectedStatus: http.StatusOK,
			expectedUser:   "user-1",
		},
		{
			name:           "Missing token",
			prepare:        func(r *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Wrong secret",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: UserCookie, Value: signToken(t, "other", jwt.SigningMethodHS256, jwt.MapClaims{"id": "user-1"})})
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Expired token",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: UserCookie, Value: signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{
					"id": "user-1", "exp": time.Now().Add(-time.Minute).Unix(),
				})})
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Other HMAC algorithm",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: UserCookie, Value: signToken(t, testSecret, jwt.SigningMethodHS512, jwt.MapClaims{"id": "user-1"})})
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Missing id claim",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: UserCookie, Value: signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})})
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			handler := auth.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = UserIDFrom(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/cart/get", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedUser, gotUser)
			if tt.expectedStatus == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRequireSeller(t *testing.T) {
	auth := NewAuthenticator(testSecret, "seller@example.com", zerolog.Nop())

	tests := []struct {
		name           string
		email          string
		cookie         string
		expectedStatus int
	}{
		{"Configured seller", "seller@example.com", SellerCookie, http.StatusOK},
		{"Case-insensitive email", "Seller@Example.com", SellerCookie, http.StatusOK},
		{"Other email", "someone@example.com", SellerCookie, http.StatusUnauthorized},
		{"User cookie is not enough", "seller@example.com", UserCookie, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := auth.RequireSeller(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, called = SellerFrom(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/order/seller", nil)
			req.AddCookie(&http.Cookie{
				Name:  tt.cookie,
				Value: signToken(t, testSecret, jwt.SigningMethodHS256, jwt.MapClaims{"email": tt.email}),
			})
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedStatus == http.StatusOK, called)
		})
	}
}
