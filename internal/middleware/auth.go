package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"greencart/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const (
	// UserCookie holds the shopper's token.
	UserCookie = "token"
	// SellerCookie holds the seller's token.
	SellerCookie = "sellerToken"
)

// Authenticator verifies HS256 tokens issued by the identity provider.
type Authenticator struct {
	secret      []byte
	sellerEmail string
	logger      zerolog.Logger
}

// NewAuthenticator creates an authenticator for the given signing secret.
func NewAuthenticator(secret, sellerEmail string, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		secret:      []byte(secret),
		sellerEmail: sellerEmail,
		logger:      logger.With().Str("component", "auth").Logger(),
	}
}

// RequireUser rejects requests without a valid user token and stores the
// user ID in the request context.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r, UserCookie)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, model.ErrCodeAuthRequired, model.ErrAuthRequired.Message)
			return
		}

		claims, err := a.parse(raw)
		if err != nil {
			a.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("rejected user token")
			writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
			return
		}

		id, _ := claims["id"].(string)
		if id == "" {
			writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
	})
}

// RequireSeller admits only tokens whose email claim is the configured seller.
func (a *Authenticator) RequireSeller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r, SellerCookie)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
			return
		}

		claims, err := a.parse(raw)
		if err != nil {
			a.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("rejected seller token")
			writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
			return
		}

		email, _ := claims["email"].(string)
		if email == "" || !strings.EqualFold(email, a.sellerEmail) {
			writeError(w, http.StatusUnauthorized, model.ErrCodeUnauthorised, model.ErrUnauthorised.Message)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSeller(r.Context(), email)))
	})
}

func (a *Authenticator) parse(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// tokenFromRequest prefers the named cookie and falls back to a bearer header.
func tokenFromRequest(r *http.Request, cookie string) string {
	if c, err := r.Cookie(cookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
