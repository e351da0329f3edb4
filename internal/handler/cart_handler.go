package handler

import (
	"net/http"

	"greencart/internal/model"
	"greencart/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler serves the persisted cart.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart/get.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.service.Get(r.Context(), uid)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"cartItems": cart,
	})
}

// Update handles POST /api/cart/update. The body replaces the whole cart.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	cart, err := h.service.Replace(r.Context(), uid, req.CartItems)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Cart Updated",
		"cartItems": cart,
	})
}
