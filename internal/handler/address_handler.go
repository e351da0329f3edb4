package handler

import (
	"net/http"

	"greencart/internal/model"
	"greencart/internal/service"

	"github.com/rs/zerolog"
)

// AddressHandler handles shipping address requests.
type AddressHandler struct {
	service service.AddressService
	logger  zerolog.Logger
}

// NewAddressHandler creates a new address handler.
func NewAddressHandler(service service.AddressService, logger zerolog.Logger) *AddressHandler {
	return &AddressHandler{
		service: service,
		logger:  logger.With().Str("handler", "address").Logger(),
	}
}

// Add handles POST /api/address/add.
func (h *AddressHandler) Add(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.logger)
	if !ok {
		return
	}

	var req model.AddressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	address, err := h.service.Add(r.Context(), uid, req.Address)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Address added successfully",
		"address": address,
	})
}

// List handles GET /api/address/get.
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.logger)
	if !ok {
		return
	}

	addresses, err := h.service.ListByUser(r.Context(), uid)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	if addresses == nil {
		addresses = []model.Address{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"addresses": addresses,
	})
}
