package handler

import (
	"net/http"
	"time"

	"greencart/internal/model"
	"greencart/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
		now:     time.Now,
	}
}

// PlaceCOD handles POST /api/order/cod.
func (h *OrderHandler) PlaceCOD(w http.ResponseWriter, r *http.Request) {
	placed, ok := h.place(w, r, model.PaymentCOD)
	if !ok {
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Order Placed Successfully",
		"data":    placed.Order,
	})
}

// PlaceOnline handles POST /api/order/stripe.
func (h *OrderHandler) PlaceOnline(w http.ResponseWriter, r *http.Request) {
	placed, ok := h.place(w, r, model.PaymentOnline)
	if !ok {
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Redirecting to payment",
		"url":     placed.URL,
		"data":    placed.Order,
	})
}

func (h *OrderHandler) place(w http.ResponseWriter, r *http.Request, paymentType model.PaymentType) (*model.PlacedOrder, bool) {
	uid, ok := userID(w, r, h.logger)
	if !ok {
		return nil, false
	}

	var req model.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err, h.logger)
		return nil, false
	}

	placed, err := h.service.PlaceOrder(r.Context(), uid, &req, paymentType, r.Header.Get("Origin"))
	if err != nil {
		writeError(w, err, h.logger)
		return nil, false
	}
	return placed, true
}

// ListUser handles GET /api/order/user.
func (h *OrderHandler) ListUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.service.ListUserOrders(r.Context(), uid)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeOrders(w, orders)
}

// ListSeller handles GET /api/order/seller.
func (h *OrderHandler) ListSeller(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAllOrders(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}
	writeOrders(w, orders)
}

// Export handles GET /api/order/seller/export.
func (h *OrderHandler) Export(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAllOrders(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	file, err := buildOrdersWorkbook(orders)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	filename := "orders-" + h.now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Type", xlsxContentType)
	if err := file.Write(w); err != nil {
		// Headers are already sent.
		h.logger.Error().Err(err).Msg("failed to write order export")
		return
	}

	h.logger.Info().Int("orders", len(orders)).Msg("orders exported")
}

func writeOrders(w http.ResponseWriter, orders []model.OrderView) {
	if orders == nil {
		orders = []model.OrderView{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  orders,
	})
}
