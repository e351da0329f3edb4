package handler

import (
	"io"
	"net/http"

	"greencart/internal/model"
	"greencart/internal/payment"
	"greencart/internal/service"

	"github.com/rs/zerolog"
)

// maxWebhookBytes matches the provider's maximum event size.
const maxWebhookBytes = 65536

// WebhookHandler receives signed payment provider events.
type WebhookHandler struct {
	gateway payment.Gateway
	orders  service.OrderService
	logger  zerolog.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(gateway payment.Gateway, orders service.OrderService, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		gateway: gateway,
		orders:  orders,
		logger:  logger.With().Str("handler", "webhook").Logger(),
	}
}

// Handle verifies the signature over the raw body before anything else.
// Verification failures answer 400 and processing failures 500 so the
// provider retries; unhandled event types are acknowledged.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeError(w, model.ErrValidation.Wrap("Failed to read webhook body", err), h.logger)
		return
	}

	ev, err := h.gateway.ParseEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn().Err(err).Msg("webhook verification failed")
		writeError(w, err, h.logger)
		return
	}

	if err := h.orders.HandleEvent(r.Context(), ev); err != nil {
		h.logger.Error().Err(err).Str("event_id", ev.ID).Str("event_type", ev.Type).Msg("failed to process webhook")
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
