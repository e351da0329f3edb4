package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"greencart/internal/middleware"
	"greencart/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError maps err to a status code and writes the error envelope.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	code := model.CodeOf(err)
	status := statusForCode(code)

	message := "Internal server error"
	var de *model.DomainError
	if errors.As(err, &de) {
		message = de.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", code).Int("status", status).Msg("handler error")
	} else {
		logger.Debug().Err(err).Str("code", code).Int("status", status).Msg("request rejected")
	}

	writeJSON(w, status, model.ErrorResponse{Success: false, Message: message, Code: code})
}

func statusForCode(code string) int {
	switch code {
	case model.ErrCodeValidation, model.ErrCodeInvalidOrder, model.ErrCodeInvalidPromoCode, model.ErrCodeSignatureInvalid:
		return http.StatusBadRequest
	case model.ErrCodeAuthRequired, model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidTransition:
		return http.StatusConflict
	case model.ErrCodeTransientStorage:
		return http.StatusServiceUnavailable
	case model.ErrCodeExternalGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.ErrValidation.Wrap("Invalid request body", err)
	}
	return nil
}

// userID returns the authenticated user or writes an auth error.
func userID(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (string, bool) {
	id, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		writeError(w, model.ErrAuthRequired, logger)
		return "", false
	}
	return id, true
}
