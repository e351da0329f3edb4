package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeAuthRequired      = "AUTH_REQUIRED"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidOrder      = "INVALID_ORDER"
	ErrCodeInvalidPromoCode  = "INVALID_PROMO_CODE"
	ErrCodeTransientStorage  = "TRANSIENT_STORAGE"
	ErrCodeExternalGateway   = "EXTERNAL_GATEWAY"
	ErrCodeSignatureInvalid  = "SIGNATURE_INVALID"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// DomainError is a business error carrying a stable code.
// Two domain errors match under errors.Is when their codes are equal, so a
// sentinel matches any more specific error built from it.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Wrap returns a copy of the error with a specific message and cause.
func (e *DomainError) Wrap(message string, err error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: message,
		Err:     err,
	}
}

// WithMessage returns a copy of the error with a specific message.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: message,
	}
}

// CodeOf returns the domain code of err, or ErrCodeInternalError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}

// Common domain errors
var (
	ErrValidation        = NewDomainError(ErrCodeValidation, "Invalid input")
	ErrAuthRequired      = NewDomainError(ErrCodeAuthRequired, "Please login to continue")
	ErrUnauthorised      = NewDomainError(ErrCodeUnauthorised, "Not Authorized")
	ErrNotFound          = NewDomainError(ErrCodeNotFound, "Not found")
	ErrProductNotFound   = NewDomainError(ErrCodeNotFound, "Product not found")
	ErrInvalidOrder      = NewDomainError(ErrCodeInvalidOrder, "Invalid order data")
	ErrInvalidPromoCode  = NewDomainError(ErrCodeInvalidPromoCode, "Invalid promo code")
	ErrTransientStorage  = NewDomainError(ErrCodeTransientStorage, "Storage temporarily unavailable")
	ErrExternalGateway   = NewDomainError(ErrCodeExternalGateway, "Payment provider unavailable")
	ErrSignatureInvalid  = NewDomainError(ErrCodeSignatureInvalid, "Webhook signature verification failed")
	ErrInvalidTransition = NewDomainError(ErrCodeInvalidTransition, "Invalid order state transition")
)
