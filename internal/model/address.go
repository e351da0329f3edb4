package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Address is a shipping destination owned by a user.
type Address struct {
	ID        uuid.UUID `json:"_id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Street    string    `json:"street" db:"street"`
	City      string    `json:"city" db:"city"`
	State     string    `json:"state" db:"state"`
	ZipCode   string    `json:"zipCode" db:"zip_code"`
	Country   string    `json:"country" db:"country"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// AddressRequest is the payload of POST /api/address/add.
type AddressRequest struct {
	Address *Address `json:"address"`
}

// Normalise trims surrounding whitespace from the name and email fields.
func (a *Address) Normalise() {
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.Email = strings.TrimSpace(a.Email)
}

// Validate reports the first missing required field.
func (a *Address) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"firstName", a.FirstName},
		{"lastName", a.LastName},
		{"email", a.Email},
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
		{"phone", a.Phone},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return ErrValidation.WithMessage(f.name + " is required")
		}
	}
	return nil
}
