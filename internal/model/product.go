package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a grocery product in the catalogue.
type Product struct {
	ID          string          `json:"_id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description []string        `json:"description" db:"description"`
	Category    string          `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	OfferPrice  decimal.Decimal `json:"offerPrice" db:"offer_price"`
	InStock     bool            `json:"inStock" db:"in_stock"`
	Images      []string        `json:"image" db:"images"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// ProductRequest is the seller payload for adding a product.
type ProductRequest struct {
	Name        string          `json:"name"`
	Description []string        `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	OfferPrice  decimal.Decimal `json:"offerPrice"`
	Images      []string        `json:"image"`
}

// StockRequest toggles a product's availability.
type StockRequest struct {
	ProductID string `json:"productId"`
	InStock   bool   `json:"inStock"`
}

// Catalog indexes products by id.
type Catalog map[string]Product

// NewCatalog builds a catalog from a product slice.
func NewCatalog(products []Product) Catalog {
	c := make(Catalog, len(products))
	for _, p := range products {
		c[p.ID] = p
	}
	return c
}
