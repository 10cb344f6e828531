package domain

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog item. Rating is the cached mean of the product's
// active ratings and is written only by the review service.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Stock       int             `json:"stock"`
	CategoryID  string          `json:"category_id"`
	SupplierID  *string         `json:"supplier_id,omitempty"`
	IsActive    bool            `json:"is_active"`
	Rating      decimal.Decimal `json:"rating"`
}

// Available reports whether the product is listed to shoppers.
func (p *Product) Available() bool {
	return p.IsActive && p.Stock > 0
}
