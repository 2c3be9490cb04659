package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product listed in the catalog by a seller
type Product struct {
	ID          int64           `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	CategoryID  int64           `json:"categoryId" db:"category_id"`
	OwnerID     int64           `json:"userId" db:"owner_id"`
	Images      []string        `json:"images" db:"images"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt,omitempty" db:"updated_at"`
}

// Snapshot returns a copy of the product that shares no memory with p.
func (p Product) Snapshot() Product {
	cp := p
	if p.Images != nil {
		cp.Images = append([]string(nil), p.Images...)
	}
	return cp
}

// InStock reports whether at least quantity units are available
func (p Product) InStock(quantity int) bool {
	return p.Stock >= quantity
}

// Category represents a product category
type Category struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}
