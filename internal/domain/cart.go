package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLineItem is one product-plus-quantity entry in a cart.
// Product is a snapshot taken when the line was added, not a live reference.
type CartLineItem struct {
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	Product   Product   `json:"product"`
	AddedAt   time.Time `json:"addedAt"`
}

// Subtotal returns price times quantity for the line
func (i CartLineItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartState is the full state of a session cart
type CartState struct {
	Items       []CartLineItem `json:"items"`
	LastUpdated *time.Time     `json:"lastUpdated"`
}

// CartSummary holds the totals derived from a cart
type CartSummary struct {
	ItemCount     int             `json:"itemCount"`
	DistinctItems int             `json:"totalItems"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Shipping      decimal.Decimal `json:"shipping"`
	Total         decimal.Decimal `json:"total"`
	IsEmpty       bool            `json:"isEmpty"`
}

// CloneItems copies a line item slice including each product snapshot
func CloneItems(items []CartLineItem) []CartLineItem {
	if items == nil {
		return nil
	}
	out := make([]CartLineItem, len(items))
	for i, item := range items {
		item.Product = item.Product.Snapshot()
		out[i] = item
	}
	return out
}
