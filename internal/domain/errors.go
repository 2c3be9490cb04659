package domain

import (
	"errors"
	"fmt"
)

// Cart and checkout errors
var (
	ErrInvalidProduct     = errors.New("invalid product")
	ErrInvalidProductID   = errors.New("invalid product id")
	ErrInvalidQuantity    = errors.New("quantity must be greater than 0")
	ErrNegativeQuantity   = errors.New("quantity cannot be negative")
	ErrNoStock            = errors.New("product out of stock")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product is no longer available")
)

// Catalog and account errors
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrNotFoundOrForbidden = errors.New("product not found or not owned by user")
	ErrOrderNotFound       = errors.New("order not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("user with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token has expired")
)

// StockError carries the quantities behind an ErrInsufficientStock failure
type StockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
