package domain

import "time"

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod identifies how an order is paid
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentTransfer   PaymentMethod = "transfer"
	PaymentCash       PaymentMethod = "cash"
)

// ShippingInfo holds the delivery details captured at checkout
type ShippingInfo struct {
	FullName   string `json:"fullName" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Phone      string `json:"phone,omitempty"`
}

// Order is a completed checkout. Items are a snapshot of the cart at that time.
type Order struct {
	ID            string         `json:"id"`
	Items         []CartLineItem `json:"items"`
	Summary       CartSummary    `json:"summary"`
	ShippingInfo  ShippingInfo   `json:"shippingInfo"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
	Status        OrderStatus    `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// HasSeller reports whether any line of the order belongs to sellerID
func (o *Order) HasSeller(sellerID int64) bool {
	for _, item := range o.Items {
		if item.Product.OwnerID == sellerID {
			return true
		}
	}
	return false
}
