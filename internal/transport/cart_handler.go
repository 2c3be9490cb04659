package transport

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartProvider hands out the cart of a session
type CartProvider interface {
	Get(ctx context.Context, sessionID int64) (*cart.Store, error)
}

// ProductLookup resolves the live catalog entry added to a cart
type ProductLookup interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// AddItemRequest is the body of POST /cart/items. A missing quantity adds one unit.
type AddItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity,omitempty" validate:"omitnil,gte=1"`
}

// quantity returns the requested quantity, defaulting to one
func (r AddItemRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// UpdateItemRequest is the body of PUT /cart/items/{productId}. Zero removes the line.
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CheckoutRequest is the body of POST /cart/checkout
type CheckoutRequest struct {
	ShippingInfo  domain.ShippingInfo  `json:"shippingInfo" validate:"required"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" validate:"required,oneof=credit_card debit_card transfer cash"`
}

// CartView is the cart as returned to clients
type CartView struct {
	Items       []domain.CartLineItem `json:"items"`
	LastUpdated *time.Time            `json:"lastUpdated"`
	Summary     domain.CartSummary    `json:"summary"`
}

// CartHandler serves the session cart and checkout
type CartHandler struct {
	carts       CartProvider
	products    ProductLookup
	maxQuantity int
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler. maxQuantity bounds the quantity
// of a single add or update request; zero disables the bound.
func NewCartHandler(carts CartProvider, products ProductLookup, maxQuantity int, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, products: products, maxQuantity: maxQuantity, logger: logger}
}

// RegisterRoutes registers the cart routes, all of which need a session
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productId}", h.UpdateItem)
		r.Delete("/items/{productId}", h.RemoveItem)
		r.Post("/checkout", h.Checkout)
	})
}

func (h *CartHandler) sessionCart(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return nil, false
	}
	store, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return nil, false
	}
	return store, true
}

func (h *CartHandler) tooMany(w http.ResponseWriter, quantity int) bool {
	if h.maxQuantity > 0 && quantity > h.maxQuantity {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{
			Field:   "quantity",
			Message: "Value must be less than or equal to " + strconv.Itoa(h.maxQuantity),
		}})
		return true
	}
	return false
}

func respondWithCart(w http.ResponseWriter, store *cart.Store) {
	state := store.State()
	middleware.RespondWithJSON(w, http.StatusOK, CartView{
		Items:       state.Items,
		LastUpdated: state.LastUpdated,
		Summary:     store.Summary(),
	})
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	store, ok := h.sessionCart(w, r)
	if !ok {
		return
	}
	respondWithCart(w, store)
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	store, ok := h.sessionCart(w, r)
	if !ok {
		return
	}
	store.Clear(r.Context())
	respondWithCart(w, store)
}

// AddItem adds a quantity of a live catalog product to the cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	quantity := req.quantity()
	if h.tooMany(w, quantity) {
		return
	}

	store, ok := h.sessionCart(w, r)
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	if err := store.Add(r.Context(), product, quantity); err != nil {
		h.logger.Debug("Add to cart rejected", zap.Int64("product_id", req.ProductID), zap.Error(err))
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	respondWithCart(w, store)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}
	if h.tooMany(w, *req.Quantity) {
		return
	}

	store, ok := h.sessionCart(w, r)
	if !ok {
		return
	}

	if err := store.UpdateQuantity(r.Context(), productID, *req.Quantity); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	respondWithCart(w, store)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}

	store, ok := h.sessionCart(w, r)
	if !ok {
		return
	}

	if err := store.Remove(r.Context(), productID); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	respondWithCart(w, store)
}

// Checkout turns the cart into an order
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	store, ok := h.sessionCart(w, r)
	if !ok {
		return
	}

	order, err := store.Checkout(r.Context(), req.ShippingInfo, req.PaymentMethod)
	if err != nil {
		h.logger.Debug("Checkout rejected", zap.Error(err))
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}
