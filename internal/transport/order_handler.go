package transport

import (
	"context"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/order"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SalesLedger is the read side of the order ledger
type SalesLedger interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindBySeller(ctx context.Context, sellerID int64) ([]domain.Order, error)
	SellerStats(ctx context.Context, sellerID int64) (*order.SellerStats, error)
}

// OrderHandler shows sellers the orders containing their products
type OrderHandler struct {
	ledger SalesLedger
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(ledger SalesLedger, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{ledger: ledger, logger: logger}
}

// RegisterRoutes registers the order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/sales", h.Sales)
		r.Get("/sales/stats", h.Stats)
		r.Get("/{orderId}", h.Get)
	})
}

// Sales lists the orders holding at least one of the caller's products
func (h *OrderHandler) Sales(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.ledger.FindBySeller(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.ledger.SellerStats(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// Get returns one order, visible only to sellers with a line in it
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	o, err := h.ledger.FindByID(r.Context(), chi.URLParam(r, "orderId"))
	if err == nil && !o.HasSeller(userID) {
		err = domain.ErrOrderNotFound
	}
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, o)
}
