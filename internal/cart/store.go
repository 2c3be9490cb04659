package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/kvstore"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductFinder resolves products against the live catalog
type ProductFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
}

// OrderRecorder persists completed orders
type OrderRecorder interface {
	Append(ctx context.Context, order *domain.Order) error
}

// Pricing holds the shipping rules applied by Summary
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	ShippingCost          decimal.Decimal
}

// Store is the cart of a single session. All methods are safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	items       []domain.CartLineItem
	lastUpdated *time.Time

	blobs   kvstore.Store
	catalog ProductFinder
	ledger  OrderRecorder
	pricing Pricing
	logger  *zap.Logger

	now     func() time.Time
	orderID func() string
}

// NewStore creates an empty cart that persists to blobs. Call Load to restore
// a previously saved cart.
func NewStore(blobs kvstore.Store, catalog ProductFinder, ledger OrderRecorder, pricing Pricing, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		items:   []domain.CartLineItem{},
		blobs:   blobs,
		catalog: catalog,
		ledger:  ledger,
		pricing: pricing,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		orderID: func() string { return "order-" + uuid.NewString() },
	}
}

func (s *Store) indexOf(productID int64) int {
	for i := range s.items {
		if s.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// touch records a mutation and persists the item list. Must be called with s.mu held.
func (s *Store) touch(ctx context.Context) {
	now := s.now()
	s.lastUpdated = &now
	s.persist(ctx)
}

func (s *Store) persist(ctx context.Context) {
	if s.blobs == nil {
		return
	}
	if err := kvstore.SetJSON(ctx, s.blobs, kvstore.KeyCartItems, s.items); err != nil {
		s.logger.Error("Failed to persist cart", zap.Error(err), zap.Int("items", len(s.items)))
	}
}

// Add puts quantity units of product in the cart, merging with an existing line.
// The stock check covers the units already in the cart.
func (s *Store) Add(ctx context.Context, product *domain.Product, quantity int) error {
	if product == nil || product.ID <= 0 {
		return domain.ErrInvalidProduct
	}
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	if product.Stock == 0 {
		return domain.ErrNoStock
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := 0
	i := s.indexOf(product.ID)
	if i >= 0 {
		current = s.items[i].Quantity
	}
	if current+quantity > product.Stock {
		return &domain.StockError{
			ProductID: product.ID,
			Requested: quantity,
			Available: product.Stock - current,
		}
	}

	if i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, domain.CartLineItem{
			ProductID: product.ID,
			Quantity:  quantity,
			Product:   product.Snapshot(),
			AddedAt:   s.now(),
		})
	}

	s.touch(ctx)
	return nil
}

// Remove deletes the line for productID. Removing an absent product is not an error.
func (s *Store) Remove(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return domain.ErrInvalidProductID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(productID)
	s.touch(ctx)
	return nil
}

func (s *Store) remove(productID int64) {
	if i := s.indexOf(productID); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
}

// UpdateQuantity sets the quantity of a line exactly. Zero removes the line.
// The stock check uses the snapshot taken when the line was added.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	if productID <= 0 {
		return domain.ErrInvalidProductID
	}
	if quantity < 0 {
		return domain.ErrNegativeQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity == 0 {
		s.remove(productID)
		s.touch(ctx)
		return nil
	}

	if i := s.indexOf(productID); i >= 0 {
		if quantity > s.items[i].Product.Stock {
			return &domain.StockError{
				ProductID: productID,
				Requested: quantity,
				Available: s.items[i].Product.Stock,
			}
		}
		s.items[i].Quantity = quantity
	}

	s.touch(ctx)
	return nil
}

// Clear empties the cart
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []domain.CartLineItem{}
	s.touch(ctx)
}

// detach empties the cart, deletes its blob and stops further persistence.
// Callers still holding the Store after a logout only change memory.
func (s *Store) detach(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []domain.CartLineItem{}
	s.lastUpdated = nil
	if s.blobs == nil {
		return
	}
	if err := s.blobs.Delete(ctx, kvstore.KeyCartItems); err != nil {
		s.logger.Warn("Failed to delete cart", zap.Error(err))
	}
	s.blobs = nil
}

// Summary computes the cart totals
func (s *Store) Summary() domain.CartSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary()
}

func (s *Store) summary() domain.CartSummary {
	summary := domain.CartSummary{
		DistinctItems: len(s.items),
		Subtotal:      decimal.Zero,
		Shipping:      decimal.Zero,
		IsEmpty:       len(s.items) == 0,
	}
	for _, item := range s.items {
		summary.ItemCount += item.Quantity
		summary.Subtotal = summary.Subtotal.Add(item.Subtotal())
	}
	if !summary.Subtotal.GreaterThan(s.pricing.FreeShippingThreshold) {
		summary.Shipping = s.pricing.ShippingCost
	}
	summary.Total = summary.Subtotal.Add(summary.Shipping)
	return summary
}

// Checkout validates every line against the live catalog, records the order
// and empties the cart. Nothing changes unless every line validates. A ledger
// write failure is logged and the order is still returned.
func (s *Store) Checkout(ctx context.Context, shipping domain.ShippingInfo, payment domain.PaymentMethod) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	for _, item := range s.items {
		live, err := s.catalog.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrProductUnavailable, item.Product.Title)
			}
			return nil, fmt.Errorf("failed to validate product %d: %w", item.ProductID, err)
		}
		if item.Quantity > live.Stock {
			return nil, &domain.StockError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: live.Stock,
			}
		}
	}

	order := &domain.Order{
		ID:            s.orderID(),
		Items:         domain.CloneItems(s.items),
		Summary:       s.summary(),
		ShippingInfo:  shipping,
		PaymentMethod: payment,
		Status:        domain.OrderStatusConfirmed,
		CreatedAt:     s.now(),
	}

	if err := s.ledger.Append(ctx, order); err != nil {
		s.logger.Error("Failed to record order", zap.String("order_id", order.ID), zap.Error(err))
	}

	s.items = []domain.CartLineItem{}
	s.touch(ctx)

	s.logger.Info("Checkout completed",
		zap.String("order_id", order.ID),
		zap.Int("items", order.Summary.ItemCount),
		zap.String("total", order.Summary.Total.StringFixed(2)),
	)
	return order, nil
}

// Load replaces the in-memory cart with the persisted one. Each line is
// refreshed from the catalog and lines whose product is gone are dropped.
// A missing or unreadable blob leaves the cart empty.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []domain.CartLineItem{}
	if s.blobs == nil {
		return nil
	}

	raw, err := s.blobs.Get(ctx, kvstore.KeyCartItems)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil
		}
		s.logger.Error("Failed to read cart", zap.Error(err))
		return nil
	}

	var stored []domain.CartLineItem
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.logger.Warn("Discarding unreadable cart", zap.Error(err))
		return nil
	}

	for _, item := range stored {
		live, err := s.catalog.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				s.logger.Debug("Dropping cart line for missing product", zap.Int64("product_id", item.ProductID))
				continue
			}
			return fmt.Errorf("failed to refresh cart line %d: %w", item.ProductID, err)
		}
		item.Product = live.Snapshot()
		s.items = append(s.items, item)
	}
	return nil
}

// Items returns a copy of the line items in insertion order
func (s *Store) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneItems(s.items)
}

// State returns a copy of the full cart state
func (s *Store) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.CartState{Items: domain.CloneItems(s.items)}
	if s.lastUpdated != nil {
		t := *s.lastUpdated
		state.LastUpdated = &t
	}
	return state
}

func (s *Store) Contains(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(productID) >= 0
}

// ItemQuantity returns the quantity in the cart for productID, or 0
func (s *Store) ItemQuantity(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(productID); i >= 0 {
		return s.items[i].Quantity
	}
	return 0
}

// Item returns the line for productID and whether it exists
func (s *Store) Item(productID int64) (domain.CartLineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return domain.CartLineItem{}, false
	}
	item := s.items[i]
	item.Product = item.Product.Snapshot()
	return item, true
}
