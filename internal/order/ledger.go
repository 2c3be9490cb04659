package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/kvstore"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SellerStats summarizes the sales of one seller across the ledger
type SellerStats struct {
	SellerID     int64           `json:"sellerId"`
	OrderCount   int             `json:"orderCount"`
	UnitsSold    int             `json:"unitsSold"`
	Revenue      decimal.Decimal `json:"revenue"`
	LastSaleDate *time.Time      `json:"lastSaleDate"`
}

// Ledger is the append-only list of completed orders, persisted as a single
// blob under kvstore.KeyOrders.
type Ledger struct {
	mu     sync.Mutex
	store  kvstore.Store
	logger *zap.Logger
}

// NewLedger creates a ledger backed by store
func NewLedger(store kvstore.Store, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, logger: logger}
}

// readAll must be called with l.mu held
func (l *Ledger) readAll(ctx context.Context) ([]domain.Order, error) {
	raw, err := l.store.Get(ctx, kvstore.KeyOrders)
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []domain.Order{}, nil
		}
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	var orders []domain.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		l.logger.Warn("Discarding unreadable order ledger", zap.Error(err))
		return []domain.Order{}, nil
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// Append adds order to the end of the ledger and persists it.
// Unlike cart writes, a persistence failure is returned to the caller.
func (l *Ledger) Append(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return errors.New("order is nil")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	orders, err := l.readAll(ctx)
	if err != nil {
		return err
	}

	stored := *order
	stored.Items = domain.CloneItems(order.Items)
	orders = append(orders, stored)

	if err := kvstore.SetJSON(ctx, l.store, kvstore.KeyOrders, orders); err != nil {
		return fmt.Errorf("failed to persist order %s: %w", order.ID, err)
	}

	l.logger.Info("Order recorded",
		zap.String("order_id", order.ID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Summary.Total.StringFixed(2)),
	)
	return nil
}

// All returns every order in append order
func (l *Ledger) All(ctx context.Context) ([]domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readAll(ctx)
}

// FindByID returns the order with the given ID or domain.ErrOrderNotFound
func (l *Ledger) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	orders, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

// FindBySeller returns the orders containing at least one line owned by sellerID
func (l *Ledger) FindBySeller(ctx context.Context, sellerID int64) ([]domain.Order, error) {
	orders, err := l.All(ctx)
	if err != nil {
		return nil, err
	}

	matched := []domain.Order{}
	for i := range orders {
		if orders[i].HasSeller(sellerID) {
			matched = append(matched, orders[i])
		}
	}
	return matched, nil
}

// LastSaleDate returns the newest CreatedAt among the seller's orders, or nil
func (l *Ledger) LastSaleDate(ctx context.Context, sellerID int64) (*time.Time, error) {
	orders, err := l.FindBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return lastSale(orders), nil
}

func lastSale(orders []domain.Order) *time.Time {
	var last *time.Time
	for i := range orders {
		created := orders[i].CreatedAt
		if last == nil || created.After(*last) {
			last = &created
		}
	}
	return last
}

// SellerStats aggregates the seller's own lines: other sellers' items in a
// shared order do not count toward units or revenue.
func (l *Ledger) SellerStats(ctx context.Context, sellerID int64) (*SellerStats, error) {
	orders, err := l.FindBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	stats := &SellerStats{
		SellerID:     sellerID,
		OrderCount:   len(orders),
		Revenue:      decimal.Zero,
		LastSaleDate: lastSale(orders),
	}
	for _, o := range orders {
		for _, item := range o.Items {
			if item.Product.OwnerID != sellerID {
				continue
			}
			stats.UnitsSold += item.Quantity
			stats.Revenue = stats.Revenue.Add(item.Subtotal())
		}
	}
	return stats, nil
}
