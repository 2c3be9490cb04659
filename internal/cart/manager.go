package cart

import (
	"context"
	"fmt"
	"sync"

	"storefront/internal/kvstore"

	"go.uber.org/zap"
)

// Manager hands out one Store per session, loading it on first use
type Manager struct {
	mu      sync.Mutex
	carts   map[int64]*Store
	blobs   kvstore.Store
	catalog ProductFinder
	ledger  OrderRecorder
	pricing Pricing
	logger  *zap.Logger
}

// NewManager creates a Manager whose carts persist under per-session
// namespaces of blobs
func NewManager(blobs kvstore.Store, catalog ProductFinder, ledger OrderRecorder, pricing Pricing, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		carts:   make(map[int64]*Store),
		blobs:   blobs,
		catalog: catalog,
		ledger:  ledger,
		pricing: pricing,
		logger:  logger,
	}
}

// Get returns the cart of sessionID, restoring it from the blob store the first time
func (m *Manager) Get(ctx context.Context, sessionID int64) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.carts[sessionID]; ok {
		return store, nil
	}

	store := NewStore(
		kvstore.Namespaced(m.blobs, kvstore.SessionPrefix(sessionID)),
		m.catalog,
		m.ledger,
		m.pricing,
		m.logger.With(zap.Int64("session_id", sessionID)),
	)
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	m.carts[sessionID] = store
	return store, nil
}

// Drop empties the session's cart and forgets it. A Store already handed out
// for the session keeps working in memory but no longer persists.
func (m *Manager) Drop(ctx context.Context, sessionID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.carts[sessionID]; ok {
		delete(m.carts, sessionID)
		store.detach(ctx)
		return
	}

	blobs := kvstore.Namespaced(m.blobs, kvstore.SessionPrefix(sessionID))
	if err := blobs.Delete(ctx, kvstore.KeyCartItems); err != nil {
		m.logger.Warn("Failed to delete cart", zap.Int64("session_id", sessionID), zap.Error(err))
	}
}
