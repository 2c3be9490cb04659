package cart

import (
	"context"
	"sync"
	"testing"

	"storefront/internal/kvstore"
	"storefront/internal/order"
	"storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(blobs kvstore.Store) (*Manager, repository.ProductRepository) {
	catalog := repository.NewMemoryProductRepository(product(1, 50, "3.00"), product(2, 50, "4.00"))
	return NewManager(blobs, catalog, order.NewLedger(blobs, zap.NewNop()), testPricing, zap.NewNop()), catalog
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	m, catalog := newTestManager(kvstore.NewMemory())
	p, err := catalog.FindByID(ctx, 1)
	require.NoError(t, err)

	alice, err := m.Get(ctx, 1)
	require.NoError(t, err)
	bob, err := m.Get(ctx, 2)
	require.NoError(t, err)

	require.NoError(t, alice.Add(ctx, p, 2))
	assert.Equal(t, 2, alice.ItemQuantity(1))
	assert.Zero(t, bob.ItemQuantity(1))

	again, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Same(t, alice, again)
}

func TestManager_RestoresPersistedCart(t *testing.T) {
	ctx := context.Background()
	blobs := kvstore.NewMemory()
	first, catalog := newTestManager(blobs)
	p, err := catalog.FindByID(ctx, 2)
	require.NoError(t, err)

	s, err := first.Get(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, p, 3))

	second, _ := newTestManager(blobs)
	restored, err := second.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.ItemQuantity(2))
}

func TestManager_DropClearsPersistedCart(t *testing.T) {
	ctx := context.Background()
	blobs := kvstore.NewMemory()
	m, catalog := newTestManager(blobs)
	p, err := catalog.FindByID(ctx, 1)
	require.NoError(t, err)

	s, err := m.Get(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx, p, 1))

	m.Drop(ctx, 3)
	assert.True(t, s.Summary().IsEmpty)

	fresh, err := m.Get(ctx, 3)
	require.NoError(t, err)
	assert.NotSame(t, s, fresh)
	assert.Empty(t, fresh.Items())

	// a session that was never loaded still loses its stored cart
	other, _ := newTestManager(blobs)
	stored, err := other.Get(ctx, 4)
	require.NoError(t, err)
	require.NoError(t, stored.Add(ctx, p, 1))

	m.Drop(ctx, 4)
	_, err = kvstore.Namespaced(blobs, kvstore.SessionPrefix(4)).Get(ctx, kvstore.KeyCartItems)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestManager_DroppedStoreStopsPersisting(t *testing.T) {
	ctx := context.Background()
	blobs := kvstore.NewMemory()
	m, catalog := newTestManager(blobs)
	p, err := catalog.FindByID(ctx, 1)
	require.NoError(t, err)

	stale, err := m.Get(ctx, 5)
	require.NoError(t, err)
	require.NoError(t, stale.Add(ctx, p, 1))

	m.Drop(ctx, 5)
	// a request that fetched the cart before logout finishes afterwards
	require.NoError(t, stale.Add(ctx, p, 2))
	assert.Equal(t, 2, stale.ItemQuantity(1))

	_, err = kvstore.Namespaced(blobs, kvstore.SessionPrefix(5)).Get(ctx, kvstore.KeyCartItems)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	fresh, err := m.Get(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, fresh.Items())
}

func TestManager_ConcurrentAddsSerialize(t *testing.T) {
	ctx := context.Background()
	m, catalog := newTestManager(kvstore.NewMemory())
	p, err := catalog.FindByID(ctx, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Get(ctx, 1)
			if err == nil {
				_ = s.Add(ctx, p, 1)
			}
		}()
	}
	wg.Wait()

	s, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, s.ItemQuantity(1))
}
