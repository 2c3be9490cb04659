package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/kvstore"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingStore struct {
	kvstore.Store
	err error
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte) error {
	return f.err
}

func line(productID, ownerID int64, qty int, price string) domain.CartLineItem {
	return domain.CartLineItem{
		ProductID: productID,
		Quantity:  qty,
		Product: domain.Product{
			ID:      productID,
			Title:   "Product",
			Price:   decimal.RequireFromString(price),
			OwnerID: ownerID,
		},
	}
}

func newOrder(id string, at time.Time, items ...domain.CartLineItem) *domain.Order {
	return &domain.Order{
		ID:        id,
		Items:     items,
		Status:    domain.OrderStatusConfirmed,
		CreatedAt: at,
	}
}

func TestLedger_AppendAndQuery(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(kvstore.NewMemory(), zap.NewNop())
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Append(ctx, newOrder("order-a", base, line(1, 10, 2, "5.00"))))
	require.NoError(t, ledger.Append(ctx, newOrder("order-b", base.Add(time.Hour), line(2, 20, 1, "7.50"), line(3, 10, 3, "1.25"))))
	require.NoError(t, ledger.Append(ctx, newOrder("order-c", base.Add(-time.Hour), line(4, 20, 1, "9.00"))))

	all, err := ledger.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "order-a", all[0].ID)
	assert.Equal(t, "order-c", all[2].ID)

	sales, err := ledger.FindBySeller(ctx, 10)
	require.NoError(t, err)
	ids := []string{}
	for _, o := range sales {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"order-a", "order-b"}, ids)

	last, err := ledger.LastSaleDate(ctx, 20)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(base.Add(time.Hour)))

	none, err := ledger.LastSaleDate(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, none)

	found, err := ledger.FindByID(ctx, "order-b")
	require.NoError(t, err)
	assert.Len(t, found.Items, 2)

	_, err = ledger.FindByID(ctx, "order-z")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestLedger_SellerStatsCountsOnlyOwnLines(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(kvstore.NewMemory(), zap.NewNop())
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ledger.Append(ctx, newOrder("order-1", at, line(1, 10, 2, "5.00"), line(2, 20, 4, "100.00"))))
	require.NoError(t, ledger.Append(ctx, newOrder("order-2", at.Add(time.Minute), line(3, 10, 1, "0.10"))))

	stats, err := ledger.SellerStats(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.OrderCount)
	assert.Equal(t, 3, stats.UnitsSold)
	assert.True(t, stats.Revenue.Equal(decimal.RequireFromString("10.10")), "revenue was %s", stats.Revenue)
	require.NotNil(t, stats.LastSaleDate)
	assert.True(t, stats.LastSaleDate.Equal(at.Add(time.Minute)))

	empty, err := ledger.SellerStats(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, empty.OrderCount)
	assert.True(t, empty.Revenue.IsZero())
	assert.Nil(t, empty.LastSaleDate)
}

func TestLedger_AppendFailureIsReturned(t *testing.T) {
	boom := errors.New("disk full")
	ledger := NewLedger(&failingStore{Store: kvstore.NewMemory(), err: boom}, zap.NewNop())

	err := ledger.Append(context.Background(), newOrder("order-x", time.Now(), line(1, 1, 1, "1")))
	assert.ErrorIs(t, err, boom)

	all, err := ledger.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLedger_CorruptBlobReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(ctx, kvstore.KeyOrders, []byte("{not json")))

	core, logs := observer.New(zap.WarnLevel)
	ledger := NewLedger(store, zap.New(core))

	all, err := ledger.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, 1, logs.FilterMessage("Discarding unreadable order ledger").Len())

	require.NoError(t, ledger.Append(ctx, newOrder("order-1", time.Now(), line(1, 1, 1, "1"))))
	all, err = ledger.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLedger_StoredOrderIsACopy(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(kvstore.NewMemory(), nil)

	o := newOrder("order-1", time.Now(), line(1, 1, 2, "3.00"))
	require.NoError(t, ledger.Append(ctx, o))
	o.Items[0].Quantity = 50

	stored, err := ledger.FindByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Items[0].Quantity)
}

// Property: FindBySeller returns exactly the orders that contain one of the seller's lines
func TestProperty_FindBySellerMatchesPredicate(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("seller orders are those with a line owned by the seller", prop.ForAll(
		func(owners []int64, seller int64) bool {
			ctx := context.Background()
			ledger := NewLedger(kvstore.NewMemory(), zap.NewNop())
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

			expected := 0
			var newest *time.Time
			for i := 0; i+1 < len(owners); i += 2 {
				at := base.Add(time.Duration(owners[i]*7%13) * time.Hour)
				o := newOrder("order", at, line(1, owners[i], 1, "1"), line(2, owners[i+1], 1, "1"))
				if err := ledger.Append(ctx, o); err != nil {
					return false
				}
				if owners[i] == seller || owners[i+1] == seller {
					expected++
					if newest == nil || at.After(*newest) {
						newest = &at
					}
				}
			}

			sales, err := ledger.FindBySeller(ctx, seller)
			if err != nil || len(sales) != expected {
				t.Logf("FAIL: expected %d orders, got %d (%v)", expected, len(sales), err)
				return false
			}

			last, err := ledger.LastSaleDate(ctx, seller)
			if err != nil {
				return false
			}
			if newest == nil {
				return last == nil
			}
			return last != nil && last.Equal(*newest)
		},
		gen.SliceOfN(12, gen.Int64Range(1, 4)),
		gen.Int64Range(1, 5),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
