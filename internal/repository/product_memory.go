package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"
)

type memoryProductRepository struct {
	mu       sync.RWMutex
	products []*domain.Product
	now      func() time.Time
}

// NewMemoryProductRepository creates an in-memory catalog holding copies of seed
func NewMemoryProductRepository(seed ...*domain.Product) ProductRepository {
	r := &memoryProductRepository{now: func() time.Time { return time.Now().UTC() }}
	for _, p := range seed {
		cp := p.Snapshot()
		r.products = append(r.products, &cp)
	}
	return r
}

func (r *memoryProductRepository) nextID() int64 {
	var max int64
	for _, p := range r.products {
		if p.ID > max {
			max = p.ID
		}
	}
	return max + 1
}

func (r *memoryProductRepository) indexOf(id int64) int {
	for i, p := range r.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func copyOf(p *domain.Product) *domain.Product {
	cp := p.Snapshot()
	return &cp
}

func (r *memoryProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product.ID = r.nextID()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = r.now()
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = product.CreatedAt
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	r.products = append(r.products, copyOf(product))
	return nil
}

func (r *memoryProductRepository) Update(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(product.ID)
	if i < 0 || r.products[i].OwnerID != product.OwnerID {
		return domain.ErrProductNotFound
	}

	updated := copyOf(product)
	updated.CreatedAt = r.products[i].CreatedAt
	r.products[i] = updated
	return nil
}

func (r *memoryProductRepository) Delete(ctx context.Context, id, ownerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 || r.products[i].OwnerID != ownerID {
		return domain.ErrProductNotFound
	}

	r.products = append(r.products[:i], r.products[i+1:]...)
	return nil
}

func (r *memoryProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, domain.ErrProductNotFound
	}
	return copyOf(r.products[i]), nil
}

func (r *memoryProductRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Product, error) {
	products := r.filter(ListFilter{OwnerID: &ownerID, SortBy: SortNewest}.normalized())
	return products, nil
}

func (r *memoryProductRepository) List(ctx context.Context, filter ListFilter) ([]*domain.Product, int, error) {
	filter = filter.normalized()
	matched := r.filter(filter)

	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []*domain.Product{}, total, nil
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// filter returns sorted copies of every product matching f, ignoring pagination
func (r *memoryProductRepository) filter(f ListFilter) []*domain.Product {
	r.mu.RLock()
	matched := []*domain.Product{}
	for _, p := range r.products {
		if matches(p, f) {
			matched = append(matched, copyOf(p))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, less(matched, f.SortBy))
	return matched
}

func matches(p *domain.Product, f ListFilter) bool {
	if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
		return false
	}
	if f.OwnerID != nil && p.OwnerID != *f.OwnerID {
		return false
	}
	if f.InStockOnly && p.Stock <= 0 {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(p.Title), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}

func less(ps []*domain.Product, sortBy string) func(i, j int) bool {
	byID := func(i, j int, asc bool) bool {
		if asc {
			return ps[i].ID < ps[j].ID
		}
		return ps[i].ID > ps[j].ID
	}

	switch sortBy {
	case SortNameAsc, SortNameDesc:
		asc := sortBy == SortNameAsc
		return func(i, j int) bool {
			a, b := strings.ToLower(ps[i].Title), strings.ToLower(ps[j].Title)
			if a == b {
				return byID(i, j, asc)
			}
			return (a < b) == asc
		}
	case SortPriceAsc, SortPriceDesc:
		asc := sortBy == SortPriceAsc
		return func(i, j int) bool {
			if ps[i].Price.Equal(ps[j].Price) {
				return byID(i, j, asc)
			}
			return ps[i].Price.LessThan(ps[j].Price) == asc
		}
	case SortStockAsc, SortStockDesc:
		asc := sortBy == SortStockAsc
		return func(i, j int) bool {
			if ps[i].Stock == ps[j].Stock {
				return byID(i, j, asc)
			}
			return (ps[i].Stock < ps[j].Stock) == asc
		}
	default:
		asc := sortBy == SortOldest
		return func(i, j int) bool {
			if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
				return byID(i, j, asc)
			}
			return ps[i].CreatedAt.Before(ps[j].CreatedAt) == asc
		}
	}
}
