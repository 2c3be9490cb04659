package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"storefront/internal/domain"
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	List(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id int64) (*domain.Category, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a Postgres backed CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create inserts a new category and sets its generated ID
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query, category.Name, category.Description).Scan(&category.ID)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// List retrieves all categories ordered by ID
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT id, name, description FROM categories ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category := &domain.Category{}
		var description sql.NullString
		if err := rows.Scan(&category.ID, &category.Name, &description); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		category.Description = description.String
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// FindByID retrieves a category by ID
func (r *categoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `SELECT id, name, description FROM categories WHERE id = $1`

	category := &domain.Category{}
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}
	category.Description = description.String

	return category, nil
}

type memoryCategoryRepository struct {
	mu         sync.RWMutex
	categories map[int64]domain.Category
}

// NewMemoryCategoryRepository creates an in-memory CategoryRepository
func NewMemoryCategoryRepository(seed ...*domain.Category) CategoryRepository {
	r := &memoryCategoryRepository{categories: make(map[int64]domain.Category)}
	for _, c := range seed {
		r.categories[c.ID] = *c
	}
	return r
}

func (r *memoryCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var max int64
	for id := range r.categories {
		if id > max {
			max = id
		}
	}
	category.ID = max + 1
	r.categories[category.ID] = *category
	return nil
}

func (r *memoryCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]*domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		c := c
		categories = append(categories, &c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, nil
}

func (r *memoryCategoryRepository) FindByID(ctx context.Context, id int64) (*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return &c, nil
}
