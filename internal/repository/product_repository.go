package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Sort keys accepted by List
const (
	SortNameAsc   = "name-asc"
	SortNameDesc  = "name-desc"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortStockAsc  = "stock-asc"
	SortStockDesc = "stock-desc"
)

var sortClauses = map[string]string{
	SortNameAsc:   "LOWER(title) ASC, id ASC",
	SortNameDesc:  "LOWER(title) DESC, id DESC",
	SortPriceAsc:  "price ASC, id ASC",
	SortPriceDesc: "price DESC, id DESC",
	SortNewest:    "created_at DESC, id DESC",
	SortOldest:    "created_at ASC, id ASC",
	SortStockAsc:  "stock ASC, id ASC",
	SortStockDesc: "stock DESC, id DESC",
}

// Page size bounds applied by List
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListFilter narrows and orders a catalog listing. Zero values mean "no filter".
type ListFilter struct {
	CategoryID  *int64
	OwnerID     *int64
	Query       string
	InStockOnly bool
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	SortBy      string
	Page        int
	PageSize    int
}

func (f ListFilter) normalized() ListFilter {
	if _, ok := sortClauses[f.SortBy]; !ok {
		f.SortBy = SortNewest
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	f.Query = strings.TrimSpace(f.Query)
	return f
}

// ProductRepository defines the interface for product data access.
// Update and Delete only touch a product matching both its ID and owner.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id, ownerID int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Product, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Product, int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a Postgres backed ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, title, description, price, stock, category_id, owner_id, images, created_at, updated_at`

func scanProduct(scan func(dest ...interface{}) error, types *pgtype.Map) (*domain.Product, error) {
	product := &domain.Product{}
	err := scan(
		&product.ID,
		&product.Title,
		&product.Description,
		&product.Price,
		&product.Stock,
		&product.CategoryID,
		&product.OwnerID,
		types.SQLScanner(&product.Images),
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	return product, nil
}

// Create inserts a new product and sets its generated ID
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (title, description, price, stock, category_id, owner_id, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = product.CreatedAt
	}
	images := product.Images
	if images == nil {
		images = []string{}
	}

	err := r.db.QueryRowContext(
		ctx,
		query,
		product.Title,
		product.Description,
		product.Price,
		product.Stock,
		product.CategoryID,
		product.OwnerID,
		images,
		product.CreatedAt,
		product.UpdatedAt,
	).Scan(&product.ID)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites the product whose ID and owner both match
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET title = $3, description = $4, price = $5, stock = $6,
		    category_id = $7, images = $8, updated_at = $9
		WHERE id = $1 AND owner_id = $2
	`

	images := product.Images
	if images == nil {
		images = []string{}
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.OwnerID,
		product.Title,
		product.Description,
		product.Price,
		product.Stock,
		product.CategoryID,
		images,
		product.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// Delete removes the product whose ID and owner both match
func (r *productRepository) Delete(ctx context.Context, id, ownerID int64) error {
	query := `DELETE FROM products WHERE id = $1 AND owner_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id).Scan, pgtype.NewMap())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// ListByOwner returns a seller's products, newest first
func (r *productRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by owner: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// List retrieves products matching filter with sorting and pagination
func (r *productRepository) List(ctx context.Context, filter ListFilter) ([]*domain.Product, int, error) {
	filter = filter.normalized()

	conditions := []string{}
	args := []interface{}{}
	addArg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CategoryID != nil {
		conditions = append(conditions, "category_id = "+addArg(*filter.CategoryID))
	}
	if filter.OwnerID != nil {
		conditions = append(conditions, "owner_id = "+addArg(*filter.OwnerID))
	}
	if filter.Query != "" {
		p := addArg("%" + filter.Query + "%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", p, p))
	}
	if filter.InStockOnly {
		conditions = append(conditions, "stock > 0")
	}
	if filter.MinPrice != nil {
		conditions = append(conditions, "price >= "+addArg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conditions = append(conditions, "price <= "+addArg(*filter.MaxPrice))
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	limitArg := addArg(filter.PageSize)
	offsetArg := addArg(offset)

	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY %s LIMIT %s OFFSET %s`,
		productColumns, whereClause, sortClauses[filter.SortBy], limitArg, offsetArg)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func collectProducts(rows *sql.Rows) ([]*domain.Product, error) {
	types := pgtype.NewMap()
	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows.Scan, types)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
