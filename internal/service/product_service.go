package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/validation"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultRelatedLimit is the number of related products returned when no limit is given
const DefaultRelatedLimit = 4

// ProductInput holds the seller-editable fields of a product
type ProductInput struct {
	Title       string          `json:"title" validate:"required,trimmed_min=3,max=255"`
	Description string          `json:"description" validate:"required,trimmed_min=10"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
	CategoryID  int64           `json:"categoryId" validate:"required,gt=0"`
	Images      []string        `json:"images" validate:"required,min=1,dive,required,url"`
}

// ProductPage is one page of a catalog listing
type ProductPage struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// ProductService defines the catalog use cases
type ProductService interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, filter repository.ListFilter) (*ProductPage, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Product, error)
	RelatedProducts(ctx context.Context, id int64, limit int) ([]*domain.Product, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateProduct(ctx context.Context, ownerID int64, input ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, ownerID, id int64, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, ownerID, id int64) error
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	logger     *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(products repository.ProductRepository, categories repository.CategoryRepository, logger *zap.Logger) ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &productService{products: products, categories: categories, logger: logger}
}

func (s *productService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidProductID
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, filter repository.ListFilter) (*ProductPage, error) {
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = repository.DefaultPageSize
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}

	return &ProductPage{Products: products, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListByOwner returns the seller's products, newest first
func (s *productService) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Product, error) {
	products, err := s.products.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by owner: %w", err)
	}
	return products, nil
}

// RelatedProducts returns in-stock products of the same category, excluding the product itself
func (s *productService) RelatedProducts(ctx context.Context, id int64, limit int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	candidates, _, err := s.products.List(ctx, repository.ListFilter{
		CategoryID:  &product.CategoryID,
		InStockOnly: true,
		PageSize:    limit + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list related products: %w", err)
	}

	related := make([]*domain.Product, 0, limit)
	for _, p := range candidates {
		if p.ID == id {
			continue
		}
		related = append(related, p)
		if len(related) == limit {
			break
		}
	}
	return related, nil
}

func (s *productService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *productService) validate(ctx context.Context, input *ProductInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := validation.Struct(input); err != nil {
		return err
	}

	if _, err := s.categories.FindByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return err
		}
		return fmt.Errorf("failed to check category: %w", err)
	}
	return nil
}

// CreateProduct validates input and lists a new product owned by ownerID
func (s *productService) CreateProduct(ctx context.Context, ownerID int64, input ProductInput) (*domain.Product, error) {
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		Title:       input.Title,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
		OwnerID:     ownerID,
		Images:      append([]string(nil), input.Images...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.Int64("owner_id", ownerID),
	)
	return product, nil
}

// UpdateProduct replaces the editable fields of a product owned by ownerID
func (s *productService) UpdateProduct(ctx context.Context, ownerID, id int64, input ProductInput) (*domain.Product, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidProductID
	}
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	existing, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if existing.OwnerID != ownerID {
		return nil, domain.ErrNotFoundOrForbidden
	}

	existing.Title = input.Title
	existing.Description = input.Description
	existing.Price = input.Price
	existing.Stock = input.Stock
	existing.CategoryID = input.CategoryID
	existing.Images = append([]string(nil), input.Images...)
	existing.UpdatedAt = time.Now().UTC()

	if err := s.products.Update(ctx, existing); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info("Product updated", zap.Int64("product_id", id), zap.Int64("owner_id", ownerID))
	return existing, nil
}

// DeleteProduct removes a product owned by ownerID
func (s *productService) DeleteProduct(ctx context.Context, ownerID, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidProductID
	}
	if err := s.products.Delete(ctx, id, ownerID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return domain.ErrNotFoundOrForbidden
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("Product deleted", zap.Int64("product_id", id), zap.Int64("owner_id", ownerID))
	return nil
}
