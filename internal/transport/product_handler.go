package transport

import (
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductHandler serves the catalog and the seller's product management
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// RegisterRoutes registers the catalog routes. Browsing is public, managing
// products requires a session.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/categories", h.ListCategories)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/related", h.Related)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/mine", h.Mine)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List returns one filtered, sorted page of the catalog
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, problems := parseListFilter(r.URL.Query())
	if len(problems) > 0 {
		middleware.RespondWithValidationErrors(w, problems)
		return
	}

	page, err := h.products.ListProducts(r.Context(), filter)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Related returns in-stock products from the same category
func (h *ProductHandler) Related(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{Field: "limit", Message: "Must be a positive integer"}})
			return
		}
		limit = n
	}

	related, err := h.products.RelatedProducts(r.Context(), id, limit)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, related)
}

func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.ListCategories(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// Mine lists the caller's own products, newest first
func (h *ProductHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	products, err := h.products.ListByOwner(r.Context(), userID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var input service.ProductInput
	if err := middleware.Decode(r, &input); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.products.CreateProduct(r.Context(), userID, input)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var input service.ProductInput
	if err := middleware.Decode(r, &input); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), userID, id, input)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(r.Context(), userID, id); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses a positive int64 URL parameter, answering 400 otherwise
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// parseListFilter reads the catalog query string. Unknown sort keys fall back
// to newest first in the repository.
func parseListFilter(q url.Values) (repository.ListFilter, []middleware.ValidationError) {
	var (
		filter   repository.ListFilter
		problems []middleware.ValidationError
	)
	bad := func(field, message string) {
		problems = append(problems, middleware.ValidationError{Field: field, Message: message})
	}

	filter.Query = q.Get("q")
	filter.SortBy = q.Get("sort")

	if raw := q.Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			bad("category", "Must be a positive integer")
		} else {
			filter.CategoryID = &id
		}
	}
	if raw := q.Get("inStock"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			bad("inStock", "Must be true or false")
		}
		filter.InStockOnly = v
	}
	for _, bound := range []struct {
		name string
		dst  **decimal.Decimal
	}{{"minPrice", &filter.MinPrice}, {"maxPrice", &filter.MaxPrice}} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			bad(bound.name, "Must be a non-negative number")
			continue
		}
		*bound.dst = &d
	}
	for _, n := range []struct {
		name string
		dst  *int
	}{{"page", &filter.Page}, {"pageSize", &filter.PageSize}} {
		raw := q.Get(n.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			bad(n.name, "Must be a positive integer")
			continue
		}
		*n.dst = v
	}

	return filter, problems
}
