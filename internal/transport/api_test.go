package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/cart"
	"storefront/internal/kvstore"
	"storefront/internal/middleware"
	"storefront/internal/order"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "Password123"

// testAPI is the full /api router over in-memory backends with the demo
// catalog. Users 1 and 2 own the demo products.
type testAPI struct {
	t        *testing.T
	router   http.Handler
	products repository.ProductRepository
	ledger   *order.Ledger
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	users := repository.NewMemoryUserRepository()
	products := repository.NewMemoryProductRepository(repository.DemoProducts()...)
	categories := repository.NewMemoryCategoryRepository(repository.DemoCategories()...)
	blobs := kvstore.NewMemory()

	userService := service.NewUserService(users, "api-test-secret", time.Hour)
	productService := service.NewProductService(products, categories, logger)
	ledger := order.NewLedger(blobs, logger)
	carts := cart.NewManager(blobs, products, ledger, cart.Pricing{
		FreeShippingThreshold: decimal.NewFromInt(1000),
		ShippingCost:          decimal.NewFromInt(15),
	}, logger)
	sessions := service.NewSessionStore(blobs, userService, carts, logger)

	for _, email := range []string{"juan@email.com", "maria@email.com", "buyer@email.com"} {
		_, err := userService.Register(ctx, service.RegisterInput{
			Username:  "user_" + email[:4],
			Email:     email,
			Password:  testPassword,
			FirstName: "Test",
			LastName:  "User",
		})
		require.NoError(t, err)
	}

	auth := middleware.AuthMiddleware(sessions, logger)
	router := chi.NewRouter()
	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Route("/api", func(r chi.Router) {
		NewUserHandler(userService, sessions, logger).RegisterRoutes(r, auth)
		NewProductHandler(productService, logger).RegisterRoutes(r, auth)
		NewCartHandler(carts, productService, 10, logger).RegisterRoutes(r, auth)
		NewOrderHandler(ledger, logger).RegisterRoutes(r, auth)
	})

	return &testAPI{t: t, router: router, products: products, ledger: ledger}
}

// do sends a request and decodes a JSON response into out when out is non-nil
func (a *testAPI) do(method, path, token string, body interface{}, out interface{}) int {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), out), "body: %s", w.Body.String())
	}
	return w.Code
}

func (a *testAPI) login(email string) string {
	a.t.Helper()
	var resp LoginResponse
	code := a.do("POST", "/api/users/login", "", LoginRequest{Email: email, Password: testPassword}, &resp)
	require.Equal(a.t, http.StatusOK, code)
	require.NotEmpty(a.t, resp.Token)
	return resp.Token
}

func validationFields(resp middleware.ErrorResponse) []string {
	raw, _ := resp.Error.Details["validation_errors"].([]interface{})
	var fields []string
	for _, item := range raw {
		if m, ok := item.(map[string]interface{}); ok {
			fields = append(fields, m["field"].(string))
		}
	}
	return fields
}
