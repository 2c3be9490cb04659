package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/validation"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var standardErrorCodes = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusServiceUnavailable,
}

// Property: every error response carries code, message and timestamp
func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("all error responses have consistent structure", prop.ForAll(
		func(message string, pick int) bool {
			statusCode := standardErrorCodes[pick]

			w := httptest.NewRecorder()
			RespondWithError(w, statusCode, message)

			if w.Code != statusCode || w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}
			if response.Error.Code != http.StatusText(statusCode) || response.Error.Message != message {
				t.Logf("FAIL: got %+v", response.Error)
				return false
			}

			_, err := time.Parse(time.RFC3339, response.Error.Timestamp)
			return err == nil
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.IntRange(0, len(standardErrorCodes)-1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: details passed in come back out unchanged
func TestProperty_ErrorDetailsAreIncluded(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("error responses with details include them", prop.ForAll(
		func(detailKey string, detailValue string) bool {
			w := httptest.NewRecorder()
			RespondWithErrorDetails(w, http.StatusBadRequest, "bad", map[string]interface{}{detailKey: detailValue})

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}
			val, ok := response.Error.Details[detailKey]
			return ok && val == detailValue
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithDomainError(t *testing.T) {
	type payload struct {
		Email string `json:"email" validate:"required,email"`
	}
	validationErr := validation.Struct(payload{Email: "nope"})
	require.Error(t, validationErr)

	cases := []struct {
		err    error
		status int
	}{
		{validationErr, http.StatusBadRequest},
		{domain.ErrInvalidQuantity, http.StatusBadRequest},
		{domain.ErrNegativeQuantity, http.StatusBadRequest},
		{domain.ErrCategoryNotFound, http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrTokenExpired, http.StatusUnauthorized},
		{domain.ErrProductNotFound, http.StatusNotFound},
		{domain.ErrNotFoundOrForbidden, http.StatusNotFound},
		{domain.ErrOrderNotFound, http.StatusNotFound},
		{domain.ErrNoStock, http.StatusConflict},
		{domain.ErrEmptyCart, http.StatusConflict},
		{fmt.Errorf("%w: Lamp", domain.ErrProductUnavailable), http.StatusConflict},
		{domain.ErrUserAlreadyExists, http.StatusConflict},
		{&domain.StockError{ProductID: 3, Requested: 5, Available: 2}, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		RespondWithDomainError(w, zap.NewNop(), tc.err)
		assert.Equal(t, tc.status, w.Code, "error %v", tc.err)
	}
}

func TestRespondWithDomainError_Details(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithDomainError(w, zap.NewNop(), &domain.StockError{ProductID: 3, Requested: 5, Available: 2})

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, domain.ErrInsufficientStock.Error(), response.Error.Message)
	assert.EqualValues(t, 2, response.Error.Details["available"])
	assert.EqualValues(t, 5, response.Error.Details["requested"])

	core, logs := observer.New(zap.ErrorLevel)
	w = httptest.NewRecorder()
	RespondWithDomainError(w, zap.New(core), errors.New("pq: relation missing"))
	assert.NotContains(t, w.Body.String(), "relation")
	assert.Equal(t, 1, logs.FilterMessage("Request failed").Len())
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := ErrorHandlingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/cart", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

// Property: JSON responses round-trip their payload
func TestProperty_JSONResponsesAreValid(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("JSON responses are valid and parseable", prop.ForAll(
		func(statusCode int, data map[string]string) bool {
			w := httptest.NewRecorder()
			RespondWithJSON(w, statusCode, data)

			if w.Code != statusCode || w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var result map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
				return false
			}
			for k, v := range data {
				if result[k] != v {
					return false
				}
			}
			return true
		},
		gen.OneConstOf(http.StatusOK, http.StatusCreated, http.StatusBadRequest, http.StatusNotFound),
		gen.MapOf(gen.AlphaString(), gen.AlphaString()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
