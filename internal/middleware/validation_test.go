package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addItemBody struct {
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gte=1,lte=99"`
	Note      string `json:"note" validate:"omitempty,max=20"`
}

func jsonRequest(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/test", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// Property: a body missing any required field fails validation
func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeProduct bool, includeQuantity bool) bool {
			body := map[string]interface{}{}
			if includeProduct {
				body["productId"] = 4
			}
			if includeQuantity {
				body["quantity"] = 2
			}

			var decoded addItemBody
			err := DecodeAndValidate(jsonRequest(t, body), &decoded)

			if includeProduct && includeQuantity {
				return err == nil
			}
			fields := FormatValidationErrors(err)
			for _, f := range fields {
				if f.Field != "productId" && f.Field != "quantity" {
					return false
				}
			}
			return len(fields) > 0
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Property: quantity bounds are enforced by the tags
func TestProperty_QuantityRangeValidation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("quantity outside 1..99 is rejected", prop.ForAll(
		func(quantity int) bool {
			var decoded addItemBody
			err := DecodeAndValidate(jsonRequest(t, map[string]interface{}{
				"productId": 1,
				"quantity":  quantity,
			}), &decoded)

			if quantity >= 1 && quantity <= 99 {
				return err == nil
			}
			fields := FormatValidationErrors(err)
			return len(fields) == 1 && fields[0].Field == "quantity" && fields[0].Message != ""
		},
		gen.IntRange(-50, 200),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDecodeAndValidate_MalformedBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", strings.NewReader(`{"productId": `))
	var decoded addItemBody
	err := DecodeAndValidate(req, &decoded)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedBody))
	assert.Empty(t, FormatValidationErrors(err))

	w := httptest.NewRecorder()
	RespondWithDecodeError(w, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestRespondWithDecodeError_ListsFields(t *testing.T) {
	var decoded addItemBody
	err := DecodeAndValidate(jsonRequest(t, map[string]interface{}{
		"productId": 1,
		"quantity":  1,
		"note":      strings.Repeat("x", 21),
	}), &decoded)
	require.Error(t, err)

	w := httptest.NewRecorder()
	RespondWithDecodeError(w, err)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	fields, ok := response.Error.Details["validation_errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "note", fields[0].(map[string]interface{})["field"])
}
