package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"storefront/internal/validation"
)

// MaxBodyBytes caps request bodies read by DecodeAndValidate
const MaxBodyBytes = 1 << 20

// ErrMalformedBody is returned when a request body is not valid JSON
var ErrMalformedBody = errors.New("malformed request body")

// ValidationError represents a field validation error
type ValidationError = validation.FieldError

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validation.Struct(v)
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := Decode(r, v); err != nil {
		return err
	}
	return ValidateRequest(v)
}

// Decode reads a single JSON document from the request body into v
func Decode(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return nil
}

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) []ValidationError {
	return validation.Errors(err)
}

// RespondWithDecodeError answers a DecodeAndValidate failure
func RespondWithDecodeError(w http.ResponseWriter, err error) {
	if fields := FormatValidationErrors(err); len(fields) > 0 {
		RespondWithValidationErrors(w, fields)
		return
	}
	RespondWithError(w, http.StatusBadRequest, "invalid request body")
}
