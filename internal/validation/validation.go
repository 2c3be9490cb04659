// Package validation holds the shared struct validator and the custom rules
// used by request payloads and service inputs.
package validation

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate      *validator.Validate
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report json names so error details match the request body
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// decimals validate as float64 so gt/gte/lte work on prices
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	validate.RegisterValidation("trimmed_min", func(fl validator.FieldLevel) bool {
		n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
		min, err := strconv.Atoi(fl.Param())
		return err == nil && n >= min
	})
}

// StrongPassword reports whether password has at least 6 characters with a
// lowercase letter, an uppercase letter and a digit
func StrongPassword(password string) bool {
	if len(password) < 6 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// Struct validates v against its validate tags
func Struct(v interface{}) error {
	return validate.Struct(v)
}

// FieldError is a single failed rule, keyed by the json field name
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors converts validator errors to FieldErrors. Other errors yield nil.
func Errors(err error) []FieldError {
	var out []FieldError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			out = append(out, FieldError{
				Field:   e.Field(),
				Message: message(e),
			})
		}
	}

	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "url":
		return "Invalid URL"
	case "username":
		return "Only letters, numbers and underscores are allowed"
	case "password":
		return "Must be at least 6 characters with a lowercase letter, an uppercase letter and a number"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "min", "trimmed_min":
		if e.Kind() == reflect.Slice {
			return "At least " + e.Param() + " item(s) required"
		}
		return "Must be at least " + e.Param() + " characters"
	case "max":
		return "Must be at most " + e.Param() + " characters"
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	case "lt":
		return "Value must be less than " + e.Param()
	default:
		return "Invalid value"
	}
}
