package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// FormDecimal parses a required fixed-point form field with at most two
// decimal places.
func FormDecimal(r *http.Request, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return decimal.Decimal{}, fieldError(key, "is required")
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fieldError(key, "must be a number")
	}
	if value.IsNegative() {
		return decimal.Decimal{}, fieldError(key, "must not be negative")
	}
	if value.Exponent() < -2 && !value.Equal(value.Round(2)) {
		return decimal.Decimal{}, fieldError(key, "must have at most 2 decimal places")
	}
	return value.Round(2), nil
}

// FormInt parses a required non-negative integer form field.
func FormInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return 0, fieldError(key, "is required")
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fieldError(key, "must be an integer")
	}
	if value < 0 {
		return 0, fieldError(key, "must not be negative")
	}
	return value, nil
}

// FormOptionalID parses an optional positive id; empty input yields nil.
func FormOptionalID(r *http.Request, key string) (*uint, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return nil, fieldError(key, "must be a positive integer")
	}
	id := uint(value)
	return &id, nil
}

// FormBool reads an HTML-style boolean (1/true/on/yes); anything else is false.
func FormBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.FormValue(key))) {
	case "1", "t", "true", "on", "yes":
		return true
	}
	return false
}

func fieldError(key, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, key+" "+msg).WithDetails(map[string]string{key: msg})
}
