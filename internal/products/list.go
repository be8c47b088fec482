package product

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// DefaultMaxPrice is the price ceiling applied when the client sends none.
var DefaultMaxPrice = decimal.NewFromInt(50000)

// ListFilter describes the catalog browse knobs. A nil MaxPrice means DefaultMaxPrice.
type ListFilter struct {
	Query       string
	CategoryIDs []uint
	MaxPrice    *decimal.Decimal
	Sort        enums.CatalogSort
}

func (f ListFilter) normalize() ListFilter {
	f.Query = strings.TrimSpace(f.Query)
	if f.MaxPrice == nil {
		ceiling := DefaultMaxPrice
		f.MaxPrice = &ceiling
	}
	if !f.Sort.IsValid() {
		f.Sort = enums.CatalogSortNewest
	}
	return f
}

// ParseMaxPrice reads the price ceiling. Blank, unparseable or negative input
// yields nil so the default ceiling applies.
func ParseMaxPrice(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		return nil
	}
	return &value
}
