package enums

import "strings"

// CatalogSort selects the ordering of a catalog listing.
type CatalogSort string

const (
	CatalogSortNewest    CatalogSort = "newest"
	CatalogSortOldest    CatalogSort = "oldest"
	CatalogSortPriceAsc  CatalogSort = "price_asc"
	CatalogSortPriceDesc CatalogSort = "price_desc"
)

var validCatalogSorts = []CatalogSort{
	CatalogSortNewest,
	CatalogSortOldest,
	CatalogSortPriceAsc,
	CatalogSortPriceDesc,
}

func (s CatalogSort) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CatalogSort.
func (s CatalogSort) IsValid() bool {
	for _, candidate := range validCatalogSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCatalogSort never fails: unknown or empty input means newest first.
func ParseCatalogSort(value string) CatalogSort {
	candidate := CatalogSort(strings.ToLower(strings.TrimSpace(value)))
	if candidate.IsValid() {
		return candidate
	}
	return CatalogSortNewest
}
