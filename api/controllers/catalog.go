package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type catalogResponse struct {
	Products []product.ProductDTO `json:"products"`
	Filter   catalogFilterEcho    `json:"filter"`
}

// catalogFilterEcho returns the effective filter so clients can keep their controls in sync.
type catalogFilterEcho struct {
	Query       string `json:"q"`
	CategoryIDs []uint `json:"category"`
	MaxPrice    string `json:"max_price"`
	Sort        string `json:"sort"`
}

// CatalogProducts lists products filtered by q, category, max_price and sort.
func CatalogProducts(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		query := r.URL.Query()
		filter := product.ListFilter{
			Query:       validators.SanitizeString(query.Get("q"), 200),
			CategoryIDs: validators.QueryIDs(r, "category"),
			MaxPrice:    product.ParseMaxPrice(query.Get("max_price")),
			Sort:        enums.ParseCatalogSort(query.Get("sort")),
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ceiling := product.DefaultMaxPrice
		if filter.MaxPrice != nil {
			ceiling = *filter.MaxPrice
		}
		categoryIDs := filter.CategoryIDs
		if categoryIDs == nil {
			categoryIDs = []uint{}
		}
		responses.WriteSuccess(w, catalogResponse{
			Products: items,
			Filter: catalogFilterEcho{
				Query:       filter.Query,
				CategoryIDs: categoryIDs,
				MaxPrice:    ceiling.StringFixed(2),
				Sort:        filter.Sort.String(),
			},
		})
	}
}

// CatalogProduct returns a single product.
func CatalogProduct(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.PathID(r, "id", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// CatalogCategories lists every category by name.
func CatalogCategories(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
