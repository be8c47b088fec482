package controllers

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	cartLocation       = "/api/v1/cart"
	orderLocationFmt   = "/api/v1/orders/%d"
	emptyCartNotice    = "cart is empty"
	orderPlacedMessage = "order placed"
)

type checkoutNotice struct {
	Message string `json:"message"`
	Order   any    `json:"order,omitempty"`
}

// Checkout turns the session cart into an order and redirects to its
// confirmation. An empty cart redirects back to the cart.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		result, err := svc.Execute(r.Context(), middleware.SessionIDFromContext(r.Context()), identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if result.Empty || result.Order == nil {
			responses.WriteRedirect(w, cartLocation, checkoutNotice{Message: emptyCartNotice})
			return
		}
		responses.WriteRedirect(w, fmt.Sprintf(orderLocationFmt, result.Order.ID), checkoutNotice{
			Message: orderPlacedMessage,
			Order:   result.Order,
		})
	}
}
