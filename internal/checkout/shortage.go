package checkout

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Shortage is a cart line whose requested quantity exceeds live stock.
type Shortage struct {
	ProductID uint   `json:"product_id"`
	Label     string `json:"label"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

func (s Shortage) Error() string {
	return fmt.Sprintf("%s: %d available, %d requested", s.Label, s.Available, s.Requested)
}

func (s Shortage) FailedProductID() uint {
	return s.ProductID
}

// ShortageDetails is attached to the STOCK_SHORTAGE error so the client can
// re-render the untouched cart next to the offending lines.
type ShortageDetails struct {
	Shortages []Shortage `json:"shortages"`
	Cart      cart.View  `json:"cart"`
}

func shortageLabel(productID uint, name string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return fmt.Sprintf("#%d", productID)
}

// shortageError folds every shortage into one aggregated error.
func shortageError(shortages []Shortage, current cart.Cart) error {
	var combined error
	for _, s := range shortages {
		combined = multierr.Append(combined, s)
	}

	parts := make([]string, 0, len(shortages))
	for _, err := range multierr.Errors(combined) {
		parts = append(parts, err.Error())
	}

	return pkgerrors.Wrap(pkgerrors.CodeStockShortage, combined, "insufficient stock: "+strings.Join(parts, "; ")).
		WithDetails(ShortageDetails{Shortages: shortages, Cart: cart.NewView(current)})
}
