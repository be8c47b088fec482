package orders

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ErrStatusChanged reports that an order left the expected status before a
// conditional status update ran.
var ErrStatusChanged = errors.New("order status changed concurrently")

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id uint) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID uint) ([]models.Order, error)
	ListOrders(ctx context.Context, status *enums.OrderStatus, beforeID uint, limit int) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uint, from, to enums.OrderStatus) error
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
	Revenue(ctx context.Context) (decimal.Decimal, error)
}

// InventoryRestocker returns stock for the lines of a cancelled order.
type InventoryRestocker interface {
	IncrementStock(ctx context.Context, productID uint, qty int) error
}
