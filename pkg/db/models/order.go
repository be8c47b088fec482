package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is the header row materialised from a cart at checkout.
type Order struct {
	ID        uint              `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uint              `gorm:"column:user_id;not null;index"`
	User      *User             `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	Total     decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null;default:pending"`
	Lines     []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// OrderLine snapshots one cart line; it is never updated after checkout.
type OrderLine struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     uint            `gorm:"column:order_id;not null;index"`
	ProductID   *uint           `gorm:"column:product_id;index"`
	Product     *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null;check:order_lines_quantity_positive,quantity >= 1"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
}

func (OrderLine) TableName() string { return "order_lines" }
