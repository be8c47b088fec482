package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog listing with its live stock level.
type Product struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;type:text;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Stock       int             `gorm:"column:stock;not null;default:0;check:products_stock_non_negative,stock >= 0"`
	Image       *string         `gorm:"column:image"`
	CategoryID  *uint           `gorm:"column:category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
