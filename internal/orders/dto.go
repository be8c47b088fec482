package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderLineDTO is an immutable order line snapshot.
type OrderLineDTO struct {
	ProductID   *uint  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Subtotal    string `json:"subtotal"`
}

// CustomerDTO identifies the buyer on admin order views.
type CustomerDTO struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderDTO is the order confirmation / history payload.
type OrderDTO struct {
	ID        uint              `json:"id"`
	UserID    uint              `json:"user_id"`
	Customer  *CustomerDTO      `json:"customer,omitempty"`
	Status    enums.OrderStatus `json:"status"`
	Total     string            `json:"total"`
	Lines     []OrderLineDTO    `json:"lines"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ReportDTO is the admin dashboard summary.
type ReportDTO struct {
	OrdersByStatus map[enums.OrderStatus]int64 `json:"orders_by_status"`
	OrderCount     int64                       `json:"order_count"`
	Revenue        string                      `json:"revenue"`
	ProductCount   int64                       `json:"product_count"`
	UserCount      int64                       `json:"user_count"`
}

// FromModel maps an order with its lines.
func FromModel(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}
	lines := make([]OrderLineDTO, 0, len(m.Lines))
	for _, line := range m.Lines {
		lines = append(lines, OrderLineDTO{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.StringFixed(2),
			Subtotal:    line.UnitPrice.Mul(decimalQty(line.Quantity)).StringFixed(2),
		})
	}
	dto := &OrderDTO{
		ID:        m.ID,
		UserID:    m.UserID,
		Status:    m.Status,
		Total:     m.Total.StringFixed(2),
		Lines:     lines,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.User != nil {
		dto.Customer = &CustomerDTO{ID: m.User.ID, Name: m.User.Name, Email: m.User.Email}
	}
	return dto
}

func fromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
