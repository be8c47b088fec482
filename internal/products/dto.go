package product

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductDTO is the catalog payload returned to clients. Price is rendered
// with two decimals.
type ProductDTO struct {
	ID          uint                    `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Price       string                  `json:"price"`
	Stock       int                     `json:"stock"`
	Image       *string                 `json:"image,omitempty"`
	CategoryID  *uint                   `json:"category_id,omitempty"`
	Category    *categories.CategoryDTO `json:"category,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// FromModel maps a product row to its DTO.
func FromModel(m *models.Product) ProductDTO {
	return ProductDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price.StringFixed(2),
		Stock:       m.Stock,
		Image:       m.Image,
		CategoryID:  m.CategoryID,
		Category:    categories.FromModel(m.Category),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func fromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
