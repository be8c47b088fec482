package categories

import "github.com/angelmondragon/storefront-backend/pkg/db/models"

// CategoryDTO is the public shape of a category.
type CategoryDTO struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func FromModel(m *models.Category) *CategoryDTO {
	if m == nil {
		return nil
	}
	return &CategoryDTO{ID: m.ID, Name: m.Name}
}
