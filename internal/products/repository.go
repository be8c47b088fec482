package product

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// ErrInsufficientStock is returned by DecrementStock when no row matched the
// stock guard.
var ErrInsufficientStock = errors.New("insufficient stock")

// Repository handles product persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository bound to the given connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository scoped to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// List runs the catalog query. The name filter is a case-sensitive substring
// match; instr and strpos both compare bytes.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	filter = filter.normalize()

	query := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Category")
	if filter.Query != "" {
		query = query.Where(substringClause(r.db), filter.Query)
	}
	if len(filter.CategoryIDs) > 0 {
		query = query.Where("category_id IN ?", filter.CategoryIDs)
	}
	query = query.Where("price <= ?", *filter.MaxPrice)

	switch filter.Sort {
	case enums.CatalogSortOldest:
		query = query.Order("id ASC")
	case enums.CatalogSortPriceAsc:
		query = query.Order("price ASC").Order("id DESC")
	case enums.CatalogSortPriceDesc:
		query = query.Order("price DESC").Order("id DESC")
	default:
		query = query.Order("id DESC")
	}

	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func substringClause(db *gorm.DB) string {
	if db.Dialector.Name() == "sqlite" {
		return "instr(name, ?) > 0"
	}
	return "strpos(name, ?) > 0"
}

// FindByID loads a product with its category.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs returns the products that exist among ids, keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := make(map[uint]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category").Create(product).Error
}

// Update persists the editable columns of a product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("name", "description", "price", "stock", "image", "category_id", "updated_at").
		Updates(product).Error
}

// Delete removes a product; order lines keep their snapshot with a null product.
func (r *Repository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DecrementStock subtracts qty only while enough stock remains, so the check
// and the write happen in one statement.
func (r *Repository) DecrementStock(ctx context.Context, id uint, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Count returns the number of catalog rows.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// IncrementStock returns qty units to a product, used when an order is cancelled.
func (r *Repository) IncrementStock(ctx context.Context, id uint, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty)).Error
}
