package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxNameLength = 200

// Service exposes catalog reads and admin product management.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]ProductDTO, error)
	Get(ctx context.Context, id uint) (*ProductDTO, error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uint, input ProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, id uint) error
}

// ImageStore persists uploaded product images and returns a public reference.
type ImageStore interface {
	Save(ctx context.Context, filename string, body io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

type categoryChecker interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// ImageUpload is an uploaded file awaiting storage.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

// ProductInput carries the admin-editable product fields. Image is optional on update.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  *uint
	Image       *ImageUpload
}

type service struct {
	repo       *Repository
	categories categoryChecker
	images     ImageStore
	logg       *logger.Logger
}

// NewService wires the product service.
func NewService(repo *Repository, categories categoryChecker, images ImageStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category checker required")
	}
	if images == nil {
		return nil, fmt.Errorf("image store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, categories: categories, images: images, logg: logg}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return fromModels(rows), nil
}

func (s *service) Get(ctx context.Context, id uint) (*ProductDTO, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	row := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
	}

	if input.Image != nil {
		ref, err := s.saveImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		row.Image = &ref
	}

	if err := s.repo.Create(ctx, row); err != nil {
		s.discardImage(ctx, row.Image)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	return s.Get(ctx, row.ID)
}

func (s *service) Update(ctx context.Context, id uint, input ProductInput) (*ProductDTO, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	previousImage := existing.Image
	existing.Name = input.Name
	existing.Description = input.Description
	existing.Price = input.Price
	existing.Stock = input.Stock
	existing.CategoryID = input.CategoryID
	existing.Category = nil

	if input.Image != nil {
		ref, err := s.saveImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		existing.Image = &ref
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		if input.Image != nil {
			s.discardImage(ctx, existing.Image)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	if input.Image != nil {
		s.discardImage(ctx, previousImage)
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	existing, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.discardImage(ctx, existing.Image)
	return nil
}

func (s *service) load(ctx context.Context, id uint) (*models.Product, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return row, nil
}

func (s *service) validate(ctx context.Context, input *ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)

	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if len(input.Name) > maxNameLength {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
	}
	input.Price = input.Price.Round(2)

	if input.CategoryID != nil {
		ok, err := s.categories.Exists(ctx, *input.CategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "category not found")
		}
	}
	return nil
}

func (s *service) saveImage(ctx context.Context, upload *ImageUpload) (string, error) {
	ref, err := s.images.Save(ctx, upload.Filename, upload.Body)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return "", err
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store product image")
	}
	return ref, nil
}

func (s *service) discardImage(ctx context.Context, ref *string) {
	if ref == nil || *ref == "" {
		return
	}
	if err := s.images.Delete(ctx, *ref); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "image", *ref), "product.image_delete_failed", err)
	}
}
