package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uint) (*models.Product, error)
}

// CartStore is the read-modify-write contract against session storage.
type CartStore interface {
	Load(ctx context.Context, sessionID string) (Cart, error)
	Save(ctx context.Context, sessionID string, c Cart) error
	Clear(ctx context.Context, sessionID string) error
}

// Service exposes the session cart operations.
type Service interface {
	Get(ctx context.Context, sessionID string) (View, error)
	Add(ctx context.Context, sessionID string, productID uint, quantity int) (View, error)
	Remove(ctx context.Context, sessionID string, productID uint, all bool) (View, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	store    CartStore
	products productLoader
}

// NewService builds a cart service backed by the provided store and catalog.
func NewService(store CartStore, products productLoader) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{store: store, products: products}, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (View, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return NewView(c), nil
}

// Add snapshots the product into the cart. Unknown products leave the cart unchanged.
func (s *service) Add(ctx context.Context, sessionID string, productID uint, quantity int) (View, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}

	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewView(c), nil
		}
		return View{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	c = c.Add(Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Image:     p.Image,
		Quantity:  quantity,
	})
	if err := s.save(ctx, sessionID, c); err != nil {
		return View{}, err
	}
	return NewView(c), nil
}

func (s *service) Remove(ctx context.Context, sessionID string, productID uint, all bool) (View, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	c = c.Remove(productID, all)
	if err := s.save(ctx, sessionID, c); err != nil {
		return View{}, err
	}
	return NewView(c), nil
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if err := s.store.Clear(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) load(ctx context.Context, sessionID string) (Cart, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return Cart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return c, nil
}

func (s *service) save(ctx context.Context, sessionID string, c Cart) error {
	if err := s.store.Save(ctx, sessionID, c); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}
