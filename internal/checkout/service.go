package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartStore interface {
	Load(ctx context.Context, sessionID string) (cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type checkoutObserver interface {
	Observe(outcome string, elapsed time.Duration)
	AddRevenue(amount float64)
}

type nopObserver struct{}

func (nopObserver) Observe(string, time.Duration) {}
func (nopObserver) AddRevenue(float64)            {}

// Result is the outcome of a checkout attempt. Empty is set when the cart
// held nothing and no order was created.
type Result struct {
	Empty bool
	Order *orders.OrderDTO
}

// Service converts a session cart into an order.
type Service interface {
	Execute(ctx context.Context, sessionID string, identity *session.Identity) (*Result, error)
}

// ServiceParams bundles the checkout dependencies.
type ServiceParams struct {
	Tx          txRunner
	Carts       cartStore
	ProductRepo *product.Repository
	OrdersRepo  orders.Repository
	Metrics     checkoutObserver
	Logger      *logger.Logger
}

type service struct {
	tx          txRunner
	carts       cartStore
	productRepo *product.Repository
	ordersRepo  orders.Repository
	metrics     checkoutObserver
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	svc := &service{
		tx:          params.Tx,
		carts:       params.Carts,
		productRepo: params.ProductRepo,
		ordersRepo:  params.OrdersRepo,
		metrics:     params.Metrics,
		logg:        params.Logger,
		now:         time.Now,
	}
	if svc.metrics == nil {
		svc.metrics = nopObserver{}
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	return svc, nil
}

// Execute validates the cart against live stock, then writes the order,
// its lines and the stock decrements in one transaction. On any shortage
// nothing is written and the cart is kept.
func (s *service) Execute(ctx context.Context, sessionID string, identity *session.Identity) (*Result, error) {
	if identity == nil || identity.UserID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	started := s.now()

	current, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		s.metrics.Observe(metrics.CheckoutFailed, s.now().Sub(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if current.IsEmpty() {
		s.metrics.Observe(metrics.CheckoutEmptyCart, s.now().Sub(started))
		return &Result{Empty: true}, nil
	}
	if err := current.Validate(); err != nil {
		s.metrics.Observe(metrics.CheckoutFailed, s.now().Sub(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart")
	}

	shortages, err := s.validateStock(ctx, current)
	if err != nil {
		s.metrics.Observe(metrics.CheckoutFailed, s.now().Sub(started))
		return nil, err
	}
	if len(shortages) > 0 {
		s.metrics.Observe(metrics.CheckoutShortage, s.now().Sub(started))
		return nil, shortageError(shortages, current)
	}

	order, err := s.commit(ctx, identity.UserID, current)
	if err != nil {
		outcome := metrics.CheckoutFailed
		if pkgerrors.IsCode(err, pkgerrors.CodeStockShortage) {
			outcome = metrics.CheckoutShortage
		}
		s.metrics.Observe(outcome, s.now().Sub(started))
		return nil, err
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "order_id", order.ID), "checkout.cart_clear_failed", err)
	}

	s.metrics.Observe(metrics.CheckoutSucceeded, s.now().Sub(started))
	s.metrics.AddRevenue(order.Total.InexactFloat64())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID,
		"total":    order.Total.StringFixed(2),
		"lines":    len(order.Lines),
	}), "checkout.order_created")

	return &Result{Order: orders.FromModel(order)}, nil
}

func (s *service) validateStock(ctx context.Context, current cart.Cart) ([]Shortage, error) {
	ids := make([]uint, 0, len(current.Lines))
	for _, line := range current.Lines {
		ids = append(ids, line.ProductID)
	}
	live, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	var shortages []Shortage
	for _, line := range current.Lines {
		p, ok := live[line.ProductID]
		if !ok {
			shortages = append(shortages, Shortage{
				ProductID: line.ProductID,
				Label:     shortageLabel(line.ProductID, ""),
				Requested: line.Quantity,
			})
			continue
		}
		if p.Stock < line.Quantity {
			shortages = append(shortages, Shortage{
				ProductID: line.ProductID,
				Label:     shortageLabel(p.ID, p.Name),
				Available: p.Stock,
				Requested: line.Quantity,
			})
		}
	}
	return shortages, nil
}

func (s *service) commit(ctx context.Context, userID uint, current cart.Cart) (*models.Order, error) {
	order := &models.Order{
		UserID: userID,
		Total:  current.Total(),
		Status: enums.OrderStatusPending,
		Lines:  make([]models.OrderLine, 0, len(current.Lines)),
	}
	for _, line := range current.Lines {
		productID := line.ProductID
		order.Lines = append(order.Lines, models.OrderLine{
			ProductID:   &productID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ordersRepo.WithTx(tx).CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		productRepo := s.productRepo.WithTx(tx)
		var shortages []Shortage
		for _, line := range current.Lines {
			err := productRepo.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err == nil {
				continue
			}
			if !errors.Is(err, product.ErrInsufficientStock) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			shortage := Shortage{ProductID: line.ProductID, Label: shortageLabel(line.ProductID, ""), Requested: line.Quantity}
			if p, findErr := productRepo.FindByID(ctx, line.ProductID); findErr == nil {
				shortage.Label = shortageLabel(p.ID, p.Name)
				shortage.Available = p.Stock
			}
			shortages = append(shortages, shortage)
		}
		if len(shortages) > 0 {
			return shortageError(shortages, current)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
