package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type counter interface {
	Count(ctx context.Context) (int64, error)
}

// Service defines order reads, admin status changes and reporting.
type Service interface {
	Get(ctx context.Context, viewer *session.Identity, id uint) (*OrderDTO, error)
	ListMine(ctx context.Context, userID uint) ([]OrderDTO, error)
	List(ctx context.Context, params ListParams) (pagination.Page[OrderDTO], error)
	UpdateStatus(ctx context.Context, id uint, status string) (*OrderDTO, error)
	Report(ctx context.Context) (*ReportDTO, error)
}

// ListParams filters and pages the admin order listing.
type ListParams struct {
	Status string
	Limit  int
	Cursor string
}

// ServiceParams bundles the order service dependencies.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Inventory func(tx *gorm.DB) InventoryRestocker
	Products  counter
	Users     counter
}

type service struct {
	repo      Repository
	tx        txRunner
	inventory func(tx *gorm.DB) InventoryRestocker
	products  counter
	users     counter
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory restocker required")
	}
	if params.Products == nil || params.Users == nil {
		return nil, fmt.Errorf("product and user counters required")
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		inventory: params.Inventory,
		products:  params.Products,
		users:     params.Users,
	}, nil
}

// Get returns the order to its owner or an admin; everyone else sees NotFound.
func (s *service) Get(ctx context.Context, viewer *session.Identity, id uint) (*OrderDTO, error) {
	if viewer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	if order.UserID != viewer.UserID && !viewer.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return FromModel(order), nil
}

func (s *service) ListMine(ctx context.Context, userID uint) ([]OrderDTO, error) {
	rows, err := s.repo.ListUserOrders(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return fromModels(rows), nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[OrderDTO], error) {
	var filter *enums.OrderStatus
	if raw := strings.ToLower(strings.TrimSpace(params.Status)); raw != "" {
		parsed, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
		}
		filter = &parsed
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	var beforeID uint
	if cursor != nil {
		beforeID = cursor.ID
	}

	rows, err := s.repo.ListOrders(ctx, filter, beforeID, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return pagination.Slice(fromModels(rows), params.Limit, func(o OrderDTO) uint { return o.ID }), nil
}

// UpdateStatus moves an order to status. Cancelled orders are final, and
// cancelling returns the ordered quantities to stock. The write is
// conditional on the status read, so of two racing cancels only one restocks.
func (s *service) UpdateStatus(ctx context.Context, id uint, status string) (*OrderDTO, error) {
	next, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, id)
		if err != nil {
			return mapLookupError(err)
		}
		if order.Status == next {
			return nil
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot change status").
				WithDetails(map[string]any{"current": order.Status, "requested": next})
		}

		if err := repo.UpdateOrderStatus(ctx, id, order.Status, next); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed, reload and retry").
					WithDetails(map[string]any{"expected": order.Status, "requested": next})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if next != enums.OrderStatusCancelled {
			return nil
		}

		inventory := s.inventory(tx)
		for _, line := range order.Lines {
			if line.ProductID == nil {
				continue
			}
			if err := inventory.IncrementStock(ctx, *line.ProductID, line.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock cancelled order")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return FromModel(order), nil
}

func (s *service) Report(ctx context.Context) (*ReportDTO, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	revenue, err := s.repo.Revenue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum revenue")
	}
	products, err := s.products.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
	}

	var orderCount int64
	for _, n := range byStatus {
		orderCount += n
	}
	return &ReportDTO{
		OrdersByStatus: byStatus,
		OrderCount:     orderCount,
		Revenue:        revenue.StringFixed(2),
		ProductCount:   products,
		UserCount:      users,
	}, nil
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func decimalQty(qty int) decimal.Decimal {
	return decimal.NewFromInt(int64(qty))
}
