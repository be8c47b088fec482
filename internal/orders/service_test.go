package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type fixture struct {
	svc     Service
	client  *db.Client
	conn    *gorm.DB
	buyer   models.User
	other   models.User
	product models.Product
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := dbtest.OpenClient(t)

	buyer := models.User{Name: "Buyer", Email: "buyer@example.com", PasswordHash: "x", Role: enums.UserRoleCustomer}
	other := models.User{Name: "Other", Email: "other@example.com", PasswordHash: "x", Role: enums.UserRoleCustomer}
	require.NoError(t, conn.Create(&buyer).Error)
	require.NoError(t, conn.Create(&other).Error)

	p := models.Product{Name: "Mug", Price: decimal.RequireFromString("4.50"), Stock: 10}
	require.NoError(t, conn.Create(&p).Error)

	productRepo := product.NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(conn),
		Tx:        client,
		Inventory: func(tx *gorm.DB) InventoryRestocker { return productRepo.WithTx(tx) },
		Products:  productRepo,
		Users:     users.NewRepository(conn),
	})
	require.NoError(t, err)
	return fixture{svc: svc, client: client, conn: conn, buyer: buyer, other: other, product: p}
}

func (f fixture) placeOrder(t *testing.T, userID uint, qty int, status enums.OrderStatus) models.Order {
	t.Helper()
	productID := f.product.ID
	order := models.Order{
		UserID: userID,
		Total:  f.product.Price.Mul(decimal.NewFromInt(int64(qty))),
		Status: status,
		Lines: []models.OrderLine{{
			ProductID:   &productID,
			ProductName: f.product.Name,
			Quantity:    qty,
			UnitPrice:   f.product.Price,
		}},
	}
	require.NoError(t, NewRepository(f.conn).CreateOrder(context.Background(), &order))
	return order
}

func TestGetVisibleToOwnerAndAdminOnly(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t, f.buyer.ID, 2, enums.OrderStatusPending)
	ctx := context.Background()

	dto, err := f.svc.Get(ctx, &session.Identity{UserID: f.buyer.ID, Role: enums.UserRoleCustomer}, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "9.00", dto.Total)
	require.Len(t, dto.Lines, 1)
	assert.Equal(t, "4.50", dto.Lines[0].UnitPrice)
	assert.Equal(t, "9.00", dto.Lines[0].Subtotal)

	_, err = f.svc.Get(ctx, &session.Identity{UserID: f.other.ID, Role: enums.UserRoleCustomer}, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	dto, err = f.svc.Get(ctx, &session.Identity{UserID: 999, Role: enums.UserRoleAdmin}, order.ID)
	require.NoError(t, err)
	require.NotNil(t, dto.Customer)
	assert.Equal(t, "buyer@example.com", dto.Customer.Email)
}

func TestListMineNewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.placeOrder(t, f.buyer.ID, 1, enums.OrderStatusPending)
	second := f.placeOrder(t, f.buyer.ID, 1, enums.OrderStatusPending)
	f.placeOrder(t, f.other.ID, 1, enums.OrderStatusPending)

	rows, err := f.svc.ListMine(context.Background(), f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, second.ID, rows[0].ID)
	assert.Equal(t, first.ID, rows[1].ID)
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	f.placeOrder(t, f.buyer.ID, 1, enums.OrderStatusPending)
	shipped := f.placeOrder(t, f.buyer.ID, 1, enums.OrderStatusShipped)

	page, err := f.svc.List(context.Background(), ListParams{Status: "SHIPPED"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, shipped.ID, page.Items[0].ID)
	assert.Empty(t, page.NextCursor)

	all, err := f.svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = f.svc.List(context.Background(), ListParams{Status: "lost"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListPagesNewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.placeOrder(t, f.buyer.ID, 1, enums.OrderStatusPending)
	second := f.placeOrder(t, f.other.ID, 1, enums.OrderStatusPending)
	third := f.placeOrder(t, f.buyer.ID, 1, enums.OrderStatusPaid)

	page, err := f.svc.List(context.Background(), ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, third.ID, page.Items[0].ID)
	assert.Equal(t, second.ID, page.Items[1].ID)
	require.NotEmpty(t, page.NextCursor)

	rest, err := f.svc.List(context.Background(), ListParams{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Equal(t, first.ID, rest.Items[0].ID)
	assert.Empty(t, rest.NextCursor)

	_, err = f.svc.List(context.Background(), ListParams{Cursor: "not-a-cursor"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCancelRestocksAndIsFinal(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t, f.buyer.ID, 3, enums.OrderStatusPaid)
	ctx := context.Background()

	dto, err := f.svc.UpdateStatus(ctx, order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, dto.Status)

	var reloaded models.Product
	require.NoError(t, f.conn.First(&reloaded, f.product.ID).Error)
	assert.Equal(t, 13, reloaded.Stock)

	_, err = f.svc.UpdateStatus(ctx, order.ID, "shipped")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

// staleReads serves FindOrder with a status captured before another writer
// moved the order, as the losing side of two concurrent updates would see it.
type staleReads struct {
	Repository
	status enums.OrderStatus
}

func (s staleReads) WithTx(tx *gorm.DB) Repository {
	return staleReads{Repository: s.Repository.WithTx(tx), status: s.status}
}

func (s staleReads) FindOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.Repository.FindOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Status = s.status
	return order, nil
}

func TestConcurrentCancelRestocksOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, f.buyer.ID, 3, enums.OrderStatusPending)

	_, err := f.svc.UpdateStatus(ctx, order.ID, "cancelled")
	require.NoError(t, err)

	productRepo := product.NewRepository(f.conn)
	late, err := NewService(ServiceParams{
		Repo:      staleReads{Repository: NewRepository(f.conn), status: enums.OrderStatusPending},
		Tx:        f.client,
		Inventory: func(tx *gorm.DB) InventoryRestocker { return productRepo.WithTx(tx) },
		Products:  productRepo,
		Users:     users.NewRepository(f.conn),
	})
	require.NoError(t, err)

	_, err = late.UpdateStatus(ctx, order.ID, "cancelled")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	var reloaded models.Product
	require.NoError(t, f.conn.First(&reloaded, f.product.ID).Error)
	assert.Equal(t, 13, reloaded.Stock)
}

func TestUpdateOrderStatusIsConditional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t, f.buyer.ID, 1, enums.OrderStatusPending)
	repo := NewRepository(f.conn)

	require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled))
	err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrStatusChanged)

	reloaded, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)
}

func TestUpdateStatusValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, 1, "refunded")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.UpdateStatus(ctx, 404, "paid")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestReport(t *testing.T) {
	f := newFixture(t)
	f.placeOrder(t, f.buyer.ID, 2, enums.OrderStatusPending)
	f.placeOrder(t, f.buyer.ID, 1, enums.OrderStatusShipped)
	f.placeOrder(t, f.other.ID, 4, enums.OrderStatusCancelled)

	report, err := f.svc.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.OrderCount)
	assert.Equal(t, int64(1), report.OrdersByStatus[enums.OrderStatusPending])
	assert.Equal(t, int64(0), report.OrdersByStatus[enums.OrderStatusPaid])
	assert.Equal(t, int64(1), report.OrdersByStatus[enums.OrderStatusCancelled])
	assert.Equal(t, "13.50", report.Revenue)
	assert.Equal(t, int64(1), report.ProductCount)
	assert.Equal(t, int64(2), report.UserCount)
}

func TestReportWithoutOrders(t *testing.T) {
	f := newFixture(t)
	report, err := f.svc.Report(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0.00", report.Revenue)
	assert.Zero(t, report.OrderCount)
}
