package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis/redistest"
)

const sid = "session-1"

type fixture struct {
	svc      Service
	conn     *gorm.DB
	carts    *cart.Store
	cartSvc  cart.Service
	registry *prometheus.Registry
	buyer    *session.Identity
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := dbtest.OpenClient(t)
	redisClient, _ := redistest.Client()
	carts, err := cart.NewStore(redisClient, time.Hour)
	require.NoError(t, err)

	productRepo := product.NewRepository(conn)
	cartSvc, err := cart.NewService(carts, productRepo)
	require.NoError(t, err)

	user := models.User{Name: "Buyer", Email: "buyer@example.com", PasswordHash: "x", Role: enums.UserRoleCustomer}
	require.NoError(t, conn.Create(&user).Error)

	registry := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Tx:          client,
		Carts:       carts,
		ProductRepo: productRepo,
		OrdersRepo:  orders.NewRepository(conn),
		Metrics:     metrics.NewCheckoutMetrics(registry),
	})
	require.NoError(t, err)

	return fixture{
		svc:      svc,
		conn:     conn,
		carts:    carts,
		cartSvc:  cartSvc,
		registry: registry,
		buyer:    &session.Identity{UserID: user.ID, Name: user.Name, Role: user.Role},
	}
}

func (f fixture) product(t *testing.T, name, price string, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock}
	require.NoError(t, f.conn.Create(&p).Error)
	return p
}

func (f fixture) add(t *testing.T, productID uint, qty int) {
	t.Helper()
	_, err := f.cartSvc.Add(context.Background(), sid, productID, qty)
	require.NoError(t, err)
}

func (f fixture) stock(t *testing.T, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, f.conn.First(&p, id).Error)
	return p.Stock
}

func (f fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&n).Error)
	return n
}

func TestCheckoutCreatesOrderAndDecrementsStock(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", "10.00", 5)
	b := f.product(t, "B", "5.00", 1)
	f.add(t, a.ID, 2)
	f.add(t, b.ID, 1)

	res, err := f.svc.Execute(context.Background(), sid, f.buyer)
	require.NoError(t, err)
	require.False(t, res.Empty)
	require.NotNil(t, res.Order)
	assert.Equal(t, "25.00", res.Order.Total)
	assert.Equal(t, enums.OrderStatusPending, res.Order.Status)
	assert.Equal(t, f.buyer.UserID, res.Order.UserID)
	require.Len(t, res.Order.Lines, 2)
	assert.Equal(t, "A", res.Order.Lines[0].ProductName)
	assert.Equal(t, 2, res.Order.Lines[0].Quantity)

	assert.Equal(t, 3, f.stock(t, a.ID))
	assert.Equal(t, 0, f.stock(t, b.ID))
	assert.Equal(t, int64(1), f.orderCount(t))

	remaining, err := f.carts.Load(context.Background(), sid)
	require.NoError(t, err)
	assert.True(t, remaining.IsEmpty())

	assert.Equal(t, float64(1), attempts(t, f.registry, metrics.CheckoutSucceeded))
}

func TestCheckoutUsesCartSnapshotPrice(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", "10.00", 5)
	f.add(t, a.ID, 1)
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", a.ID).Update("price", decimal.NewFromInt(99)).Error)

	res, err := f.svc.Execute(context.Background(), sid, f.buyer)
	require.NoError(t, err)
	assert.Equal(t, "10.00", res.Order.Total)
	assert.Equal(t, "10.00", res.Order.Lines[0].UnitPrice)
}

func TestCheckoutShortageWritesNothing(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", "10.00", 1)
	b := f.product(t, "B", "5.00", 0)
	c := f.product(t, "C", "1.00", 9)
	f.add(t, a.ID, 2)
	f.add(t, b.ID, 1)
	f.add(t, c.ID, 1)

	_, err := f.svc.Execute(context.Background(), sid, f.buyer)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStockShortage, typed.Code())
	assert.Contains(t, typed.Message(), "A: 1 available, 2 requested")
	assert.Contains(t, typed.Message(), "B: 0 available, 1 requested")

	details, ok := typed.Details().(ShortageDetails)
	require.True(t, ok)
	require.Len(t, details.Shortages, 2)
	assert.Len(t, details.Cart.Lines, 3)

	dump := pkgerrors.Dump(err)
	assert.ElementsMatch(t, []uint{a.ID, b.ID}, dump.ProductIDs)
	assert.Len(t, dump.Causes, 2)

	assert.Equal(t, 1, f.stock(t, a.ID))
	assert.Equal(t, 9, f.stock(t, c.ID))
	assert.Zero(t, f.orderCount(t))

	kept, err := f.carts.Load(context.Background(), sid)
	require.NoError(t, err)
	assert.Len(t, kept.Lines, 3)

	assert.Equal(t, float64(1), attempts(t, f.registry, metrics.CheckoutShortage))
}

func TestCheckoutMissingProductIsShortage(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", "10.00", 5)
	f.add(t, a.ID, 1)
	require.NoError(t, f.conn.Delete(&models.Product{}, a.ID).Error)

	_, err := f.svc.Execute(context.Background(), sid, f.buyer)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeStockShortage, typed.Code())
	details := typed.Details().(ShortageDetails)
	require.Len(t, details.Shortages, 1)
	assert.Equal(t, fmt.Sprintf("#%d", a.ID), details.Shortages[0].Label)
	assert.Equal(t, 0, details.Shortages[0].Available)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Execute(context.Background(), sid, f.buyer)
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Nil(t, res.Order)
	assert.Zero(t, f.orderCount(t))
}

func TestCheckoutRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", "10.00", 5)
	f.add(t, a.ID, 1)

	_, err := f.svc.Execute(context.Background(), sid, nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
	assert.Equal(t, 5, f.stock(t, a.ID))
}

func TestConditionalDecrementRollsBackWholeOrder(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", "10.00", 5)
	b := f.product(t, "B", "5.00", 5)

	current := cart.Cart{}.
		Add(cart.Line{ProductID: a.ID, Name: "A", UnitPrice: a.Price, Quantity: 1}).
		Add(cart.Line{ProductID: b.ID, Name: "B", UnitPrice: b.Price, Quantity: 2})

	// stock drops after validation would have passed
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", b.ID).Update("stock", 1).Error)

	impl := f.svc.(*service)
	_, err := impl.commit(context.Background(), f.buyer.UserID, current)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStockShortage, pkgerrors.As(err).Code())

	assert.Equal(t, 5, f.stock(t, a.ID))
	assert.Equal(t, 1, f.stock(t, b.ID))
	assert.Zero(t, f.orderCount(t))
	var lines int64
	require.NoError(t, f.conn.Model(&models.OrderLine{}).Count(&lines).Error)
	assert.Zero(t, lines)
}

func attempts(t *testing.T, reg *prometheus.Registry, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "storefront_checkout_attempts_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCheckoutHugeQuantityIsShortage(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", "10.00", 5)
	f.add(t, a.ID, cart.ParseQuantity("9223372036854775807"))
	f.add(t, a.ID, 1)

	_, err := f.svc.Execute(context.Background(), sid, f.buyer)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStockShortage, typed.Code())
	details := typed.Details().(ShortageDetails)
	require.Len(t, details.Shortages, 1)
	assert.Equal(t, cart.MaxLineQuantity, details.Shortages[0].Requested)
	assert.Equal(t, 5, f.stock(t, a.ID))
	assert.Zero(t, f.orderCount(t))
}

func TestCheckoutRejectsCorruptStoredQuantity(t *testing.T) {
	f := newFixture(t)
	a := f.product(t, "A", "10.00", 5)
	corrupt := cart.Cart{Lines: []cart.Line{{ProductID: a.ID, Name: "A", UnitPrice: decimal.RequireFromString("10.00"), Quantity: -3}}}
	require.NoError(t, f.carts.Save(context.Background(), sid, corrupt))

	_, err := f.svc.Execute(context.Background(), sid, f.buyer)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, 5, f.stock(t, a.ID))
	assert.Zero(t, f.orderCount(t))
}
