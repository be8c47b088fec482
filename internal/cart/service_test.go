package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/redis/redistest"
)

type stubProducts map[uint]models.Product

func (s stubProducts) FindByID(_ context.Context, id uint) (*models.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func newTestService(t *testing.T, products stubProducts) (Service, *redistest.Fake) {
	t.Helper()
	client, fake := redistest.Client()
	store, err := NewStore(client, time.Hour)
	require.NoError(t, err)
	svc, err := NewService(store, products)
	require.NoError(t, err)
	return svc, fake
}

func catalog() stubProducts {
	img := "/media/a.png"
	return stubProducts{
		1: {ID: 1, Name: "A", Price: decimal.RequireFromString("10.00"), Stock: 5, Image: &img},
		2: {ID: 2, Name: "B", Price: decimal.RequireFromString("5.00"), Stock: 5},
	}
}

func TestAddAndViewCart(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t, catalog())

	_, err := svc.Add(ctx, "sid", 1, 2)
	require.NoError(t, err)
	view, err := svc.Add(ctx, "sid", 2, 1)
	require.NoError(t, err)

	assert.Equal(t, "25.00", view.Total)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "20.00", view.Lines[0].Subtotal)
	assert.Equal(t, "/media/a.png", *view.Lines[0].Image)

	_, ok := fake.Value("sf:cart:sid")
	assert.True(t, ok)
	assert.Equal(t, time.Hour, fake.TTL("sf:cart:sid"))

	reloaded, err := svc.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, view, reloaded)
}

func TestAddUnknownProductLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, catalog())

	before, err := svc.Add(ctx, "sid", 1, 1)
	require.NoError(t, err)
	after, err := svc.Add(ctx, "sid", 99, 3)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPriceSnapshotSurvivesCatalogChange(t *testing.T) {
	ctx := context.Background()
	products := catalog()
	svc, _ := newTestService(t, products)

	_, err := svc.Add(ctx, "sid", 1, 1)
	require.NoError(t, err)

	changed := products[1]
	changed.Price = decimal.NewFromInt(999)
	products[1] = changed

	view, err := svc.Add(ctx, "sid", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "10.00", view.Lines[0].UnitPrice)
	assert.Equal(t, "20.00", view.Total)
}

func TestRemoveEmptiesAndDeletesBlob(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t, catalog())

	_, err := svc.Add(ctx, "sid", 1, 3)
	require.NoError(t, err)

	view, err := svc.Remove(ctx, "sid", 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Lines[0].Quantity)

	view, err = svc.Remove(ctx, "sid", 1, true)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Equal(t, "0.00", view.Total)

	_, ok := fake.Value("sf:cart:sid")
	assert.False(t, ok)
}

func TestCartsAreScopedToSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, catalog())

	_, err := svc.Add(ctx, "one", 1, 1)
	require.NoError(t, err)

	other, err := svc.Get(ctx, "two")
	require.NoError(t, err)
	assert.Empty(t, other.Lines)
}

func TestStoreFailureIsDependencyError(t *testing.T) {
	ctx := context.Background()
	svc, fake := newTestService(t, catalog())
	fake.Err = errors.New("connection refused")

	_, err := svc.Get(ctx, "sid")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
}

func TestClearRemovesCart(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, catalog())

	_, err := svc.Add(ctx, "sid", 2, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "sid"))

	view, err := svc.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}
