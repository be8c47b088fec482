package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func TestListDefaultsToNewestFirst(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	seedProduct(t, conn, "Lamp", "20.00", 3, nil)
	seedProduct(t, conn, "Desk", "150.00", 1, nil)
	seedProduct(t, conn, "Chair", "75.50", 4, nil)

	rows, err := repo.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chair", "Desk", "Lamp"}, names(rows))

	rows, err = repo.List(context.Background(), ListFilter{Sort: enums.CatalogSortOldest})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lamp", "Desk", "Chair"}, names(rows))
}

func TestListTextFilterIsCaseSensitiveSubstring(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	seedProduct(t, conn, "Desk Lamp", "20.00", 3, nil)
	seedProduct(t, conn, "lamp shade", "8.00", 3, nil)
	seedProduct(t, conn, "Chair", "75.50", 4, nil)

	rows, err := repo.List(context.Background(), ListFilter{Query: "  Lamp "})
	require.NoError(t, err)
	assert.Equal(t, []string{"Desk Lamp"}, names(rows))

	rows, err = repo.List(context.Background(), ListFilter{Query: "amp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lamp shade", "Desk Lamp"}, names(rows))
}

func TestListCategoryAndPriceFilters(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	home := seedCategory(t, conn, "Home")
	books := seedCategory(t, conn, "Books")
	sports := seedCategory(t, conn, "Sports")

	seedProduct(t, conn, "Rug", "99.99", 2, &home.ID)
	seedProduct(t, conn, "Novel", "12.00", 9, &books.ID)
	seedProduct(t, conn, "Ball", "100.00", 5, &sports.ID)
	seedProduct(t, conn, "Loose", "1.00", 5, nil)

	rows, err := repo.List(context.Background(), ListFilter{CategoryIDs: []uint{home.ID, sports.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ball", "Rug"}, names(rows))
	require.NotNil(t, rows[0].Category)
	assert.Equal(t, "Sports", rows[0].Category.Name)

	ceiling := decimal.RequireFromString("99.99")
	rows, err = repo.List(context.Background(), ListFilter{MaxPrice: &ceiling})
	require.NoError(t, err)
	assert.Equal(t, []string{"Loose", "Novel", "Rug"}, names(rows))
}

func TestListDefaultCeilingExcludesExpensiveProducts(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	seedProduct(t, conn, "Boat", "50000.01", 1, nil)
	seedProduct(t, conn, "Car", "50000.00", 1, nil)

	rows, err := repo.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Car"}, names(rows))
}

func TestListPriceSortsBreakTiesByNewest(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	seedProduct(t, conn, "A", "10.00", 1, nil)
	seedProduct(t, conn, "B", "5.00", 1, nil)
	seedProduct(t, conn, "C", "10.00", 1, nil)

	rows, err := repo.List(context.Background(), ListFilter{Sort: enums.CatalogSortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, names(rows))

	rows, err = repo.List(context.Background(), ListFilter{Sort: enums.CatalogSortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, names(rows))
}

func TestDecrementStockGuardsAgainstOversell(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	p := seedProduct(t, conn, "Mug", "4.00", 2, nil)

	require.NoError(t, repo.DecrementStock(context.Background(), p.ID, 2))
	assert.ErrorIs(t, repo.DecrementStock(context.Background(), p.ID, 1), ErrInsufficientStock)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, p.ID).Error)
	assert.Equal(t, 0, reloaded.Stock)
}

func TestFindByIDsSkipsMissing(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	p := seedProduct(t, conn, "Mug", "4.00", 2, nil)

	found, err := repo.FindByIDs(context.Background(), []uint{p.ID, p.ID + 50})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Mug", found[p.ID].Name)
}

func TestParseMaxPrice(t *testing.T) {
	assert.Nil(t, ParseMaxPrice(""))
	assert.Nil(t, ParseMaxPrice("abc"))
	assert.Nil(t, ParseMaxPrice("-1"))
	got := ParseMaxPrice(" 12.5 ")
	require.NotNil(t, got)
	assert.Equal(t, "12.50", got.StringFixed(2))
}
