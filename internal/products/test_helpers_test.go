package product

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func seedCategory(t *testing.T, conn *gorm.DB, name string) models.Category {
	t.Helper()
	row := models.Category{Name: name}
	require.NoError(t, conn.Create(&row).Error)
	return row
}

func seedProduct(t *testing.T, conn *gorm.DB, name, price string, stock int, categoryID *uint) models.Product {
	t.Helper()
	row := models.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: categoryID,
	}
	require.NoError(t, conn.Create(&row).Error)
	return row
}

func names(rows []models.Product) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Name)
	}
	return out
}

type fakeImageStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	deleted []string
	saveErr error
	seq     int
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{saved: map[string][]byte{}}
}

func (f *fakeImageStore) Save(_ context.Context, filename string, body io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.seq++
	ref := fmt.Sprintf("/media/%d_%s", f.seq, filename)
	f.saved[ref] = data
	return ref, nil
}

func (f *fakeImageStore) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, ref)
	f.deleted = append(f.deleted, ref)
	return nil
}

type staticCategories map[uint]bool

func (s staticCategories) Exists(_ context.Context, id uint) (bool, error) {
	return s[id], nil
}
