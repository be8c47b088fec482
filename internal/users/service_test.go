package users

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func setup(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo, conn
}

func createUser(t *testing.T, repo *Repository, name, email string) *models.User {
	t.Helper()
	user, err := repo.Create(context.Background(), CreateUserDTO{Name: name, Email: email, PasswordHash: "hash"})
	require.NoError(t, err)
	return user
}

func TestCreateDefaultsToCustomerRole(t *testing.T) {
	_, repo, _ := setup(t)
	user := createUser(t, repo, "Ada", "ada@example.com")
	assert.Equal(t, enums.UserRoleCustomer, user.Role)
}

func TestUpdatePromotesAndNormalisesEmail(t *testing.T) {
	svc, repo, _ := setup(t)
	user := createUser(t, repo, "Ada", "ada@example.com")

	updated, err := svc.Update(context.Background(), user.ID, UpdateUserDTO{
		Name:  " Ada L ",
		Email: " ADA@Example.com ",
		Role:  "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada L", updated.Name)
	assert.Equal(t, "ada@example.com", updated.Email)
	assert.Equal(t, enums.UserRoleAdmin, updated.Role)
}

func TestUpdateRejectsDuplicateEmailAndBadRole(t *testing.T) {
	svc, repo, _ := setup(t)
	ada := createUser(t, repo, "Ada", "ada@example.com")
	createUser(t, repo, "Bob", "bob@example.com")

	_, err := svc.Update(context.Background(), ada.ID, UpdateUserDTO{Name: "Ada", Email: "bob@example.com", Role: "customer"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, EmailInUseMessage, pkgerrors.As(err).Message())

	_, err = svc.Update(context.Background(), ada.ID, UpdateUserDTO{Name: "Ada", Email: "ada@example.com", Role: "owner"})
	require.Error(t, err)
	assert.Equal(t, "invalid role", pkgerrors.As(err).Message())
}

func TestUpdateMissingUser(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Update(context.Background(), 99, UpdateUserDTO{Name: "x", Email: "x@example.com", Role: "customer"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeleteRules(t *testing.T) {
	svc, repo, conn := setup(t)
	admin := createUser(t, repo, "Root", "root@example.com")
	buyer := createUser(t, repo, "Buyer", "buyer@example.com")
	idle := createUser(t, repo, "Idle", "idle@example.com")

	require.NoError(t, conn.Create(&models.Order{
		UserID: buyer.ID,
		Total:  decimal.NewFromInt(5),
		Status: enums.OrderStatusPending,
	}).Error)

	err := svc.Delete(context.Background(), admin.ID, admin.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	err = svc.Delete(context.Background(), admin.ID, buyer.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	require.NoError(t, svc.Delete(context.Background(), admin.ID, idle.ID))

	err = svc.Delete(context.Background(), admin.ID, idle.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	rows, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
