package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func TestRegisterCreatesCustomer(t *testing.T) {
	client, conn := dbtest.OpenClient(t)
	svc, err := NewRegisterService(RegisterServiceParams{DB: client, Passwords: testHasher(t)})
	require.NoError(t, err)

	user, err := svc.Register(context.Background(), RegisterRequest{
		Name:            " Ada ",
		Email:           " Ada@Example.com ",
		Password:        "s3cret!",
		ConfirmPassword: "s3cret!",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, enums.UserRoleCustomer, user.Role)

	var stored models.User
	require.NoError(t, conn.First(&stored, user.ID).Error)
	assert.NotEqual(t, "s3cret!", stored.PasswordHash)
	ok, err := testHasher(t).Verify("s3cret!", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterPasswordMismatchCreatesNothing(t *testing.T) {
	client, conn := dbtest.OpenClient(t)
	svc, err := NewRegisterService(RegisterServiceParams{DB: client, Passwords: testHasher(t)})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Name:            "Ada",
		Email:           "ada@example.com",
		Password:        "one-password",
		ConfirmPassword: "another-password",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, "passwords do not match", pkgerrors.As(err).Message())

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	client, _ := dbtest.OpenClient(t)
	svc, err := NewRegisterService(RegisterServiceParams{DB: client, Passwords: testHasher(t)})
	require.NoError(t, err)

	req := RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "pw1234", ConfirmPassword: "pw1234"}
	_, err = svc.Register(context.Background(), req)
	require.NoError(t, err)

	req.Email = "ADA@example.com"
	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, "email already in use", pkgerrors.As(err).Message())
}
