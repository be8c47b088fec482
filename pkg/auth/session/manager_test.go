package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/redis/redistest"
)

func newTestManager(t *testing.T) (*Manager, *redistest.Fake) {
	t.Helper()
	client, fake := redistest.Client()
	manager, err := NewManager(client, config.SessionConfig{TTL: time.Hour})
	require.NoError(t, err)
	return manager, fake
}

func TestNewManagerValidatesInput(t *testing.T) {
	_, err := NewManager(nil, config.SessionConfig{TTL: time.Hour})
	require.Error(t, err)

	client, _ := redistest.Client()
	_, err = NewManager(client, config.SessionConfig{})
	require.Error(t, err)
}

func TestIdentityAnonymousSession(t *testing.T) {
	manager, _ := newTestManager(t)

	identity, err := manager.Identity(context.Background(), NewID())
	require.NoError(t, err)
	assert.Nil(t, identity)

	_, err = manager.Identity(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidSessionID)
}

func TestSignInRotatesSessionAndCarriesCart(t *testing.T) {
	ctx := context.Background()
	manager, fake := newTestManager(t)

	prior := NewID()
	require.NoError(t, manager.store.Set(ctx, manager.keyer.CartKey(prior), `{"lines":[{"product_id":1}]}`, time.Hour))

	newID, err := manager.SignIn(ctx, prior, Identity{UserID: 7, Name: "Ada", Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	assert.NotEqual(t, prior, newID)

	identity, err := manager.Identity(ctx, newID)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, uint(7), identity.UserID)
	assert.Equal(t, "Ada", identity.Name)
	assert.True(t, identity.IsAdmin())

	cart, ok := fake.Value("sf:cart:" + newID)
	require.True(t, ok)
	assert.Equal(t, `{"lines":[{"product_id":1}]}`, cart)
	assert.Equal(t, time.Hour, fake.TTL("sf:session:"+newID))

	_, ok = fake.Value("sf:cart:" + prior)
	assert.False(t, ok, "prior cart key should be removed")
}

func TestSignInWithoutPriorSession(t *testing.T) {
	manager, _ := newTestManager(t)

	newID, err := manager.SignIn(context.Background(), "", Identity{UserID: 1, Name: "Bo", Role: enums.UserRoleCustomer})
	require.NoError(t, err)
	assert.NotEmpty(t, newID)

	_, err = manager.SignIn(context.Background(), "", Identity{})
	require.Error(t, err)
}

func TestDestroyClearsIdentityAndCart(t *testing.T) {
	ctx := context.Background()
	manager, fake := newTestManager(t)

	sid, err := manager.SignIn(ctx, "", Identity{UserID: 3, Name: "Cy", Role: enums.UserRoleCustomer})
	require.NoError(t, err)
	require.NoError(t, manager.store.Set(ctx, manager.keyer.CartKey(sid), `{"lines":[]}`, time.Hour))

	require.NoError(t, manager.Destroy(ctx, sid))

	identity, err := manager.Identity(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, identity)
	_, ok := fake.Value("sf:cart:" + sid)
	assert.False(t, ok)
}

func TestTouchExtendsIdentityAndCart(t *testing.T) {
	ctx := context.Background()
	manager, fake := newTestManager(t)

	sid, err := manager.SignIn(ctx, "", Identity{UserID: 3, Name: "Cy", Role: enums.UserRoleCustomer})
	require.NoError(t, err)
	require.NoError(t, manager.store.Set(ctx, "sf:session:"+sid, `{"user_id":3,"name":"Cy","role":"customer"}`, time.Minute))
	require.NoError(t, manager.store.Set(ctx, "sf:cart:"+sid, `{"lines":[]}`, time.Minute))

	require.NoError(t, manager.Touch(ctx, sid))

	assert.Equal(t, time.Hour, fake.TTL("sf:session:"+sid))
	assert.Equal(t, time.Hour, fake.TTL("sf:cart:"+sid))
	assert.ErrorIs(t, manager.Touch(ctx, " "), ErrInvalidSessionID)
}

func TestIdentityCorruptPayloadIsAnonymous(t *testing.T) {
	ctx := context.Background()
	manager, fake := newTestManager(t)
	sid := NewID()
	require.NoError(t, manager.store.Set(ctx, manager.keyer.SessionKey(sid), "not-json", time.Hour))

	identity, err := manager.Identity(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, identity)
	_, ok := fake.Value("sf:session:" + sid)
	assert.False(t, ok)
}

func TestIdentityStoreFailure(t *testing.T) {
	manager, fake := newTestManager(t)
	fake.Err = errors.New("connection reset")

	_, err := manager.Identity(context.Background(), NewID())
	require.Error(t, err)
}

func TestIsAdminNilSafe(t *testing.T) {
	var identity *Identity
	assert.False(t, identity.IsAdmin())
}
