package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
)

var ErrInvalidSessionID = errors.New("invalid session id")

// Identity is the signed-in user bound to a session.
type Identity struct {
	UserID uint           `json:"user_id"`
	Name   string         `json:"name"`
	Role   enums.UserRole `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == enums.UserRoleAdmin
}

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Touch(ctx context.Context, ttl time.Duration, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
	CartKey(sessionID string) string
}

// Manager owns the server-side state of a browser session: the identity
// record and, for lifecycle operations, the cart blob stored next to it.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// Store exposes the read surface needed by the session middleware.
type Store interface {
	Identity(ctx context.Context, sessionID string) (*Identity, error)
	Touch(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: client, keyer: client, ttl: cfg.TTL}, nil
}

// NewID produces a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// TTL returns the lifetime applied to session keys and tokens.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Identity loads the identity bound to sessionID; anonymous sessions return nil.
func (m *Manager) Identity(ctx context.Context, sessionID string) (*Identity, error) {
	if err := validateID(sessionID); err != nil {
		return nil, err
	}
	raw, err := m.store.Get(ctx, m.keyer.SessionKey(sessionID))
	if err != nil {
		if redisclient.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session identity: %w", err)
	}

	var identity Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil || identity.UserID == 0 {
		// unreadable identity: treat the session as anonymous
		_ = m.store.Del(ctx, m.keyer.SessionKey(sessionID))
		return nil, nil
	}
	return &identity, nil
}

// SignIn binds identity to a new session id, carries the cart of the prior
// session over and discards the prior session's keys.
func (m *Manager) SignIn(ctx context.Context, priorID string, identity Identity) (string, error) {
	if identity.UserID == 0 {
		return "", fmt.Errorf("identity user id is required")
	}
	payload, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("encode identity: %w", err)
	}

	newID := NewID()
	if err := m.store.Set(ctx, m.keyer.SessionKey(newID), payload, m.ttl); err != nil {
		return "", fmt.Errorf("store session identity: %w", err)
	}

	if validateID(priorID) != nil {
		return newID, nil
	}

	priorCart := m.keyer.CartKey(priorID)
	blob, err := m.store.Get(ctx, priorCart)
	switch {
	case err == nil:
		if err := m.store.Set(ctx, m.keyer.CartKey(newID), blob, m.ttl); err != nil {
			return "", fmt.Errorf("carry cart over: %w", err)
		}
	case !redisclient.IsNil(err):
		return "", fmt.Errorf("load prior cart: %w", err)
	}

	if err := m.store.Del(ctx, m.keyer.SessionKey(priorID), priorCart); err != nil {
		return "", fmt.Errorf("discard prior session: %w", err)
	}
	return newID, nil
}

// Touch extends the identity and cart of an active session by a full ttl.
func (m *Manager) Touch(ctx context.Context, sessionID string) error {
	if err := validateID(sessionID); err != nil {
		return err
	}
	return m.store.Touch(ctx, m.ttl, m.keyer.SessionKey(sessionID), m.keyer.CartKey(sessionID))
}

// Destroy removes every key belonging to sessionID.
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	if err := validateID(sessionID); err != nil {
		return err
	}
	return m.store.Del(ctx, m.keyer.SessionKey(sessionID), m.keyer.CartKey(sessionID))
}

func validateID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSessionID
	}
	return nil
}
