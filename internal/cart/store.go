package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
)

type blobStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// Store reads and writes whole carts keyed by session id. Every write
// replaces the previous blob.
type Store struct {
	redis blobStore
	ttl   time.Duration
}

// NewStore builds a Redis-backed cart store whose keys expire with the session.
func NewStore(redis blobStore, ttl time.Duration) (*Store, error) {
	if redis == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &Store{redis: redis, ttl: ttl}, nil
}

// Load returns the session cart; a missing or unreadable blob is an empty cart.
func (s *Store) Load(ctx context.Context, sessionID string) (Cart, error) {
	raw, err := s.redis.Get(ctx, s.redis.CartKey(sessionID))
	if err != nil {
		if redisclient.IsNil(err) {
			return Cart{}, nil
		}
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Cart{}, nil
	}
	return c, nil
}

// Save persists c, deleting the key when the cart is empty.
func (s *Store) Save(ctx context.Context, sessionID string, c Cart) error {
	if c.IsEmpty() {
		return s.Clear(ctx, sessionID)
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.redis.Set(ctx, s.redis.CartKey(sessionID), payload, s.ttl); err != nil {
		return fmt.Errorf("store cart: %w", err)
	}
	return nil
}

// Clear removes the session cart.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.redis.CartKey(sessionID)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
