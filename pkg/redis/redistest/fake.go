// Package redistest provides an in-memory stand-in for the redis commands
// used by the storefront.
package redistest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Fake is a map-backed implementation of redisclient.Cmdable. TTLs are
// recorded but never expire entries.
type Fake struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration

	// Err, when set, is returned from every command.
	Err error
}

var _ redisclient.Cmdable = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

// Client returns a storefront redis client backed by a fresh fake.
func Client() (*redisclient.Client, *Fake) {
	fake := New()
	return redisclient.NewFromCmdable(fake), fake
}

// Value returns the raw stored value and whether the key exists.
func (f *Fake) Value(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

// TTL returns the last TTL recorded for key.
func (f *Fake) TTL(key string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key]
}

func (f *Fake) Ping(context.Context) *redis.StatusCmd {
	if f.Err != nil {
		return redis.NewStatusResult("", f.Err)
	}
	return redis.NewStatusResult("PONG", nil)
}

func (f *Fake) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	if f.Err != nil {
		return redis.NewStatusResult("", f.Err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = stringify(value)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *Fake) Get(_ context.Context, key string) *redis.StringCmd {
	if f.Err != nil {
		return redis.NewStringResult("", f.Err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *Fake) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if f.Err != nil {
		return redis.NewBoolResult(false, f.Err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = stringify(value)
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *Fake) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.Err != nil {
		return redis.NewIntResult(0, f.Err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	if raw, ok := f.data[key]; ok {
		if _, err := fmt.Sscan(raw, &n); err != nil {
			return redis.NewIntResult(0, fmt.Errorf("value is not an integer"))
		}
	}
	n++
	f.data[key] = fmt.Sprint(n)
	return redis.NewIntResult(n, nil)
}

func (f *Fake) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if f.Err != nil {
		return redis.NewBoolResult(false, f.Err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; !ok {
		return redis.NewBoolResult(false, nil)
	}
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *Fake) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.Err != nil {
		return redis.NewIntResult(0, f.Err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			removed++
		}
		delete(f.data, key)
		delete(f.ttls, key)
	}
	return redis.NewIntResult(removed, nil)
}

func stringify(value any) string {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
