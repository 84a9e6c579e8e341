package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// bypassPrefix marks keys built while Redis was unreachable. FetchJSON never
// reads or writes them, so an unversioned entry cannot outlive a Bump.
const bypassPrefix = "bypass:"

// Versioned is a JSON read-through cache whose keys embed a namespace
// version. Bump invalidates every key in the namespace at once. A nil
// *Versioned, one without a client, or one whose Redis is unreachable calls
// the loader directly.
type Versioned struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	group     singleflight.Group
	logger    *slog.Logger
}

// NewVersioned instantiates a cache for one namespace, e.g. "catalog".
func NewVersioned(client *redis.Client, namespace string, ttl time.Duration) *Versioned {
	return &Versioned{client: client, namespace: namespace, ttl: ttl, logger: slog.Default()}
}

// WithLogger sets the logger used for Redis failures.
func (c *Versioned) WithLogger(logger *slog.Logger) *Versioned {
	if c != nil && logger != nil {
		c.logger = logger
	}
	return c
}

func (c *Versioned) warn(msg string, key string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, slog.String("namespace", c.namespace), slog.String("key", key), slog.Any("error", err))
	}
}

func (c *Versioned) versionKey() string {
	return c.namespace + ":version"
}

// Version returns the current namespace version, initialising when missing.
func (c *Versioned) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, c.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		// SetNX keeps a concurrent Bump from being overwritten.
		if err := c.client.SetNX(ctx, c.versionKey(), 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, c.versionKey()).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version. When the version
// cannot be read the key is marked so FetchJSON skips Redis for it.
func (c *Versioned) BuildKey(ctx context.Context, parts ...string) (string, error) {
	if c == nil {
		return strings.Join(parts, ":"), nil
	}
	joined := c.namespace + ":" + strings.Join(parts, ":")
	if c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		c.warn("cache version unavailable", c.versionKey(), err)
		return bypassPrefix + joined, nil
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchJSON loads a cached value into dest or populates it using the loader.
// Concurrent misses for the same key share one loader call.
func (c *Versioned) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("platform/cache: loader required")
	}
	if c == nil || c.client == nil || strings.HasPrefix(key, bypassPrefix) {
		return load(ctx, loader, dest)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		c.warn("cache get failed", key, err)
		return load(ctx, loader, dest)
	}

	ch := c.group.DoChan(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.warn("cache set failed", key, err)
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

// Bump invalidates the namespace by incrementing its version. Errors are
// returned for the caller to log.
func (c *Versioned) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, c.versionKey()).Err()
}

func load(ctx context.Context, loader func(context.Context) (any, error), dest any) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	return roundTrip(value, dest)
}

func roundTrip(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
