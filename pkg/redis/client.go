// Package redis holds the go-redis client behind the idempotency middleware,
// the maintenance worker's lease and the readiness probe.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

const (
	keyNamespace      = "vh"
	idempotencyPrefix = "idempotency"
	lockPrefix        = "lock"
)

var errNotInitialized = errors.New("redis client not initialized")

// delIfEquals removes KEYS[1] only while it still holds ARGV[1].
var delIfEquals = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type cmdable interface {
	redis.Scripter
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Client struct {
	cmd   cmdable
	close func() error
}

// IdempotencyStore is what the idempotency middleware needs from redis.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

var _ IdempotencyStore = (*Client)(nil)

// New dials redis from config and fails unless the server answers PING.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"redis_addr": opts.Addr, "redis_db": opts.DB}), "redis.connected")
	}
	return NewFromClient(raw), nil
}

// NewFromClient wraps an existing go-redis client; tests pass one pointed at
// miniredis.
func NewFromClient(raw *redis.Client) *Client {
	return &Client{cmd: raw, close: raw.Close}
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, errors.New("redis url or address is required")
	}

	// URL values win; config only fills what the URL left unset.
	fill := func(dst *int, v int) {
		if *dst == 0 {
			*dst = v
		}
	}
	fillDur := func(dst *time.Duration, v time.Duration) {
		if *dst == 0 {
			*dst = v
		}
	}
	fill(&opts.DB, cfg.DB)
	fill(&opts.PoolSize, cfg.PoolSize)
	fill(&opts.MinIdleConns, cfg.MinIdleConns)
	fillDur(&opts.DialTimeout, cfg.DialTimeout)
	fillDur(&opts.ReadTimeout, cfg.ReadTimeout)
	fillDur(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

// Get returns the value at key; a missing key yields redis.Nil.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.cmd == nil {
		return "", errNotInitialized
	}
	return c.cmd.Get(ctx, key).Result()
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.cmd == nil {
		return errNotInitialized
	}
	return c.cmd.Set(ctx, key, value, ttl).Err()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.cmd == nil {
		return false, errNotInitialized
	}
	return c.cmd.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.cmd == nil {
		return errNotInitialized
	}
	return c.cmd.Del(ctx, keys...).Err()
}

// DelIfEquals atomically deletes key when it still holds value and reports
// whether it did.
func (c *Client) DelIfEquals(ctx context.Context, key, value string) (bool, error) {
	if c.cmd == nil {
		return false, errNotInitialized
	}
	n, err := delIfEquals.Run(ctx, c.cmd, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(idempotencyPrefix, scope, id)
}

// LockKey names a lease shared by every instance of a worker in one env.
func (c *Client) LockKey(worker, env string) string {
	return buildKey(lockPrefix, worker, env)
}

func (c *Client) Ping(ctx context.Context) error {
	if c.cmd == nil {
		return errNotInitialized
	}
	return c.cmd.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

func buildKey(parts ...string) string {
	clean := make([]string, 0, len(parts)+1)
	clean = append(clean, keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
