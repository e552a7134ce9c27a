// Package cache stores computed query results in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "realty:query:"     // result keys: realty:query:{gen}:{sha256(key)}
	genKey     = "realty:query:gen"  // bumped on every invalidation
	DefaultTTL = 5 * time.Minute
)

// Options configures the Redis connection.
type Options struct {
	Addr        string
	Password    string
	DB          int
	TTL         time.Duration
	PingTimeout time.Duration
}

// Redis is a result cache. Invalidation bumps a generation counter that is
// part of every key, so stale entries become unreachable and expire by TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an existing client.
func New(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Dial connects to Redis and verifies the connection.
func Dial(ctx context.Context, opt Options) (*Redis, error) {
	if opt.Addr == "" {
		return nil, fmt.Errorf("redis address is not set")
	}
	if opt.PingTimeout == 0 {
		opt.PingTimeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, opt.PingTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return New(client, opt.TTL), nil
}

// Close releases the connection pool.
func (c *Redis) Close() error {
	return c.client.Close()
}

// Generation returns the current cache generation.
func (c *Redis) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, genKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("reading cache generation: %w", err)
	}
	return gen, nil
}

func key(gen int64, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s%d:%s", keyPrefix, gen, hex.EncodeToString(sum[:]))
}

// Get decodes the value stored under key into dst. It also returns the
// generation it looked in, which Set expects back.
func (c *Redis) Get(ctx context.Context, k string, dst interface{}) (int64, bool, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		return 0, false, err
	}

	data, err := c.client.Get(ctx, key(gen, k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return gen, false, nil
	}
	if err != nil {
		return gen, false, fmt.Errorf("reading cached result: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return gen, false, fmt.Errorf("decoding cached result: %w", err)
	}
	return gen, true, nil
}

// Set stores v under key in generation gen for the configured TTL. A value
// computed before an invalidation lands in a dead generation and is never
// read.
func (c *Redis) Set(ctx context.Context, k string, gen int64, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if err := c.client.Set(ctx, key(gen, k), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing cached result: %w", err)
	}
	return nil
}

// Invalidate makes every stored result unreachable.
func (c *Redis) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, genKey).Err(); err != nil {
		return fmt.Errorf("bumping cache generation: %w", err)
	}
	return nil
}
