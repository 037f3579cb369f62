package cache

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"
)

// RedigoClient implements RedisClient on top of a redigo connection pool.
type RedigoClient struct {
	pool *redis.Pool
}

// NewRedigoClient creates a pooled Redis client for the given address,
// e.g. "localhost:6379".
func NewRedigoClient(addr string) *RedigoClient {
	return &RedigoClient{
		pool: &redis.Pool{
			MaxIdle:     3,
			IdleTimeout: 240 * time.Second,
			DialContext: func(ctx context.Context) (redis.Conn, error) {
				return redis.DialContext(ctx, "tcp", addr)
			},
			TestOnBorrow: func(c redis.Conn, t time.Time) error {
				if time.Since(t) < time.Minute {
					return nil
				}
				_, err := c.Do("PING")
				return err
			},
		},
	}
}

// Ping verifies the connection is usable.
func (c *RedigoClient) Ping(ctx context.Context) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Do("PING")
	return err
}

// Get fetches a string value. A missing key returns "" with no error.
func (c *RedigoClient) Get(ctx context.Context, key string) (string, error) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	value, err := redis.String(conn.Do("GET", key))
	if err == redis.ErrNil {
		return "", nil
	}
	return value, err
}

// Set stores a value with an expiration.
func (c *RedigoClient) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if expiration > 0 {
		_, err = conn.Do("SET", key, value, "PX", int64(expiration/time.Millisecond))
	} else {
		_, err = conn.Do("SET", key, value)
	}
	return err
}

// Del removes keys.
func (c *RedigoClient) Del(ctx context.Context, keys ...string) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	args := make([]interface{}, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	_, err = conn.Do("DEL", args...)
	return err
}

// Close releases the pool.
func (c *RedigoClient) Close() error {
	return c.pool.Close()
}
