// Package cache provides the response cache and rate limit counters.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Client defines the cache interface.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Incr increments the counter at key and returns the new value. The
	// window starts on the first increment and the key expires after it.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Close() error
}

// GetJSON decodes the cached value at key into dst.
func GetJSON(ctx context.Context, c Client, key string, dst interface{}) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, c Client, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

// Key joins key components with colons.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// BarcodeKey is the cache key for a product lookup.
func BarcodeKey(barcode string) string {
	return Key("barcode", barcode)
}

// RateLimitKey is the counter key for a client within a window.
func RateLimitKey(client string, window time.Time) string {
	return Key("ratelimit", client, window.UTC().Format("200601021504"))
}
