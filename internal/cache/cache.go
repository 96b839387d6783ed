// Package cache stores short-lived pipeline data such as sentiment results
// and market snapshots pushed by upstream feeds.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a byte-oriented key/value store with capped lists.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Push appends to a list and keeps only the newest limit entries.
	Push(ctx context.Context, key string, value []byte, limit int) error
	// List returns up to n newest list entries, oldest first. n <= 0 returns all.
	List(ctx context.Context, key string, n int) ([][]byte, error)
	Close() error
}

// GetJSON decodes a cached JSON value into dest.
func GetJSON(ctx context.Context, c Cache, key string, dest any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// SetJSON encodes value as JSON and stores it.
func SetJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}

// PushJSON encodes value as JSON and appends it to a capped list.
func PushJSON(ctx context.Context, c Cache, key string, value any, limit int) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Push(ctx, key, data, limit)
}
