package cache

import (
	"context"
	"time"
)

// NullCache discards every entry, so each pipeline stage recomputes on
// every call. The CLI falls back to it for --no-cache and when the cache
// directory cannot be created.
type NullCache struct{}

// NewNullCache creates a cache that never stores anything.
func NewNullCache() Cache {
	return NullCache{}
}

// Get reports a miss for every key.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the entry.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

// Delete does nothing.
func (NullCache) Delete(context.Context, string) error {
	return nil
}

// Close does nothing.
func (NullCache) Close() error {
	return nil
}

var _ Cache = NullCache{}
