// Package cache stores placement results and rendered artifacts by key.
//
// Placement is deterministic for a given design, option set and seed, so
// a result can be reused whenever the same inputs come back. Keys are
// built by a [Keyer] from content hashes; values are opaque bytes.
//
// Three backends are provided:
//
//   - [FileCache] for the CLI, one file per entry under a directory
//   - [RedisCache] for the API server, shared between instances
//   - [NullCache] when caching is disabled
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry. Get reports a miss with
// (nil, false, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default TTLs.
const (
	PlacementTTL = 7 * 24 * time.Hour
	ArtifactTTL  = 24 * time.Hour
)

// NullCache misses on every Get and drops every Set. Runners fall back to
// it when no cache is configured, and --no-cache selects it explicitly.
type NullCache struct{}

var _ Cache = (*NullCache)(nil)

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }
