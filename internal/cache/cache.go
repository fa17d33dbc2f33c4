package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Store is a keyed cache with per-store expiration. Misses and backend
// failures both report ok=false; callers treat the cache as best effort.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V) error
}

// Memory is a bounded, TTL-expiring LRU safe for concurrent use.
// Expired entries are never returned, and the entry count never exceeds size.
type Memory[V any] struct {
	lru *expirable.LRU[string, V]
}

func NewMemory[V any](size int, ttl time.Duration) *Memory[V] {
	return &Memory[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	return m.lru.Get(key)
}

func (m *Memory[V]) Set(_ context.Context, key string, value V) error {
	m.lru.Add(key, value)
	return nil
}

func (m *Memory[V]) Contains(key string) bool {
	return m.lru.Contains(key)
}

func (m *Memory[V]) Len() int {
	return m.lru.Len()
}
