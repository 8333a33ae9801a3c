package lookup

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheSize bounds each memo when no size is configured.
const DefaultCacheSize = 4096

// CacheObserver is told about every memo hit and miss.
type CacheObserver interface {
	ObserveLookup(kind string, hit bool)
}

// Memo caches resolved values by key in a bounded LRU. Concurrent misses for
// the same key share one load. Failed loads are not cached.
type Memo[V any] struct {
	kind     string
	cache    *lru.Cache[string, V]
	group    singleflight.Group
	observer CacheObserver
}

func NewMemo[V any](kind string, size int, observer CacheObserver) (*Memo[V], error) {
	if size < 1 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, V](size)
	if err != nil {
		return nil, err
	}
	return &Memo[V]{kind: kind, cache: cache, observer: observer}, nil
}

// Get returns the cached value for key or loads it.
func (m *Memo[V]) Get(ctx context.Context, key string, load func(context.Context, string) (V, error)) (V, error) {
	if v, ok := m.cache.Get(key); ok {
		m.observe(true)
		return v, nil
	}
	m.observe(false)

	res, err, _ := m.group.Do(key, func() (any, error) {
		if v, ok := m.cache.Get(key); ok {
			return v, nil
		}
		v, err := load(ctx, key)
		if err != nil {
			return v, err
		}
		// a racing load of the same key may have stored first; keep that value
		if ok, _ := m.cache.ContainsOrAdd(key, v); ok {
			if existing, found := m.cache.Peek(key); found {
				return existing, nil
			}
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (m *Memo[V]) Len() int {
	return m.cache.Len()
}

// Purge drops every cached value.
func (m *Memo[V]) Purge() {
	m.cache.Purge()
}

func (m *Memo[V]) observe(hit bool) {
	if m.observer != nil {
		m.observer.ObserveLookup(m.kind, hit)
	}
}
