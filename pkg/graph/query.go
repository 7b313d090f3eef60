package graph

import (
	"context"
	"strings"
	"sync"
)

// QueryKey identifies a memoized query result
type QueryKey []string

func (k QueryKey) String() string {
	return strings.Join(k, "-")
}

// QueryCache memoizes query results by key until they are invalidated
type QueryCache struct {
	mutex   sync.Mutex
	entries map[string]queryEntry
}

type queryEntry struct {
	key   QueryKey
	value any
}

func NewQueryCache() *QueryCache {
	return &QueryCache{
		entries: make(map[string]queryEntry),
	}
}

// Fetch returns the cached value for key or runs fn and caches its result.
// Failed fetches are not cached.
func (qc *QueryCache) Fetch(ctx context.Context, key QueryKey, fn func(context.Context) (any, error)) (any, error) {
	id := key.String()

	qc.mutex.Lock()
	entry, ok := qc.entries[id]
	qc.mutex.Unlock()
	if ok {
		return entry.value, nil
	}

	value, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	qc.mutex.Lock()
	qc.entries[id] = queryEntry{key: append(QueryKey(nil), key...), value: value}
	qc.mutex.Unlock()

	return value, nil
}

// Has reports whether a result is cached for key
func (qc *QueryCache) Has(key QueryKey) bool {
	qc.mutex.Lock()
	defer qc.mutex.Unlock()

	_, ok := qc.entries[key.String()]
	return ok
}

// InvalidateQueries drops every entry whose key matches predicate and
// returns how many were dropped
func (qc *QueryCache) InvalidateQueries(predicate func(QueryKey) bool) int {
	qc.mutex.Lock()
	defer qc.mutex.Unlock()

	dropped := 0
	for id, entry := range qc.entries {
		if predicate(entry.key) {
			delete(qc.entries, id)
			dropped++
		}
	}
	return dropped
}

// MatchKey builds a predicate matching keys equal to key once joined
func MatchKey(key QueryKey) func(QueryKey) bool {
	want := key.String()
	return func(k QueryKey) bool {
		return k.String() == want
	}
}
