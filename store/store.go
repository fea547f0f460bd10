// Package store provides a small TTL cache used for OpenProject
// catalog lookups (types, statuses, priorities, activities) that
// change rarely but are consulted on most tool calls.
package store

type Cache interface {
	// Get returns the cached value for key, or false when the key is
	// absent or its entry has expired.
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	Reset()
}

// GetOrFetch returns the cached value for key, fetching and caching a
// fresh one on miss or on a cached value of an unexpected type.
func GetOrFetch[T any](c Cache, key string, fetch func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	fresh, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, fresh)
	return fresh, nil
}
