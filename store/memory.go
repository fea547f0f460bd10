package store

import (
	"sync"
	"time"
)

type entry struct {
	value   any
	expires time.Time
}

type inMemory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	storage map[string]entry
}

// NewMemoryCache returns a Cache whose entries expire ttl after Set.
func NewMemoryCache(ttl time.Duration) Cache {
	return &inMemory{ttl: ttl, now: time.Now}
}

func (m *inMemory) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.storage == nil {
		return nil, false
	}
	e, ok := m.storage[key]
	if !ok || m.now().After(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (m *inMemory) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage == nil {
		// create on first use
		m.storage = make(map[string]entry)
	}
	m.storage[key] = entry{value: value, expires: m.now().Add(m.ttl)}
}

func (m *inMemory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage != nil {
		delete(m.storage, key)
	}
}

func (m *inMemory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storage = nil
}
