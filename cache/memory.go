package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is an in-process SessionCache with per-entry expiry.
// It backs tests and local development; production runs Redis.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (m *MemoryCache) Put(_ context.Context, userID string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	m.entries[userID] = memoryEntry{
		data:      copied,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (m *MemoryCache) Get(_ context.Context, userID string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.entries[userID]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, userID)
		m.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return entry.data, nil
}

func (m *MemoryCache) Delete(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.entries[userID]
	delete(m.entries, userID)
	return ok, nil
}

// Size reports live entry count, expired entries included until read.
func (m *MemoryCache) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
