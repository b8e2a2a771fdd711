package cache

import (
	"sync"
	"time"
)

// MockCache is a simple in-memory cache for testing that implements the Cache interface.
// It ignores TTLs.
type MockCache struct {
	mu   sync.Mutex
	data map[string]Item
}

// NewMockCache creates a new mock cache for testing.
func NewMockCache() *MockCache {
	return &MockCache{
		data: make(map[string]Item),
	}
}

func (m *MockCache) Get(key string) (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, found := m.data[key]
	return val, found
}

func (m *MockCache) Set(key string, body []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = Item{Body: body, StoredAt: time.Now()}
}

func (m *MockCache) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *MockCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]Item)
}

func (m *MockCache) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	var size int64
	for _, it := range m.data {
		size += int64(len(it.Body))
	}
	return Stats{
		Items: int64(len(m.data)),
		Size:  size,
	}
}
