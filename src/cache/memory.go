package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a capacity-bounded in-process cache with per-entry expiry.
type Memory struct {
	mu    sync.Mutex
	items *lru.Cache[string, entry]
	now   func() time.Time
}

func NewMemory(size int) (*Memory, error) {
	return NewMemoryWithClock(size, time.Now)
}

// NewMemoryWithClock is NewMemory with an explicit clock for expiry checks.
func NewMemoryWithClock(size int, now func() time.Time) (*Memory, error) {
	if size <= 0 {
		size = DefaultSize
	}
	items, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Memory{items: items, now: now}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.items.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items.Add(key, entry{value: value, expiresAt: m.now().Add(ttl)})
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	return m.items.Len()
}
