package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

// Memory is a process-local Store. Expired entries are dropped by a
// background sweep; when the store grows past maxEntries the oldest go first.
type Memory struct {
	mu              sync.RWMutex
	entries         map[string]memoryEntry
	maxEntries      int
	cleanupInterval time.Duration
	now             func() time.Time
	done            chan struct{}
	closeOnce       sync.Once
}

func NewMemory(maxEntries int, cleanupInterval time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	m := &Memory{
		entries:         make(map[string]memoryEntry),
		maxEntries:      maxEntries,
		cleanupInterval: cleanupInterval,
		now:             time.Now,
		done:            make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go m.periodicCleanup()
	}
	return m
}

func (m *Memory) periodicCleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.done:
			return
		}
	}
}

// cleanup removes expired entries, then trims the oldest until under the
// size limit.
func (m *Memory) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
}

func (m *Memory) cleanupLocked() {
	now := m.now()
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, key)
		}
	}

	if len(m.entries) <= m.maxEntries {
		return
	}
	type aged struct {
		key      string
		storedAt time.Time
	}
	entries := make([]aged, 0, len(m.entries))
	for key, e := range m.entries {
		entries = append(entries, aged{key, e.storedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].storedAt.Before(entries[j].storedAt)
	})
	for i := 0; i < len(entries)-m.maxEntries; i++ {
		delete(m.entries, entries[i].key)
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.entries[key] = memoryEntry{value: value, storedAt: now, expiresAt: now.Add(ttl)}
	if len(m.entries) > m.maxEntries {
		m.cleanupLocked()
	}
	return nil
}

// Len is the number of stored entries, expired ones included until the next
// sweep.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoryEntry)
}

func (m *Memory) Backend() string { return "memory" }

func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}
