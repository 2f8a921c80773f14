// Package cache keeps model answers keyed by prompt so identical requests
// skip the upstream call.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"crop-advisor/advisory"
)

// Store is a recommendation cache. Get reports a miss with ok=false and a nil
// error; errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (res advisory.Result, ok bool, err error)
	Set(ctx context.Context, key string, res advisory.Result) error
	Purge(ctx context.Context) error
	Stats(ctx context.Context) Stats
}

type Stats struct {
	Backend string        `json:"backend"`
	Entries int64         `json:"entries"`
	Hits    uint64        `json:"hits"`
	Misses  uint64        `json:"misses"`
	TTL     time.Duration `json:"ttl_ns"`
}

type entry struct {
	result    advisory.Result
	expiresAt time.Time
}

// Memory is an in-process Store. Expired entries are invisible to Get and are
// dropped by Sweep.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) (advisory.Result, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expiresAt) {
		m.misses.Add(1)
		return advisory.Result{}, false, nil
	}
	m.hits.Add(1)
	return copyResult(e.result), true, nil
}

func (m *Memory) Set(_ context.Context, key string, res advisory.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{result: copyResult(res), expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Purge(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]entry)
	return nil
}

// Sweep removes expired entries and returns how many were dropped.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

func (m *Memory) Stats(context.Context) Stats {
	m.mu.RLock()
	n := len(m.entries)
	m.mu.RUnlock()

	return Stats{
		Backend: "memory",
		Entries: int64(n),
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		TTL:     m.ttl,
	}
}

func copyResult(res advisory.Result) advisory.Result {
	if res.Crops != nil {
		crops := make([]advisory.Crop, len(res.Crops))
		copy(crops, res.Crops)
		res.Crops = crops
	}
	return res
}
