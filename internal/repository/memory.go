package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryCounterCache is the in-process fallback used when Redis is
// unavailable. Entries expire lazily on read.
type MemoryCounterCache struct {
	counters   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemoryCounterCache(ttl time.Duration) *MemoryCounterCache {
	return &MemoryCounterCache{
		ttl: ttl,
	}
}

type counterEntry struct {
	count     int64
	expiresAt time.Time
}

func (r *MemoryCounterCache) GetUnreadCount(ctx context.Context, userID int64) (int64, bool, error) {
	val, ok := r.counters.Load(userID)
	if !ok {
		return 0, false, nil
	}
	entry := val.(*counterEntry)
	if time.Now().After(entry.expiresAt) {
		r.counters.Delete(userID)
		return 0, false, nil
	}
	return entry.count, true, nil
}

func (r *MemoryCounterCache) SetUnreadCount(ctx context.Context, userID int64, count int64) error {
	r.counters.Store(userID, &counterEntry{
		count:     count,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryCounterCache) InvalidateUnreadCount(ctx context.Context, userID int64) error {
	r.counters.Delete(userID)
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryCounterCache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
