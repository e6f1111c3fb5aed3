package utils

import (
	"sync"
	"time"
)

// cacheEntry 缓存项
type cacheEntry struct {
	value    string
	expireAt time.Time
}

func (e *cacheEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// MemoryCache 进程内缓存，Redis 未启用时的降级方案
type MemoryCache struct {
	items     map[string]*cacheEntry
	mutex     sync.RWMutex
	stopClean chan struct{}
	stopOnce  sync.Once
}

// NewMemoryCache 创建内存缓存，cleanupInterval 大于 0 时后台定期清理过期条目
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	cache := &MemoryCache{
		items:     make(map[string]*cacheEntry),
		stopClean: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go func() {
			ticker := time.NewTicker(cleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					cache.cleanup()
				case <-cache.stopClean:
					return
				}
			}
		}()
	}

	return cache
}

// Set 设置缓存项，ttl 为 0 表示不过期
func (c *MemoryCache) Set(key, value string, ttl time.Duration) {
	entry := &cacheEntry{value: value}
	if ttl > 0 {
		entry.expireAt = time.Now().Add(ttl)
	}

	c.mutex.Lock()
	c.items[key] = entry
	c.mutex.Unlock()
}

// Get 获取缓存项
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mutex.RLock()
	entry, exists := c.items[key]
	c.mutex.RUnlock()

	if !exists || entry.expired(time.Now()) {
		return "", false
	}
	return entry.value, true
}

// Delete 删除缓存项
func (c *MemoryCache) Delete(keys ...string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, key := range keys {
		delete(c.items, key)
	}
}

// cleanup 清理过期条目
func (c *MemoryCache) cleanup() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range c.items {
		if entry.expired(now) {
			delete(c.items, key)
			removed++
		}
	}

	if removed > 0 {
		GetLogger().Debug("清理过期缓存条目", "removed", removed, "remaining", len(c.items))
	}
}

// Stop 停止清理 goroutine，可重复调用
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopClean) })
}

// Size 获取缓存大小（含尚未清理的过期条目）
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}
