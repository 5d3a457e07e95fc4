package ratelimit

import (
	"context"
	"sync"
	"time"
)

// ==================== 计数器接口 ====================

// CounterStore 固定窗口计数器存储
// 设计成可注入的接口：单机部署用内存实现，多进程部署可换 Redis 实现，
// 调用方无需改动
type CounterStore interface {
	// Incr 对 key 在当前窗口内计数 +1，返回窗口内累计次数和窗口重置时间
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// ==================== 内存实现 ====================

// windowEntry 单个 key 的窗口状态
type windowEntry struct {
	count   int64
	resetAt time.Time
}

// MemoryCounter 进程内固定窗口计数器
// 只保证单进程语义，跨进程限流请使用 RedisCounter
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

// NewMemoryCounter 创建内存计数器
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		entries: make(map[string]*windowEntry),
	}
}

// Incr 累加计数，窗口过期后自动重置
func (m *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	entry, ok := m.entries[key]
	if !ok || now.After(entry.resetAt) {
		entry = &windowEntry{resetAt: now.Add(window)}
		m.entries[key] = entry
	}

	entry.count++
	return entry.count, entry.resetAt, nil
}

// Sweep 清除已过期的窗口条目，由定时任务周期调用防止 map 无限增长
func (m *MemoryCounter) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range m.entries {
		if now.After(entry.resetAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len 当前跟踪的 key 数量（监控用）
func (m *MemoryCounter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
