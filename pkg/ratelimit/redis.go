package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ==================== Redis 实现 ====================

// INCR + 首次设置过期，原子执行避免窗口永不过期的竞态
var counterScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisCounter Redis 固定窗口计数器，多进程部署时使用
// Redis 不可用时降级到内存计数器，保证限流中间件永不因 Redis 故障而拒绝请求
type RedisCounter struct {
	client   *redis.Client
	prefix   string
	fallback *MemoryCounter
}

// NewRedisCounter 创建 Redis 计数器
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{
		client:   client,
		prefix:   "rl:",
		fallback: NewMemoryCounter(),
	}
}

// Incr 累加计数
func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	if r.client == nil {
		return r.fallback.Incr(ctx, key, window)
	}

	res, err := counterScript.Run(ctx, r.client, []string{r.prefix + key}, window.Milliseconds()).Result()
	if err != nil {
		// 降级到本地计数，故障时宁可限流精度下降也不放大故障
		return r.fallback.Incr(ctx, key, window)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return 0, time.Time{}, fmt.Errorf("redis 计数脚本返回异常: %v", res)
	}

	count, _ := vals[0].(int64)
	ttlMs, _ := vals[1].(int64)
	if ttlMs < 0 {
		ttlMs = window.Milliseconds()
	}

	return count, time.Now().Add(time.Duration(ttlMs) * time.Millisecond), nil
}
