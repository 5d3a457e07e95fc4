package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// ==================== 内存计数器 ====================

func TestMemoryCounter_Incr(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		count, _, err := c.Incr(ctx, "store:1", time.Minute)
		if err != nil {
			t.Fatalf("Incr 出错: %v", err)
		}
		if count != i {
			t.Fatalf("count = %d, want %d", count, i)
		}
	}

	// 不同 key 互不影响
	count, _, _ := c.Incr(ctx, "store:2", time.Minute)
	if count != 1 {
		t.Fatalf("新 key 计数应从 1 开始, got %d", count)
	}
}

func TestMemoryCounter_WindowReset(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	c.Incr(ctx, "ip:10.0.0.1", 10*time.Millisecond)
	c.Incr(ctx, "ip:10.0.0.1", 10*time.Millisecond)

	time.Sleep(20 * time.Millisecond)

	count, _, _ := c.Incr(ctx, "ip:10.0.0.1", 10*time.Millisecond)
	if count != 1 {
		t.Fatalf("窗口过期后计数应重置, got %d", count)
	}
}

func TestMemoryCounter_ConcurrentIncr(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Incr(ctx, "store:1", time.Minute)
		}()
	}
	wg.Wait()

	count, _, _ := c.Incr(ctx, "store:1", time.Minute)
	if count != 51 {
		t.Fatalf("并发累加结果 = %d, want 51", count)
	}
}

func TestMemoryCounter_Sweep(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	c.Incr(ctx, "a", 5*time.Millisecond)
	c.Incr(ctx, "b", time.Minute)

	time.Sleep(10 * time.Millisecond)

	removed := c.Sweep()
	if removed != 1 {
		t.Fatalf("应清除 1 个过期条目, got %d", removed)
	}
	if c.Len() != 1 {
		t.Fatalf("剩余条目数 = %d, want 1", c.Len())
	}
}

// ==================== Redis 计数器 ====================

func TestRedisCounter_Incr(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis 启动失败: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisCounter(client)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		count, resetAt, err := c.Incr(ctx, "store:9", time.Minute)
		if err != nil {
			t.Fatalf("Incr 出错: %v", err)
		}
		if count != i {
			t.Fatalf("count = %d, want %d", count, i)
		}
		if resetAt.Before(time.Now()) {
			t.Fatal("resetAt 应在未来")
		}
	}
}

func TestRedisCounter_WindowExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis 启动失败: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisCounter(client)
	ctx := context.Background()

	c.Incr(ctx, "store:9", time.Second)
	c.Incr(ctx, "store:9", time.Second)

	// miniredis 需要手动推进时钟
	mr.FastForward(2 * time.Second)

	count, _, _ := c.Incr(ctx, "store:9", time.Second)
	if count != 1 {
		t.Fatalf("窗口过期后计数应重置, got %d", count)
	}
}

func TestRedisCounter_FallbackWhenUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 5 * time.Millisecond,
		ReadTimeout: 5 * time.Millisecond,
		MaxRetries:  0,
	})
	defer client.Close()

	c := NewRedisCounter(client)
	ctx := context.Background()

	// Redis 连不上时退回内存计数，业务不报错
	count, _, err := c.Incr(ctx, "store:9", time.Minute)
	if err != nil {
		t.Fatalf("降级路径不应报错: %v", err)
	}
	if count != 1 {
		t.Fatalf("降级计数 = %d, want 1", count)
	}
}
