package utils

import (
	"sync"
	"time"
)

// 进程内 TTL 缓存，使用 sync.Map 保证并发安全
// 目前用于 OAuth 安装流程的 state 随机数（防 CSRF，用完即焚）
var memoryCache sync.Map

// cacheItem 内部结构，包含值和过期时间
type cacheItem struct {
	value      string
	expiration int64
}

// SetCache 设置缓存
// key: state 随机数
// value: 店铺域名
// ttl: 过期时间，授权流程通常给 10 分钟足够
func SetCache(key, value string, ttl time.Duration) {
	memoryCache.Store(key, cacheItem{
		value:      value,
		expiration: time.Now().Add(ttl).Unix(),
	})
}

// GetCache 获取缓存并验证是否过期
func GetCache(key string) (string, bool) {
	val, ok := memoryCache.Load(key)
	if !ok {
		return "", false
	}

	item := val.(cacheItem)

	// 检查是否过期
	if time.Now().Unix() > item.expiration {
		memoryCache.Delete(key) // 懒删除
		return "", false
	}

	return item.value, true
}

// DeleteCache 删除缓存 (用完即焚)
func DeleteCache(key string) {
	memoryCache.Delete(key)
}

// SweepCache 清理过期条目，由定时任务周期调用
func SweepCache() int {
	now := time.Now().Unix()
	removed := 0
	memoryCache.Range(func(key, val interface{}) bool {
		if item, ok := val.(cacheItem); ok && now > item.expiration {
			memoryCache.Delete(key)
			removed++
		}
		return true
	})
	return removed
}
