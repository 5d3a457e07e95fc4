package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/service"
	"lp_builder_v1_202601/pkg/ratelimit"
	"lp_builder_v1_202601/pkg/utils"
)

// ==================== 请求限流 ====================

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Limit  int           // 窗口内最大请求数
	Window time.Duration // 固定窗口时长
	Tier   string        // 档位名，写入审计详情
}

// RateLimit 固定窗口限流中间件
// 已解析出店铺上下文的请求按店铺计数，其余按归一化来源 IP 计数。
// IPv6 归一化到 /64 前缀，避免单机轮换接口标识绕过限流。
func RateLimit(cfg RateLimitConfig, store ratelimit.CounterStore, audit *service.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateLimitKey(c)

		count, resetAt, err := store.Incr(c.Request.Context(), cfg.Tier+":"+key, cfg.Window)
		if err != nil {
			// 计数失败放行，限流是保护机制不是功能语义
			c.Next()
			return
		}

		if count > int64(cfg.Limit) {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}

			var storeID *int64
			if sc := GetStoreContext(c); sc != nil {
				storeID = &sc.StoreID
			}
			audit.Record(model.AuditKindRateLimited, BuildMeta(c), storeID, nil, map[string]interface{}{
				"key":    key,
				"tier":   cfg.Tier,
				"limit":  cfg.Limit,
				"window": cfg.Window.String(),
			})

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": "请求过于频繁，请稍后重试",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// rateLimitKey 生成限流键：优先店铺维度，退化为来源 IP 维度
func rateLimitKey(c *gin.Context) string {
	if sc := GetStoreContext(c); sc != nil {
		return fmt.Sprintf("store:%d", sc.StoreID)
	}
	return "ip:" + utils.NormalizeOrigin(c.ClientIP())
}
