package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/service"
	"lp_builder_v1_202601/pkg/utils"
)

// ==================== Context Keys ====================

const (
	ContextKeyStore      = "store_context"
	ContextKeyShopDomain = "shop_domain"
)

// ==================== 店铺上下文解析 ====================

// StoreResolver 店铺上下文解析中间件
// 从请求中提取店铺标识（shop 域名或 store_id），查询活跃店铺后注入 Context。
// 解析失败不拦截请求，由后续授权环节对空上下文做判定。
func StoreResolver(storeSvc *service.StoreService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 会话中间件可能已经写入了域名（嵌入式后台）
		domain := c.GetString(ContextKeyShopDomain)
		if domain == "" {
			// App Proxy 请求由 Shopify 附带 shop 参数
			domain = c.Query("shop")
		}

		var storeID int64
		if raw := c.Query("store_id"); raw != "" {
			storeID, _ = strconv.ParseInt(raw, 10, 64)
		}

		if domain == "" && storeID == 0 {
			c.Next()
			return
		}

		storeCtx := storeSvc.Resolve(c.Request.Context(), domain, storeID)
		if storeCtx != nil {
			c.Set(ContextKeyStore, storeCtx)
		}

		c.Next()
	}
}

// ==================== 辅助函数 ====================

// GetStoreContext 从 Context 获取店铺上下文，未解析返回 nil
func GetStoreContext(c *gin.Context) *model.StoreContext {
	if v, exists := c.Get(ContextKeyStore); exists {
		if sc, ok := v.(*model.StoreContext); ok {
			return sc
		}
	}
	return nil
}

// BuildMeta 从请求构造审计元信息
func BuildMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		Endpoint:  c.FullPath(),
		Method:    c.Request.Method,
		OriginIP:  utils.NormalizeOrigin(c.ClientIP()),
		UserAgent: c.Request.UserAgent(),
	}
}
