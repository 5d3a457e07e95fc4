package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lp_builder_v1_202601/internal/model"
	"lp_builder_v1_202601/internal/service"
	"lp_builder_v1_202601/pkg/logger"
	"lp_builder_v1_202601/pkg/shopify"
)

// ==================== App Proxy 签名校验 ====================

// ProxyVerifyConfig App Proxy 校验配置
type ProxyVerifyConfig struct {
	Secret     string // Shopify 应用共享密钥
	Production bool   // 生产环境密钥缺失直接 500，开发环境放行
}

// ProxySignature App Proxy 签名校验中间件
// Shopify 转发店面请求时会对查询参数做 HMAC 签名，签名不过一律拒绝。
// 校验失败的请求记入审计，便于排查伪造来源。
func ProxySignature(cfg ProxyVerifyConfig, audit *service.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Secret == "" {
			if cfg.Production {
				logger.L().Error("App Proxy 密钥未配置，拒绝请求",
					zap.String("path", c.Request.URL.Path))
				c.JSON(http.StatusInternalServerError, gin.H{
					"code":    500,
					"message": "服务配置错误",
				})
				c.Abort()
				return
			}
			// 开发环境缺密钥只告警，方便本地联调
			logger.L().Warn("App Proxy 密钥未配置，跳过签名校验")
			c.Next()
			return
		}

		if !shopify.VerifySignature(c.Request.URL.Query(), cfg.Secret) {
			audit.Record(model.AuditKindInvalidSignature, BuildMeta(c), nil, nil, map[string]interface{}{
				"shop": c.Query("shop"),
			})
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "签名校验失败",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
