package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lp_builder_v1_202601/internal/controller"
	"lp_builder_v1_202601/internal/middleware"
	"lp_builder_v1_202601/internal/service"
	"lp_builder_v1_202601/pkg/config"
	"lp_builder_v1_202601/pkg/ratelimit"
)

// Controllers 控制器集合
type Controllers struct {
	Auth       *controller.AuthController
	Store      *controller.StoreController
	Page       *controller.PageController
	Submission *controller.SubmissionController
	Analytics  *controller.AnalyticsController
	ABTest     *controller.ABTestController
	Tracking   *controller.TrackingController
	Asset      *controller.AssetController
	Proxy      *controller.ProxyController
	Webhook    *controller.WebhookController
}

// InitRoutes 注册所有路由
//
// 四个入口边界，各自的中间件链不同：
//   - /proxy    店面流量：签名校验 → 店铺解析 → 通用限流
//   - /api      商家后台：Session Token 认证 → 店铺解析 → 通用限流
//   - /auth     安装流程：严格限流（无认证前置）
//   - /webhooks 平台回调：控制器内做 body HMAC 校验
func InitRoutes(
	r *gin.Engine,
	cfg *config.Config,
	ctrls *Controllers,
	storeSvc *service.StoreService,
	auditSvc *service.AuditService,
	counter ratelimit.CounterStore,
) {
	// 健康检查不经过任何边界中间件
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	generalLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Limit:  cfg.RateLimitGeneral,
		Window: cfg.RateLimitWindow(),
		Tier:   "general",
	}, counter, auditSvc)

	strictLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Limit:  cfg.RateLimitStrict,
		Window: cfg.RateLimitWindow(),
		Tier:   "strict",
	}, counter, auditSvc)

	resolver := middleware.StoreResolver(storeSvc)

	// 1. 店面代理路由组
	proxy := r.Group("/proxy",
		middleware.ProxySignature(middleware.ProxyVerifyConfig{
			Secret:     cfg.ShopifyAPISecret,
			Production: cfg.IsProduction(),
		}, auditSvc),
		resolver,
		generalLimit,
	)
	{
		proxy.GET("/pages/:slug", ctrls.Proxy.RenderPage)
		proxy.POST("/submissions", ctrls.Proxy.SubmitForm)
		proxy.POST("/events", ctrls.Proxy.TrackEvent)
		proxy.GET("/abtests/:id/variant", ctrls.Proxy.PickVariant)
		proxy.POST("/abtests/variants/:id/conversion", ctrls.Proxy.RecordConversion)
	}

	// 2. 商家后台 API 路由组
	api := r.Group("/api",
		middleware.SessionAuth(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret),
		resolver,
		generalLimit,
	)
	{
		api.GET("/store", ctrls.Store.GetCurrent)

		pages := api.Group("/pages")
		{
			pages.POST("", ctrls.Page.CreatePage)
			pages.GET("", ctrls.Page.ListPages)
			pages.GET("/:id", ctrls.Page.GetPage)
			pages.PUT("/:id", ctrls.Page.UpdatePage)
			pages.POST("/:id/publish", ctrls.Page.PublishPage)
			pages.DELETE("/:id", ctrls.Page.DeletePage)
		}

		submissions := api.Group("/submissions")
		{
			submissions.GET("", ctrls.Submission.ListSubmissions)
			submissions.GET("/:id", ctrls.Submission.GetSubmission)
			submissions.DELETE("/:id", ctrls.Submission.DeleteSubmission)
		}

		analytics := api.Group("/analytics")
		{
			analytics.GET("/events", ctrls.Analytics.ListEvents)
			analytics.GET("/count", ctrls.Analytics.CountByType)
		}

		abtests := api.Group("/abtests")
		{
			abtests.POST("", ctrls.ABTest.CreateTest)
			abtests.GET("", ctrls.ABTest.ListTests)
			abtests.GET("/:id", ctrls.ABTest.GetTest)
			abtests.POST("/:id/status", ctrls.ABTest.UpdateStatus)
			abtests.DELETE("/:id", ctrls.ABTest.DeleteTest)
		}

		tracking := api.Group("/tracking-numbers")
		{
			tracking.POST("", ctrls.Tracking.CreateNumber)
			tracking.GET("", ctrls.Tracking.ListNumbers)
			tracking.GET("/:id", ctrls.Tracking.GetNumber)
			tracking.DELETE("/:id", ctrls.Tracking.DeleteNumber)
		}

		api.POST("/assets", ctrls.Asset.Upload)
	}

	// 3. 安装授权路由组：未认证入口，限流收紧
	auth := r.Group("/auth", strictLimit)
	{
		auth.GET("/install", ctrls.Auth.Install)
		auth.GET("/callback", ctrls.Auth.Callback)
	}

	// 4. Webhook 路由组：签名在控制器内对原始 body 校验
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/app-uninstalled", ctrls.Webhook.AppUninstalled)
		webhooks.POST("/customers-redact", ctrls.Webhook.CustomersRedact)
		webhooks.POST("/shop-redact", ctrls.Webhook.ShopRedact)
	}
}
