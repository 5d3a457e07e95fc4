package controller

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lp_builder_v1_202601/internal/service"
	"lp_builder_v1_202601/pkg/logger"
	"lp_builder_v1_202601/pkg/shopify"
)

// ==================== 控制器 ====================

// WebhookController Shopify Webhook 控制器
// 处理应用生命周期与 GDPR 合规回调，签名不过一律 401
type WebhookController struct {
	apiSecret    string
	storeService *service.StoreService
}

func NewWebhookController(apiSecret string, storeService *service.StoreService) *WebhookController {
	return &WebhookController{
		apiSecret:    apiSecret,
		storeService: storeService,
	}
}

// verifyBody 读取原始 body 并校验 HMAC 头，失败时已写出响应
func (ctrl *WebhookController) verifyBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "读取请求体失败"})
		return nil, false
	}

	if !shopify.VerifyWebhookHMAC(body, ctrl.apiSecret, c.GetHeader("X-Shopify-Hmac-Sha256")) {
		logger.L().Warn("webhook 签名校验失败",
			zap.String("topic", c.GetHeader("X-Shopify-Topic")),
			zap.String("shop", c.GetHeader("X-Shopify-Shop-Domain")))
		c.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "签名校验失败"})
		return nil, false
	}

	return body, true
}

// ==================== API 方法 ====================

// AppUninstalled 应用卸载回调
// @Summary 卸载回调，店铺标记为已卸载并吊销 token
// @Tags Webhook
// @Success 200 {object} map[string]interface{}
// @Router /webhooks/app-uninstalled [post]
func (ctrl *WebhookController) AppUninstalled(c *gin.Context) {
	if _, valid := ctrl.verifyBody(c); !valid {
		return
	}

	domain := c.GetHeader("X-Shopify-Shop-Domain")
	if domain == "" {
		badRequest(c, "缺少店铺域名头")
		return
	}

	if err := ctrl.storeService.Uninstall(c.Request.Context(), domain); err != nil {
		// Webhook 失败 Shopify 会重试，这里只记日志并回 500
		logger.L().Error("处理卸载回调失败", zap.String("shop", domain), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "处理失败"})
		return
	}

	ok(c, nil)
}

// CustomersRedact 客户数据删除回调（GDPR）
// @Summary 按要求删除指定客户的 PII
// @Tags Webhook
// @Success 200 {object} map[string]interface{}
// @Router /webhooks/customers-redact [post]
func (ctrl *WebhookController) CustomersRedact(c *gin.Context) {
	body, valid := ctrl.verifyBody(c)
	if !valid {
		return
	}

	var payload struct {
		ShopDomain string `json:"shop_domain"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.ShopDomain == "" {
		badRequest(c, "回调内容不完整")
		return
	}

	// 客户级定位信息（email）本身是密文，无法按客户筛选，
	// 按店铺整体脱敏是更保守的合规处理
	if err := ctrl.storeService.RedactStore(c.Request.Context(), payload.ShopDomain); err != nil {
		logger.L().Error("客户数据删除失败", zap.String("shop", payload.ShopDomain), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "处理失败"})
		return
	}

	ok(c, nil)
}

// ShopRedact 店铺数据删除回调（GDPR，卸载 48 小时后触发）
// @Summary 删除店铺的全部 PII
// @Tags Webhook
// @Success 200 {object} map[string]interface{}
// @Router /webhooks/shop-redact [post]
func (ctrl *WebhookController) ShopRedact(c *gin.Context) {
	body, valid := ctrl.verifyBody(c)
	if !valid {
		return
	}

	var payload struct {
		ShopDomain string `json:"shop_domain"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.ShopDomain == "" {
		badRequest(c, "回调内容不完整")
		return
	}

	if err := ctrl.storeService.RedactStore(c.Request.Context(), payload.ShopDomain); err != nil {
		logger.L().Error("店铺数据删除失败", zap.String("shop", payload.ShopDomain), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "处理失败"})
		return
	}

	ok(c, nil)
}
