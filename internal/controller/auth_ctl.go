package controller

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lp_builder_v1_202601/internal/service"
	"lp_builder_v1_202601/pkg/config"
	"lp_builder_v1_202601/pkg/logger"
	"lp_builder_v1_202601/pkg/shopify"
	"lp_builder_v1_202601/pkg/utils"
)

// ==================== 控制器 ====================

// shopDomainPattern 合法的 myshopify 域名
var shopDomainPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*\.myshopify\.com$`)

// AuthController OAuth 安装流程控制器
type AuthController struct {
	cfg           *config.Config
	storeService  *service.StoreService
	shopifyClient *shopify.Client
}

func NewAuthController(cfg *config.Config, storeService *service.StoreService, shopifyClient *shopify.Client) *AuthController {
	return &AuthController{
		cfg:           cfg,
		storeService:  storeService,
		shopifyClient: shopifyClient,
	}
}

// ==================== API 方法 ====================

// Install 发起安装授权
// @Summary 重定向到 Shopify 授权页
// @Tags Auth
// @Param shop query string true "店铺域名"
// @Success 302
// @Router /auth/install [get]
func (ctrl *AuthController) Install(c *gin.Context) {
	shop := c.Query("shop")
	if !shopDomainPattern.MatchString(shop) {
		badRequest(c, "无效的店铺域名")
		return
	}

	// state 防 CSRF，10 分钟内回调有效
	state, err := utils.GenerateRandomString(32)
	if err != nil {
		fail(c, err)
		return
	}
	utils.SetCache("oauth_state:"+state, shop, 10*time.Minute)

	authURL := fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s/auth/callback&state=%s",
		shop, ctrl.cfg.ShopifyAPIKey, ctrl.cfg.ShopifyScopes, ctrl.cfg.AppURL, state,
	)
	c.Redirect(http.StatusFound, authURL)
}

// Callback 授权回调
// @Summary 处理 Shopify 授权回调，换取 token 并落库
// @Tags Auth
// @Param shop query string true "店铺域名"
// @Param code query string true "授权码"
// @Param state query string true "安装时下发的 state"
// @Success 200 {object} map[string]interface{}
// @Router /auth/callback [get]
func (ctrl *AuthController) Callback(c *gin.Context) {
	shop := c.Query("shop")
	code := c.Query("code")
	state := c.Query("state")

	if !shopDomainPattern.MatchString(shop) || code == "" {
		badRequest(c, "回调参数不完整")
		return
	}

	// 回调自带 hmac 签名，伪造的回调直接拒绝
	if !shopify.VerifyCallbackHMAC(c.Request.URL.Query(), ctrl.cfg.ShopifyAPISecret) {
		c.JSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": "签名校验失败",
		})
		return
	}

	cachedShop, exists := utils.GetCache("oauth_state:" + state)
	if !exists || cachedShop != shop {
		c.JSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": "state 校验失败",
		})
		return
	}
	utils.DeleteCache("oauth_state:" + state)

	ctx := c.Request.Context()
	token, err := ctrl.shopifyClient.ExchangeToken(ctx, shop, code)
	if err != nil {
		logger.L().Error("token 交换失败", zap.String("shop", shop), zap.Error(err))
		fail(c, err)
		return
	}

	store, err := ctrl.storeService.Install(ctx, shop, token.AccessToken, token.Scope)
	if err != nil {
		fail(c, err)
		return
	}

	// Webhook 注册失败不阻断安装，内部有告警日志
	ctrl.storeService.RegisterLifecycleWebhooks(ctx, store, ctrl.cfg.AppURL)

	// 安装完成后跳回 Shopify 后台的应用页
	c.Redirect(http.StatusFound, fmt.Sprintf("https://%s/admin/apps/%s", shop, ctrl.cfg.ShopifyAPIKey))
}
