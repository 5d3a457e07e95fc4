package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lp_builder_v1_202601/internal/middleware"
	"lp_builder_v1_202601/internal/service"
)

// ==================== 控制器 ====================

// StoreController 店铺信息控制器
type StoreController struct {
	storeService *service.StoreService
}

func NewStoreController(storeService *service.StoreService) *StoreController {
	return &StoreController{storeService: storeService}
}

// ==================== API 方法 ====================

// GetCurrent 当前店铺信息
// @Summary 获取当前会话对应的店铺信息
// @Tags Store
// @Success 200 {object} map[string]interface{}
// @Router /api/store [get]
func (ctrl *StoreController) GetCurrent(c *gin.Context) {
	storeCtx := middleware.GetStoreContext(c)
	if storeCtx == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "需要店铺身份",
		})
		return
	}

	store, err := ctrl.storeService.GetStore(c.Request.Context(), storeCtx.StoreID)
	if err != nil {
		fail(c, err)
		return
	}

	// access token 永不出站
	store.AccessToken = ""
	ok(c, store)
}
