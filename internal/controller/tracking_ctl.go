package controller

import (
	"github.com/gin-gonic/gin"

	"lp_builder_v1_202601/internal/middleware"
	"lp_builder_v1_202601/internal/service"
)

// ==================== 控制器 ====================

// TrackingController 来电追踪号码控制器
type TrackingController struct {
	trackingService *service.TrackingService
}

func NewTrackingController(trackingService *service.TrackingService) *TrackingController {
	return &TrackingController{trackingService: trackingService}
}

// ==================== 请求定义 ====================

// CreateTrackingRequest 登记追踪号码请求
type CreateTrackingRequest struct {
	PageID      int64  `json:"page_id"`
	PhoneNumber string `json:"phone_number" binding:"required"`
	ForwardTo   string `json:"forward_to" binding:"required"`
	Label       string `json:"label"`
	Provider    string `json:"provider"`
}

// ==================== API 方法 ====================

// CreateNumber 登记号码
// @Summary 登记来电追踪号码
// @Tags Tracking
// @Accept json
// @Param body body CreateTrackingRequest true "号码信息"
// @Success 201 {object} map[string]interface{}
// @Router /api/tracking-numbers [post]
func (ctrl *TrackingController) CreateNumber(c *gin.Context) {
	var req CreateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	number, err := ctrl.trackingService.CreateNumber(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), service.CreateTrackingInput{
		PageID:      req.PageID,
		PhoneNumber: req.PhoneNumber,
		ForwardTo:   req.ForwardTo,
		Label:       req.Label,
		Provider:    req.Provider,
	})
	if err != nil {
		fail(c, err)
		return
	}

	created(c, number)
}

// GetNumber 号码详情
// @Summary 获取追踪号码详情（号码已解密）
// @Tags Tracking
// @Param id path int true "号码ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/tracking-numbers/{id} [get]
func (ctrl *TrackingController) GetNumber(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的号码ID")
		return
	}

	number, err := ctrl.trackingService.GetNumber(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, number)
}

// ListNumbers 号码列表
// @Summary 追踪号码列表
// @Tags Tracking
// @Success 200 {object} map[string]interface{}
// @Router /api/tracking-numbers [get]
func (ctrl *TrackingController) ListNumbers(c *gin.Context) {
	numbers, err := ctrl.trackingService.ListNumbers(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c))
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, numbers)
}

// DeleteNumber 删除号码
// @Summary 删除追踪号码
// @Tags Tracking
// @Param id path int true "号码ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/tracking-numbers/{id} [delete]
func (ctrl *TrackingController) DeleteNumber(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的号码ID")
		return
	}

	if err := ctrl.trackingService.DeleteNumber(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), id); err != nil {
		fail(c, err)
		return
	}

	ok(c, nil)
}
