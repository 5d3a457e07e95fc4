package controller

import (
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"lp_builder_v1_202601/internal/middleware"
	"lp_builder_v1_202601/internal/service"
)

// ==================== 控制器 ====================

// ABTestController A/B 测试控制器（商家端）
type ABTestController struct {
	abtestService *service.ABTestService
}

func NewABTestController(abtestService *service.ABTestService) *ABTestController {
	return &ABTestController{abtestService: abtestService}
}

// ==================== 请求定义 ====================

// VariantRequest 变体定义
type VariantRequest struct {
	Name   string         `json:"name" binding:"required"`
	Blocks datatypes.JSON `json:"blocks"`
	Weight int            `json:"weight"`
}

// CreateABTestRequest 创建测试请求
type CreateABTestRequest struct {
	PageID   int64            `json:"page_id" binding:"required"`
	Name     string           `json:"name" binding:"required"`
	Variants []VariantRequest `json:"variants" binding:"required"`
}

// UpdateStatusRequest 状态变更请求
type UpdateStatusRequest struct {
	Status int `json:"status"`
}

// ==================== API 方法 ====================

// CreateTest 创建测试
// @Summary 创建 A/B 测试
// @Tags ABTest
// @Accept json
// @Param body body CreateABTestRequest true "测试定义"
// @Success 201 {object} map[string]interface{}
// @Router /api/abtests [post]
func (ctrl *ABTestController) CreateTest(c *gin.Context) {
	var req CreateABTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	variants := make([]service.VariantInput, 0, len(req.Variants))
	for _, v := range req.Variants {
		variants = append(variants, service.VariantInput{
			Name:   v.Name,
			Blocks: v.Blocks,
			Weight: v.Weight,
		})
	}

	test, err := ctrl.abtestService.CreateTest(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), req.PageID, req.Name, variants)
	if err != nil {
		fail(c, err)
		return
	}

	created(c, test)
}

// GetTest 测试详情
// @Summary 获取 A/B 测试详情
// @Tags ABTest
// @Param id path int true "测试ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/abtests/{id} [get]
func (ctrl *ABTestController) GetTest(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的测试ID")
		return
	}

	test, err := ctrl.abtestService.GetTest(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, test)
}

// ListTests 测试列表
// @Summary A/B 测试列表
// @Tags ABTest
// @Success 200 {object} map[string]interface{}
// @Router /api/abtests [get]
func (ctrl *ABTestController) ListTests(c *gin.Context) {
	tests, err := ctrl.abtestService.ListTests(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c))
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, tests)
}

// UpdateStatus 启停测试
// @Summary 变更 A/B 测试状态
// @Tags ABTest
// @Param id path int true "测试ID"
// @Param body body UpdateStatusRequest true "目标状态"
// @Success 200 {object} map[string]interface{}
// @Router /api/abtests/{id}/status [post]
func (ctrl *ABTestController) UpdateStatus(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的测试ID")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := ctrl.abtestService.UpdateStatus(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), id, req.Status); err != nil {
		fail(c, err)
		return
	}

	ok(c, nil)
}

// DeleteTest 删除测试
// @Summary 删除 A/B 测试
// @Tags ABTest
// @Param id path int true "测试ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/abtests/{id} [delete]
func (ctrl *ABTestController) DeleteTest(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的测试ID")
		return
	}

	if err := ctrl.abtestService.DeleteTest(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), id); err != nil {
		fail(c, err)
		return
	}

	ok(c, nil)
}
