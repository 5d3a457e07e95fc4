package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"lp_builder_v1_202601/internal/middleware"
	"lp_builder_v1_202601/internal/repository"
	"lp_builder_v1_202601/internal/service"
)

// ==================== 控制器 ====================

// PageController 落地页控制器
type PageController struct {
	pageService *service.PageService
}

func NewPageController(pageService *service.PageService) *PageController {
	return &PageController{pageService: pageService}
}

// ==================== 请求定义 ====================

// PageRequest 创建/更新页面请求
type PageRequest struct {
	Title          string         `json:"title" binding:"required"`
	Slug           string         `json:"slug" binding:"required"`
	Blocks         datatypes.JSON `json:"blocks"`
	SEOTitle       string         `json:"seo_title"`
	SEODescription string         `json:"seo_description"`
}

// PublishRequest 发布/下线请求
type PublishRequest struct {
	Publish bool `json:"publish"`
}

// ==================== API 方法 ====================

// CreatePage 创建页面
// @Summary 创建落地页
// @Tags Page
// @Accept json
// @Produce json
// @Param body body PageRequest true "页面内容"
// @Success 201 {object} map[string]interface{}
// @Router /api/pages [post]
func (ctrl *PageController) CreatePage(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	page, err := ctrl.pageService.CreatePage(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), service.CreatePageInput{
		Title:          req.Title,
		Slug:           req.Slug,
		Blocks:         req.Blocks,
		SEOTitle:       req.SEOTitle,
		SEODescription: req.SEODescription,
	})
	if err != nil {
		fail(c, err)
		return
	}

	created(c, page)
}

// GetPage 获取页面详情
// @Summary 获取落地页详情
// @Tags Page
// @Param id path int true "页面ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/pages/{id} [get]
func (ctrl *PageController) GetPage(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的页面ID")
		return
	}

	page, err := ctrl.pageService.GetPage(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, page)
}

// ListPages 页面列表
// @Summary 落地页列表
// @Tags Page
// @Param keyword query string false "标题关键字"
// @Param status query int false "状态筛选"
// @Success 200 {object} map[string]interface{}
// @Router /api/pages [get]
func (ctrl *PageController) ListPages(c *gin.Context) {
	page, pageSize := pagination(c)

	status := -1
	if raw := c.Query("status"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			status = v
		}
	}

	pages, total, err := ctrl.pageService.ListPages(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), repository.PageFilter{
		Keyword:  c.Query("keyword"),
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, gin.H{
		"items": pages,
		"total": total,
	})
}

// UpdatePage 更新页面
// @Summary 更新落地页
// @Tags Page
// @Accept json
// @Param id path int true "页面ID"
// @Param body body PageRequest true "页面内容"
// @Success 200 {object} map[string]interface{}
// @Router /api/pages/{id} [put]
func (ctrl *PageController) UpdatePage(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的页面ID")
		return
	}

	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	page, err := ctrl.pageService.UpdatePage(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), id, service.UpdatePageInput{
		Title:          req.Title,
		Slug:           req.Slug,
		Blocks:         req.Blocks,
		SEOTitle:       req.SEOTitle,
		SEODescription: req.SEODescription,
	})
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, page)
}

// PublishPage 发布/下线页面
// @Summary 发布或下线落地页
// @Tags Page
// @Param id path int true "页面ID"
// @Param body body PublishRequest true "发布状态"
// @Success 200 {object} map[string]interface{}
// @Router /api/pages/{id}/publish [post]
func (ctrl *PageController) PublishPage(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的页面ID")
		return
	}

	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	if err := ctrl.pageService.PublishPage(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), id, req.Publish); err != nil {
		fail(c, err)
		return
	}

	ok(c, nil)
}

// DeletePage 删除页面
// @Summary 删除落地页
// @Tags Page
// @Param id path int true "页面ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/pages/{id} [delete]
func (ctrl *PageController) DeletePage(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的页面ID")
		return
	}

	if err := ctrl.pageService.DeletePage(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), id); err != nil {
		fail(c, err)
		return
	}

	ok(c, nil)
}
