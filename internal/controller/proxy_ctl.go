package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lp_builder_v1_202601/internal/middleware"
	"lp_builder_v1_202601/internal/service"
)

// ==================== 控制器 ====================

// ProxyController 店面代理控制器
// 所有端点经由 Shopify App Proxy 转发，外层已通过签名校验和店铺解析
type ProxyController struct {
	pageService       *service.PageService
	submissionService *service.SubmissionService
	analyticsService  *service.AnalyticsService
	abtestService     *service.ABTestService
}

func NewProxyController(
	pageService *service.PageService,
	submissionService *service.SubmissionService,
	analyticsService *service.AnalyticsService,
	abtestService *service.ABTestService,
) *ProxyController {
	return &ProxyController{
		pageService:       pageService,
		submissionService: submissionService,
		analyticsService:  analyticsService,
		abtestService:     abtestService,
	}
}

// ==================== 请求定义 ====================

// ProxySubmitRequest 店面表单提交请求
type ProxySubmitRequest struct {
	PageID  int64                  `json:"page_id" binding:"required"`
	Payload map[string]interface{} `json:"payload" binding:"required"`
}

// ProxyEventRequest 店面事件上报请求
type ProxyEventRequest struct {
	PageID    int64                  `json:"page_id"`
	EventType string                 `json:"event_type" binding:"required"`
	VisitorID string                 `json:"visitor_id"`
	SessionID string                 `json:"session_id"`
	Meta      map[string]interface{} `json:"meta"`
}

// ==================== API 方法 ====================

// RenderPage 渲染已发布页面
// @Summary 按 slug 渲染已发布落地页
// @Tags Proxy
// @Produce html
// @Param slug path string true "页面 slug"
// @Success 200 {string} string "HTML"
// @Router /proxy/pages/{slug} [get]
func (ctrl *ProxyController) RenderPage(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		badRequest(c, "缺少页面标识")
		return
	}

	html, err := ctrl.pageService.RenderPublic(c.Request.Context(), middleware.GetStoreContext(c), slug)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			c.String(http.StatusNotFound, "page not found")
			return
		}
		fail(c, err)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, html)
}

// SubmitForm 店面表单提交
// @Summary 接收访客表单提交（敏感字段落库前加密）
// @Tags Proxy
// @Accept json
// @Param body body ProxySubmitRequest true "表单内容"
// @Success 201 {object} map[string]interface{}
// @Router /proxy/submissions [post]
func (ctrl *ProxyController) SubmitForm(c *gin.Context) {
	var req ProxySubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	sub, err := ctrl.submissionService.CreateFromProxy(c.Request.Context(), middleware.GetStoreContext(c), req.PageID, req.Payload, middleware.BuildMeta(c))
	if err != nil {
		fail(c, err)
		return
	}

	// 店面端只回执 ID，不回显任何提交内容
	created(c, gin.H{"id": sub.ID})
}

// TrackEvent 访客事件上报
// @Summary 记录访客行为事件
// @Tags Proxy
// @Accept json
// @Param body body ProxyEventRequest true "事件内容"
// @Success 201 {object} map[string]interface{}
// @Router /proxy/events [post]
func (ctrl *ProxyController) TrackEvent(c *gin.Context) {
	var req ProxyEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	err := ctrl.analyticsService.Track(c.Request.Context(), middleware.GetStoreContext(c), service.TrackInput{
		PageID:    req.PageID,
		EventType: req.EventType,
		VisitorID: req.VisitorID,
		SessionID: req.SessionID,
		Referrer:  c.Request.Referer(),
		Meta:      req.Meta,
	}, middleware.BuildMeta(c))
	if err != nil {
		fail(c, err)
		return
	}

	created(c, nil)
}

// PickVariant 抽取 A/B 变体
// @Summary 按权重抽取运行中测试的变体
// @Tags Proxy
// @Param id path int true "测试ID"
// @Success 200 {object} map[string]interface{}
// @Router /proxy/abtests/{id}/variant [get]
func (ctrl *ProxyController) PickVariant(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的测试ID")
		return
	}

	variant, err := ctrl.abtestService.PickVariant(c.Request.Context(), middleware.GetStoreContext(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, variant)
}

// RecordConversion 记录变体转化
// @Summary 记录 A/B 变体转化
// @Tags Proxy
// @Param id path int true "变体ID"
// @Success 200 {object} map[string]interface{}
// @Router /proxy/abtests/variants/{id}/conversion [post]
func (ctrl *ProxyController) RecordConversion(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的变体ID")
		return
	}

	if err := ctrl.abtestService.RecordConversion(c.Request.Context(), middleware.GetStoreContext(c), id); err != nil {
		fail(c, err)
		return
	}

	ok(c, nil)
}
