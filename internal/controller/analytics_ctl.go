package controller

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lp_builder_v1_202601/internal/middleware"
	"lp_builder_v1_202601/internal/repository"
	"lp_builder_v1_202601/internal/service"
)

// ==================== 控制器 ====================

// AnalyticsController 访客分析控制器（商家端只读）
type AnalyticsController struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{analyticsService: analyticsService}
}

// ==================== API 方法 ====================

// ListEvents 事件列表
// @Summary 访客事件列表
// @Tags Analytics
// @Param page_id query int false "按页面筛选"
// @Param event_type query string false "按事件类型筛选"
// @Param since query string false "起始时间 RFC3339"
// @Success 200 {object} map[string]interface{}
// @Router /api/analytics/events [get]
func (ctrl *AnalyticsController) ListEvents(c *gin.Context) {
	page, pageSize := pagination(c)

	var pageID int64
	if raw := c.Query("page_id"); raw != "" {
		pageID, _ = strconv.ParseInt(raw, 10, 64)
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		since, _ = time.Parse(time.RFC3339, raw)
	}

	events, total, err := ctrl.analyticsService.ListEvents(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), repository.AnalyticsFilter{
		PageID:    pageID,
		EventType: c.Query("event_type"),
		Since:     since,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, gin.H{
		"items": events,
		"total": total,
	})
}

// CountByType 事件计数
// @Summary 按类型统计事件数
// @Tags Analytics
// @Param event_type query string true "事件类型"
// @Param since query string false "起始时间 RFC3339，默认最近 30 天"
// @Success 200 {object} map[string]interface{}
// @Router /api/analytics/count [get]
func (ctrl *AnalyticsController) CountByType(c *gin.Context) {
	eventType := c.Query("event_type")
	if eventType == "" {
		badRequest(c, "缺少 event_type 参数")
		return
	}

	since := time.Now().AddDate(0, 0, -30)
	if raw := c.Query("since"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			since = t
		}
	}

	count, err := ctrl.analyticsService.CountByType(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), eventType, since)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, gin.H{
		"event_type": eventType,
		"count":      count,
	})
}
