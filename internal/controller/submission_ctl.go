package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"lp_builder_v1_202601/internal/middleware"
	"lp_builder_v1_202601/internal/repository"
	"lp_builder_v1_202601/internal/service"
)

// ==================== 控制器 ====================

// SubmissionController 表单提交控制器（商家端只读 + 删除）
type SubmissionController struct {
	submissionService *service.SubmissionService
}

func NewSubmissionController(submissionService *service.SubmissionService) *SubmissionController {
	return &SubmissionController{submissionService: submissionService}
}

// ==================== API 方法 ====================

// GetSubmission 获取提交详情
// @Summary 获取表单提交详情（敏感字段已解密）
// @Tags Submission
// @Param id path int true "提交ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/submissions/{id} [get]
func (ctrl *SubmissionController) GetSubmission(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的提交ID")
		return
	}

	sub, err := ctrl.submissionService.GetSubmission(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), id)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, sub)
}

// ListSubmissions 提交列表
// @Summary 表单提交列表
// @Tags Submission
// @Param page_id query int false "按页面筛选"
// @Success 200 {object} map[string]interface{}
// @Router /api/submissions [get]
func (ctrl *SubmissionController) ListSubmissions(c *gin.Context) {
	page, pageSize := pagination(c)

	var pageID int64
	if raw := c.Query("page_id"); raw != "" {
		pageID, _ = strconv.ParseInt(raw, 10, 64)
	}

	subs, total, err := ctrl.submissionService.ListSubmissions(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), repository.SubmissionFilter{
		PageID:   pageID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, gin.H{
		"items": subs,
		"total": total,
	})
}

// DeleteSubmission 删除提交
// @Summary 删除表单提交
// @Tags Submission
// @Param id path int true "提交ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/submissions/{id} [delete]
func (ctrl *SubmissionController) DeleteSubmission(c *gin.Context) {
	id := parseID(c, "id")
	if id == 0 {
		badRequest(c, "无效的提交ID")
		return
	}

	if err := ctrl.submissionService.DeleteSubmission(c.Request.Context(), middleware.BuildMeta(c), middleware.GetStoreContext(c), id); err != nil {
		fail(c, err)
		return
	}

	ok(c, nil)
}
